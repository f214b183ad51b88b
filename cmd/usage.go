package cmd

import L "upstack/logger"

var usageStr string = `
USAGE
upstack [-v | -version] [-h | -help] <command> [<args>]

DESCRIPTION
upstack uploads property files to the management backend: it deduplicates,
compresses large payloads, limits concurrency and survives server-side
rate limiting by pausing and resuming automatically.

COMMANDS
These are common upstack commands used in various situations -
help       Help about a subcommand
upload     Uploads one or more files for a property entity
check      Hashes files and reports duplicates without uploading
version    Prints version

EXAMPLES
See 'upstack help <command>' to read about a specific subcommand.

SEE ALSO
1. upstack help upload
2. upstack help check
`

func Usage() string {
	return usageStr
}

func PrintUsage() {
	L.Print(usageStr)
}
