package check_cmd

import L "upstack/logger"

var usageStr string = `
USAGE
upstack check [<options>] <file>...

DESCRIPTION
Hashes the given files and reports which ones were uploaded before, or
repeat within the batch itself. Nothing is uploaded.

OPTIONS
-L, -log-level <level>    Set log level: debug info warn error panic

EXAMPLES
1. upstack check photo1.jpg photo2.jpg
2. upstack check docs/*.pdf
`

func Usage() string {
	return usageStr
}

func PrintUsage() {
	L.Print(usageStr)
}
