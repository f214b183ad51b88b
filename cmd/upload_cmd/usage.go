package upload_cmd

import L "upstack/logger"

var usageStr string = `
USAGE
upstack upload [<options>] <file>...

DESCRIPTION
Uploads one or more files for a property entity. Files whose content was
uploaded before are skipped, files above the configured size threshold are
gzip compressed first, and uploads run concurrently up to the configured
limit. When the backend answers with 429 the whole queue pauses and resumes
on its own after the advertised delay.

OPTIONS
-c, -config <path>        Path to config.json file
-e, -entity-type <type>   Entity the files belong to: property unit tenant
                          job inspection (required)
-i, -entity-id <id>       Identifier of the entity (required)
-category <category>      Optional category: photo document floorplan report
-file-type <type>         Optional file type hint passed to the backend
-n, -concurrency <n>      Override max concurrent uploads
-force                    Upload files even when their content is already known
-L, -log-level <level>    Set log level: debug info warn error panic

EXAMPLES
1. upstack upload -e property -i prop_42 photo1.jpg photo2.jpg
2. upstack upload -e unit -i unit_7 -category floorplan -n 5 plans/*.pdf
3. upstack upload -e job -i job_19 -force report.pdf
`

func Usage() string {
	return usageStr
}

func PrintUsage() {
	L.Print(usageStr)
}
