package help_cmd

import (
	"context"
	"fmt"
	"upstack/cmd/check_cmd"
	"upstack/cmd/upload_cmd"
	"upstack/config"
	L "upstack/logger"
)

var configUsageStr string = `
USAGE
upstack reads its settings from a JSON config file. The default location is
$XDG_CONFIG_HOME/upstack/config.json (falling back to ~/.config), and every
command accepts -config <path> to point somewhere else.

FIELDS
server.base_url             Backend base url, e.g. https://api.example.com
server.upload_path          Upload endpoint path, e.g. /api/v1/files
server.auth_token           Bearer token sent with every request
max_concurrent              Max parallel uploads, default 3
compress_threshold_bytes    Files above this size are gzip compressed before
                            upload, default 5242880 (5 MB)
compress_level              gzip level -1 to 9, default -1
bandwidth_limit_bytes_per_sec
                            Cap on upload throughput, 0 means unlimited
default_retry_after_seconds Pause applied when a 429 carries no delay,
                            default 30
max_rate_limit_retries      Attempts per file before giving up on a rate
                            limited upload, default 5
default_category            Category used when -category is not passed

EXAMPLE
{
  "server": {
    "base_url": "https://api.example.com",
    "upload_path": "/api/files/upload",
    "auth_token": "secret"
  },
  "max_concurrent": 3,
  "compress_threshold_bytes": 5242880,
  "default_category": "document"
}
`

func Execute(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("nothing to show help for, check 'upstack help <command>'")
	}
	switch args[0] {
	case "upload":
		L.Print(upload_cmd.Usage())
	case "check":
		L.Print(check_cmd.Usage())
	case "config":
		L.Print(configUsageStr)
		printDefaultConfig()
	default:
		return fmt.Errorf("unknown help topic '%s', try upload, check or config", args[0])
	}
	return nil
}

func printDefaultConfig() {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return
	}
	L.Printf("Default config path: %s\n", path)
}
