package cmd

import (
	"context"
	"os"
	"upstack/cmd/check_cmd"
	"upstack/cmd/help_cmd"
	"upstack/cmd/upload_cmd"
	"upstack/cmd/version_cmd"
)

func Execute(ctx context.Context, args []string) error {
	if len(os.Args) < 2 {
		PrintUsage()
		return nil
	}

	values := map[string]string{
		"binary_name":  os.Args[0],
		"command_name": os.Args[1],
	}

	ctx = context.WithValue(ctx, "values", values)

	switch os.Args[1] {
	case "upload":
		return upload_cmd.Execute(ctx, args[2:])
	case "check":
		return check_cmd.Execute(ctx, args[2:])
	case "help":
		return help_cmd.Execute(ctx, args[2:])
	case "version":
		return version_cmd.Execute(ctx, args[2:])
	case "-v", "-version", "--version":
		PrintVersion()
		return nil
	case "-h", "-help", "--help":
		PrintUsage()
		return nil
	default:
		PrintUsage()
		return nil
	}
}
