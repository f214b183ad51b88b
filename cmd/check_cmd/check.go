package check_cmd

import (
	"context"
	"flag"
	"fmt"
	"upstack/catalog"
	"upstack/dedup"
	"upstack/file_io"
	L "upstack/logger"
)

type CheckCmdEnv struct {
	FilePaths []string
}

var checkCmdEnv *CheckCmdEnv

// Execute hashes the given files and reports which of them were uploaded
// before or repeat within the batch, without talking to the backend.
func Execute(ctx context.Context, args []string) error {
	err := parseFlags(args)
	if err != nil {
		return err
	}
	if checkCmdEnv == nil {
		return fmt.Errorf("could not initialize env, this shouldn't happen")
	}

	dbPath, err := catalog.GetDBFilePath()
	if err != nil {
		return err
	}
	db, err := catalog.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close(ctx)
	err = db.Init(ctx)
	if err != nil {
		return err
	}
	repo := catalog.NewRepository(db)

	knownDigests, err := repo.KnownDigests(ctx)
	if err != nil {
		return err
	}

	sources := make([]*file_io.Source, 0, len(checkCmdEnv.FilePaths))
	for _, path := range checkCmdEnv.FilePaths {
		src, err := file_io.ReadSource(path)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}
	hashed, err := dedup.HashAll(sources)
	if err != nil {
		return err
	}

	duplicates, unique := dedup.FindDuplicates(hashed, knownDigests)
	for _, d := range duplicates {
		row, err := repo.GetByDigest(ctx, d.Digest)
		if err == nil {
			L.Printf("DUPLICATE  %s (seen as %s for %s %s)\n", d.Source.Name, row.Name, row.EntityType, row.EntityId)
		} else {
			L.Printf("DUPLICATE  %s (repeats within this batch)\n", d.Source.Name)
		}
	}
	for _, u := range unique {
		L.Printf("NEW        %s (%s)\n", u.Source.Name, L.HumanReadableBytes(uint64(u.Source.Size()), 1))
	}
	L.Printf("%d file(s): %d new, %d duplicate\n", len(hashed), len(unique), len(duplicates))
	return nil
}

func parseFlags(args []string) error {
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	logLevel := checkCmd.String("log-level", L.GetLogLevel().String(), "Set log level: debug info warn error panic")
	checkCmd.StringVar(logLevel, "L", L.GetLogLevel().String(), "Set log level: debug info warn error panic")
	checkCmd.Usage = func() {
		PrintUsage()
	}
	err := checkCmd.Parse(args)
	if err != nil {
		return err
	}
	if len(checkCmd.Args()) < 1 {
		return fmt.Errorf("no files provided. For more information check 'upstack help check'")
	}
	if logLevel != nil {
		err = L.SetLevelFromString(*logLevel)
		if err != nil {
			return err
		}
	}
	checkCmdEnv = &CheckCmdEnv{
		FilePaths: checkCmd.Args(),
	}
	return nil
}
