package upload_cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"
	"upstack/catalog"
	"upstack/compress"
	"upstack/config"
	"upstack/dedup"
	"upstack/file_io"
	L "upstack/logger"
	"upstack/transport"
	"upstack/upload"
)

type UploadCmdEnv struct {
	ConfigPath  string
	EntityType  config.EntityType
	EntityId    string
	Category    config.Category
	FileType    string
	Concurrency int
	Force       bool
	FilePaths   []string
	DB          *catalog.DB
	CatalogRepo catalog.Repository
}

var uploadCmdEnv *UploadCmdEnv

func Execute(ctx context.Context, args []string) error {
	err := parseFlags(args)
	if err != nil {
		return err
	}
	if uploadCmdEnv == nil {
		return fmt.Errorf("could not initialize env, this shouldn't happen")
	}

	// resolve and parse config
	configPath := uploadCmdEnv.ConfigPath
	if configPath == "" {
		configPath, err = config.GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}
	err = config.Parse(configPath)
	if err != nil {
		return err
	}
	cfg := config.Get()
	if uploadCmdEnv.Concurrency > 0 {
		cfg.MaxConcurrent = uploadCmdEnv.Concurrency
	}
	if uploadCmdEnv.Category == "" {
		uploadCmdEnv.Category = cfg.DefaultCategory
	}

	// initialize catalog connection
	dbPath, err := catalog.GetDBFilePath()
	if err != nil {
		return err
	}
	db, err := catalog.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close(ctx)
	uploadCmdEnv.DB = db
	err = db.Init(ctx)
	if err != nil {
		return err
	}
	uploadCmdEnv.CatalogRepo = catalog.NewRepository(db)

	return runUpload(ctx, cfg)
}

func parseFlags(args []string) error {
	uploadCmd := flag.NewFlagSet("upload", flag.ExitOnError)
	configPath := uploadCmd.String("config", "", "Path to config.json file")
	uploadCmd.StringVar(configPath, "c", "", "alias to -config")
	entityTypeStr := uploadCmd.String("entity-type", "", "Entity the files belong to: property unit tenant job inspection (required)")
	uploadCmd.StringVar(entityTypeStr, "e", "", "alias to -entity-type")
	entityId := uploadCmd.String("entity-id", "", "Identifier of the entity (required)")
	uploadCmd.StringVar(entityId, "i", "", "alias to -entity-id")
	categoryStr := uploadCmd.String("category", "", "Optional category: photo document floorplan report")
	fileType := uploadCmd.String("file-type", "", "Optional file type hint passed to the backend")
	concurrency := uploadCmd.Int("concurrency", 0, "Override max concurrent uploads")
	uploadCmd.IntVar(concurrency, "n", 0, "alias to -concurrency")
	force := uploadCmd.Bool("force", false, "Upload files even when their content is already known")
	logLevel := uploadCmd.String("log-level", L.GetLogLevel().String(), "Set log level: debug info warn error panic")
	uploadCmd.StringVar(logLevel, "L", L.GetLogLevel().String(), "Set log level: debug info warn error panic")
	uploadCmd.Usage = func() {
		PrintUsage()
	}
	err := uploadCmd.Parse(args)
	if err != nil {
		return err
	}

	if len(uploadCmd.Args()) < 1 {
		return fmt.Errorf("no files provided. For more information check 'upstack help upload'")
	}
	if logLevel != nil {
		err = L.SetLevelFromString(*logLevel)
		if err != nil {
			return err
		}
	}
	entityType, err := config.ParseEntityType(*entityTypeStr)
	if err != nil {
		return fmt.Errorf("%w. For more information check 'upstack help upload'", err)
	}
	if *entityId == "" {
		return fmt.Errorf("required arg entity-id is not provided")
	}
	category, err := config.ParseCategory(*categoryStr)
	if err != nil {
		return err
	}

	uploadCmdEnv = &UploadCmdEnv{
		ConfigPath:  *configPath,
		EntityType:  entityType,
		EntityId:    *entityId,
		Category:    category,
		FileType:    *fileType,
		Concurrency: *concurrency,
		Force:       *force,
		FilePaths:   uploadCmd.Args(),
	}
	return nil
}

func runUpload(ctx context.Context, cfg *config.Config) error {
	sources := make([]*file_io.Source, 0, len(uploadCmdEnv.FilePaths))
	for _, path := range uploadCmdEnv.FilePaths {
		src, err := file_io.ReadSource(path)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	// partition against previously uploaded digests
	knownDigests, err := uploadCmdEnv.CatalogRepo.KnownDigests(ctx)
	if err != nil {
		return err
	}
	hashed, err := dedup.HashAll(sources)
	if err != nil {
		return err
	}
	duplicates, unique := dedup.FindDuplicates(hashed, knownDigests)
	for _, d := range duplicates {
		L.Warn(fmt.Sprintf("%s was uploaded before (digest %s)",
			d.Source.Name, L.TruncateString(d.Digest, 16, L.TRUNC_RIGHT)))
	}
	toUpload := unique
	if uploadCmdEnv.Force {
		toUpload = hashed
	} else if len(duplicates) > 0 {
		L.Info(fmt.Sprintf("Skipping %d duplicate file(s), pass -force to upload anyway", len(duplicates)))
	}
	if len(toUpload) == 0 {
		L.Println("Nothing to upload.")
		return nil
	}

	uploader, err := transport.NewHttpTransport(cfg)
	if err != nil {
		return err
	}
	compressor, err := compress.NewGzipCompressor(*cfg.CompressLevel)
	if err != nil {
		return err
	}

	scheduler := upload.NewScheduler(uploader, compressor, upload.Options{
		MaxConcurrent:          cfg.MaxConcurrent,
		CompressThresholdBytes: cfg.CompressThresholdBytes,
		MaxRateLimitRetries:    cfg.MaxRateLimitRetries,
		OnSuccess: func(e upload.Entry) {
			L.Println(fmt.Sprintf("Uploaded: %s -> %s", e.Name, e.UploadedUrl))
			err := uploadCmdEnv.CatalogRepo.Add(ctx, &catalog.Row{
				Digest:      e.ContentHash,
				Name:        e.Name,
				Size:        e.Size,
				EntityType:  uploadCmdEnv.EntityType.String(),
				EntityId:    uploadCmdEnv.EntityId,
				UploadedKey: e.UploadedKey,
			})
			if err != nil {
				L.Error(err)
			}
		},
		OnError: func(e upload.Entry) {
			L.Error(fmt.Errorf("upload failed: %s: %s", e.Name, e.ErrorMessage))
		},
	})
	defer scheduler.Close()

	meta := transport.Metadata{
		EntityType: uploadCmdEnv.EntityType,
		EntityId:   uploadCmdEnv.EntityId,
		Category:   uploadCmdEnv.Category,
		FileType:   uploadCmdEnv.FileType,
	}
	batch := make([]*file_io.Source, 0, len(toUpload))
	for _, h := range toUpload {
		batch = append(batch, h.Source)
	}
	_, err = scheduler.Submit(meta, batch)
	if err != nil {
		return err
	}
	L.Info(fmt.Sprintf("Uploading %d file(s) to %s %s (max %d concurrent)",
		len(batch), uploadCmdEnv.EntityType.String(), uploadCmdEnv.EntityId, cfg.MaxConcurrent))

	counts := waitForDrain(ctx, scheduler)
	L.Footer(L.INFO, "")

	completed := scheduler.CompletedFiles()
	for _, f := range completed {
		L.Debug(fmt.Sprintf("Completed: %s key=%s", f.Name, f.Key))
	}
	L.Printf("Done: %d uploaded, %d failed\n", counts.Success, counts.Error)
	if counts.Error > 0 {
		return fmt.Errorf("%d upload(s) failed", counts.Error)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("kill signal received, exiting")
	default:
	}
	return nil
}

// polls the scheduler until every entry is terminal, keeping the footer in
// sync with progress and pause state.
func waitForDrain(ctx context.Context, scheduler *upload.Scheduler) upload.Counts {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		counts := scheduler.Counts()
		if counts.Pending+counts.Active == 0 {
			return counts
		}
		L.Footer(L.INFO, footerLine(scheduler, counts))
		select {
		case <-ctx.Done():
			return counts
		case <-ticker.C:
		}
	}
}

func footerLine(scheduler *upload.Scheduler, counts upload.Counts) string {
	total := counts.Pending + counts.Active + counts.Success + counts.Error
	done := counts.Success + counts.Error
	percent := 0.0
	if total > 0 {
		percent = float64(done) * 100.0 / float64(total)
	}
	line := fmt.Sprintf("Uploading: %d/%d %s", done, total, L.ProgressBar(percent))
	paused, reason, until := scheduler.PauseState()
	if paused {
		remaining := time.Until(until).Milliseconds()
		line = fmt.Sprintf("%s | %s (%s left)", line, reason, L.HumanReadableTime(remaining))
	}
	var names []string
	for _, e := range scheduler.Snapshot() {
		if e.Status == upload.STATUS_UPLOADING {
			names = append(names, fmt.Sprintf("%s %d%%", L.TruncateString(e.Name, 20, L.TRUNC_CENTER), e.Progress))
		}
	}
	if len(names) > 0 {
		line = fmt.Sprintf("%s\n%s", line, strings.Join(names, "  "))
	}
	return line
}
