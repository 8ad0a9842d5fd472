package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"mdc/internal/avid"
	"mdc/internal/config"
	"mdc/internal/datatype"
	"mdc/internal/downloader"
	"mdc/internal/processor"
	"mdc/internal/scanner"
	"mdc/internal/scraper"
	"mdc/internal/server"
	"mdc/pkg/progress"
	"mdc/pkg/ui"
	"mdc/pkg/web"
)

var version = "dev"

func main() {
	config.Version = version
	config.Run = run
	config.Execute()
}

func run(cfg *config.Config, flags config.Flags) error {
	setupLogging(cfg)

	if flags.Serve {
		return serve(cfg)
	}

	sc, err := scanner.New(cfg)
	if err != nil {
		return fmt.Errorf("creating scanner: %w", err)
	}
	files, stats, err := sc.Scan()
	if err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.Common.SourceFolder, err)
	}
	skipped := stats.SkipFailed + stats.SkipNFODays + stats.SkipSuccessNFO
	fmt.Printf("Found %d video files under %s (%d skipped)\n",
		len(files), cfg.Common.SourceFolder, skipped)

	if flags.ScanOnly {
		for _, f := range files {
			fmt.Println("  " + f)
		}
		return nil
	}
	if len(files) == 0 {
		fmt.Println("Nothing to process.")
		return nil
	}
	if flags.Number != "" && len(files) != 1 {
		return fmt.Errorf("--number applies to a single file, but the scan found %d", len(files))
	}

	client, cleanup, err := newGateway(cfg)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	defer cleanup()
	proc := buildProcessor(cfg, client, flags.Number)

	start := time.Now()
	bar := progress.NewBar(os.Stderr, len(files))
	results, batchStats := proc.ProcessBatch(context.Background(), files, func(completed, total int) {
		bar.Set(completed)
	})
	bar.Finish()

	for _, r := range results {
		switch r.Status {
		case processor.StatusSucceeded:
			fmt.Println(ui.Successf("✓ %s → %s", r.DisplayID, r.Destination))
		case processor.StatusSkipped:
			fmt.Println(ui.Warnf("- %s skipped (already organized)", r.DisplayID))
		default:
			fmt.Println(ui.Errorf("✗ %s: %s", r.Path, r.Error))
		}
	}
	fmt.Println()
	ui.RunSummary{
		Total:     batchStats.Total,
		Succeeded: batchStats.Succeeded,
		Failed:    batchStats.Failed,
		Skipped:   batchStats.Skipped,
		Elapsed:   time.Since(start),
	}.Print(os.Stdout)

	if !cfg.Common.AutoExit {
		fmt.Print("Press Enter to exit...")
		fmt.Scanln()
	}
	return nil
}

func serve(cfg *config.Config) error {
	client, cleanup, err := newGateway(cfg)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	defer cleanup()

	// Jobs carry per-request config overrides, so each gets a fresh
	// processor over the shared gateway.
	factory := func(jobCfg *config.Config) (*processor.Processor, error) {
		return buildProcessor(jobCfg, client, ""), nil
	}
	return server.New(cfg, factory).ListenAndServe()
}

// buildProcessor assembles the scraper registry and the poster fetcher
// into a ready processor over an existing gateway.
func buildProcessor(cfg *config.Config, client *web.Client, idOverride string) *processor.Processor {
	registry := scraper.NewDefaultRegistry(&scraper.Env{Client: client, Config: cfg})
	provider := processor.ProviderFunc(func(ctx context.Context, id *avid.ParsedID) (*datatype.Metadata, error) {
		return registry.Search(ctx, id, scraper.SearchOptions{Sources: cfg.Priority.Sources()})
	})

	var posters *downloader.PosterFetcher
	if cfg.Common.EmitPoster {
		posters = downloader.NewPosterFetcher(client, cfg)
	}

	return processor.New(processor.Options{
		Config:     cfg,
		Provider:   provider,
		Posters:    posters,
		IDOverride: idOverride,
	})
}

// newGateway builds the shared HTTP client from the [proxy] section
// and, when headless Chrome is available, attaches it as the hardened
// fallback for anti-bot pages.
func newGateway(cfg *config.Config) (*web.Client, func(), error) {
	opts := &web.ClientOptions{
		Timeout: time.Duration(cfg.Proxy.Timeout) * time.Second,
		Retries: cfg.Proxy.Retry,
	}
	if cfg.Proxy.Switch {
		opts.ProxyURL = cfg.Proxy.Proxy
	}

	cleanup := func() {}
	browser, err := web.NewBrowser(web.DefaultBrowserOptions())
	if err != nil {
		logrus.Debugf("hardened backend unavailable: %v", err)
	} else {
		opts.Browser = browser
		opts.AutoFallback = true
		cleanup = func() {
			if cerr := browser.Close(); cerr != nil {
				logrus.Debugf("closing browser: %v", cerr)
			}
		}
	}

	client, err := web.NewClient(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}

func setupLogging(cfg *config.Config) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if cfg.DebugMode.Switch {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}
