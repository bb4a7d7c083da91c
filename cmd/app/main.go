package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yingtu35/link-integrity-crawler/internal/config"
	"github.com/yingtu35/link-integrity-crawler/internal/export"
	"github.com/yingtu35/link-integrity-crawler/internal/webscraper"
)

const (
	exitOK          = 0
	exitBrokenLinks = 1
	exitSetup       = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log := logrus.New()

	cfg, err := loadConfig(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		log.WithError(err).Error("configuration error")
		return exitSetup
	}
	if err := configureLogger(log, cfg.Log); err != nil {
		log.WithError(err).Error("configuration error")
		return exitSetup
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := hunt(ctx, cfg, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("setup failed")
		return exitSetup
	}
	if err != nil {
		log.Warn("crawl interrupted, reporting partial results")
	}

	export.PrintTable(os.Stdout, report)
	if cfg.Output.Format != "table" {
		exporter, err := export.NewExporter(cfg.Output.Format)
		if err != nil {
			log.WithError(err).Error("export failed")
			return exitSetup
		}
		if err := exporter.Export(report, cfg.Output.Path); err != nil {
			log.WithError(err).Error("export failed")
			return exitSetup
		}
		log.WithField("path", cfg.Output.Path+"."+cfg.Output.Format).Info("report exported")
	}

	if len(report) > 0 {
		log.WithField("count", len(report)).Error("found broken links")
		return exitBrokenLinks
	}
	return exitOK
}

// loadConfig layers flags over the config file and environment.
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("dead-link-hunter", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	baseURL := fs.String("url", "", "base URL to crawl; also the scope prefix")
	depth := fs.Int("depth", -1, "maximum crawl depth")
	workers := fs.Int("workers", 0, "number of pages crawled in parallel")
	engine := fs.String("renderer", "", "rendering engine: playwright or static")
	format := fs.String("format", "", "report format: table, csv or json")
	output := fs.String("output", "", "report file path without extension")
	logLevel := fs.String("log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *depth >= 0 {
		cfg.MaxDepth = *depth
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *engine != "" {
		cfg.Renderer.Engine = *engine
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	return cfg, cfg.Validate()
}

func configureLogger(log *logrus.Logger, cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// hunt opens the browser and the prober, runs the crawl and releases both on every path.
func hunt(ctx context.Context, cfg config.Config, log *logrus.Logger) ([]webscraper.BrokenLink, error) {
	browser, err := openBrowser(cfg.Renderer, cfg.Probe.UserAgent)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.WithError(err).Warn("closing browser")
		}
	}()

	prober, err := webscraper.NewHTTPProber(cfg.Probe.Timeout.Duration, cfg.Probe.UserAgent)
	if err != nil {
		return nil, err
	}
	defer prober.Close()

	hunter := webscraper.NewDeadLinkHunter(
		webscraper.NewPageLoader(browser, cfg.Renderer.NavigationTimeout.Duration),
		webscraper.NewValidator(prober, cfg.Probe.Timeout.Duration),
		webscraper.HunterOptions{
			BaseURL:  cfg.BaseURL,
			MaxDepth: cfg.MaxDepth,
			Workers:  cfg.Workers,
			Logger:   log,
		},
	)

	start := time.Now()
	report, err := hunter.Hunt(ctx, cfg.BaseURL)
	log.Infof("Total Hunting Time: %s", time.Since(start))
	return report, err
}

func openBrowser(cfg config.RendererConfig, userAgent string) (webscraper.Browser, error) {
	switch cfg.Engine {
	case "static":
		return webscraper.NewStaticBrowser(userAgent), nil
	case "playwright":
		return webscraper.NewPlaywrightBrowser(webscraper.PlaywrightOptions{
			Headless:        cfg.Headless,
			InstallBrowsers: cfg.InstallBrowsers,
		})
	default:
		return nil, fmt.Errorf("unknown renderer engine %q", cfg.Engine)
	}
}
