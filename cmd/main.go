package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cart-tracker/config"
	"cart-tracker/detector"
	"cart-tracker/internal/types"
	"cart-tracker/storage"
	"cart-tracker/syncer"
	"cart-tracker/utils"
)

// DetectionReport is the JSON document written for one scanned page
type DetectionReport struct {
	URL      string          `json:"url"`
	Store    string          `json:"store"`
	Scanned  int             `json:"action_elements"`
	Products []types.Product `json:"products"`
}

// logNotifier routes engine notifications to the logger
type logNotifier struct {
	logger types.Logger
}

func (n *logNotifier) Notify(message string, kind types.NotificationKind) {
	switch kind {
	case types.NotifyError:
		n.logger.Errorf("notification: %s", message)
	default:
		n.logger.Infof("notification: %s", message)
	}
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	var (
		urlFlag     = flag.String("url", "", "Product page URL to scan")
		fileFlag    = flag.String("file", "", "Local HTML file to scan instead of fetching")
		pageURLFlag = flag.String("page-url", "", "Page URL to attribute to a local file (sets store/url fields)")
		outputFlag  = flag.String("output", "", "Output file path (default: stdout)")
		delayFlag   = flag.Duration("delay", 0, "Delay between requests (overrides config)")
		timeoutFlag = flag.Duration("timeout", 0, "Request timeout (overrides config)")
		retriesFlag = flag.Int("retries", -1, "Maximum retry attempts (overrides config)")
		browserFlag = flag.Bool("browser", false, "Use headless browser for JavaScript-heavy sites")
		waitForFlag = flag.String("wait-for", "", "CSS selector to wait for before snapshotting (browser mode only)")
		httpOnly    = flag.Bool("http-only", false, "Use HTTP requests only (disable headless browser)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if *urlFlag == "" && *fileFlag == "" {
		log.Fatal("Either --url or --file flag is required")
	}
	if *urlFlag != "" && *fileFlag != "" {
		log.Fatal("Cannot use both --url and --file flags")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	fetchCfg := cfg.FetchSettings()
	if *delayFlag > 0 {
		fetchCfg.RequestDelay = *delayFlag
	}
	if *timeoutFlag > 0 {
		fetchCfg.Timeout = *timeoutFlag
	}
	if *retriesFlag >= 0 {
		fetchCfg.MaxRetries = *retriesFlag
	}
	if *browserFlag {
		fetchCfg.UseHeadlessBrowser = true
	}
	if *httpOnly {
		fetchCfg.UseHeadlessBrowser = false
	}

	settings := cfg.Settings()
	if !settings.AutoDetect {
		logger.Info("Auto-detect disabled, nothing to do")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	html, pageURL, err := loadPage(ctx, fetchCfg, logger, *urlFlag, *fileFlag, *pageURLFlag, *waitForFlag)
	if err != nil {
		logger.Fatalf("Failed to load page: %v", err)
	}

	page, err := detector.NewPage(html, pageURL)
	if err != nil {
		logger.Fatalf("Failed to parse page: %v", err)
	}

	store := storage.NewMemoryStore()
	det := detector.New(settings, store, logger)
	det.SetNotifier(&logNotifier{logger: logger})

	sync := syncer.New(settings, fetchCfg, logger)
	if sync.Enabled() {
		sync.Start(ctx)
		defer sync.Stop()
	}

	startTime := time.Now()
	actions := det.ScanPage(page)
	logger.Infof("Found %d action elements on %s", len(actions), pageURL)

	report := DetectionReport{
		URL:     pageURL,
		Store:   page.Host,
		Scanned: len(actions),
	}

	for i, action := range actions {
		outcome, product := det.HandleClick(ctx, page, action)
		logger.Infof("Action element %d/%d: %s", i+1, len(actions), outcome)
		if product != nil {
			report.Products = append(report.Products, *product)
			sync.Enqueue(*product)
		}
		if i < len(actions)-1 {
			// The in-flight guard holds for a second after each detection.
			time.Sleep(1100 * time.Millisecond)
		}
	}

	logger.Infof("Scan completed in %v, %d products detected", time.Since(startTime), len(report.Products))

	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to marshal results: %v", err)
	}

	if *outputFlag != "" {
		if err := os.WriteFile(*outputFlag, jsonData, 0644); err != nil {
			logger.Fatalf("Failed to write output file: %v", err)
		}
		logger.Infof("Results written to: %s", *outputFlag)
	} else {
		fmt.Println(string(jsonData))
	}
}

// loadPage returns the raw HTML and the URL to attribute to it
func loadPage(ctx context.Context, cfg *types.Config, logger types.Logger, url, file, filePageURL, waitFor string) (string, string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), filePageURL, nil
	}

	if cfg.UseHeadlessBrowser {
		browser := utils.NewBrowserClient(cfg, logger)
		html, err := browser.GetPageContent(ctx, url, waitFor)
		return html, url, err
	}

	client := utils.NewHTTPClient(cfg, logger)
	defer client.Close()
	body, err := client.Get(ctx, url)
	return string(body), url, err
}
