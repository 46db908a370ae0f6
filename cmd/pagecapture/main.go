package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/guregu/null.v3"

	"github.com/v0xg/pagecapture/internal/config"
	"github.com/v0xg/pagecapture/internal/driver"
	"github.com/v0xg/pagecapture/internal/page"
	"github.com/v0xg/pagecapture/internal/uitest"
)

var (
	visible    []string
	steps      []string
	timeout    time.Duration
	captureDir string
	captureURL string
	replayGIF  bool
	sutName    string
	sutVersion string
	headless   bool
	maximise   bool
	width      int
	height     int
	browserBin string
	gridURL    string
	profile    string
	logLevel   string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pagecapture <url>",
		Short: "Open a page, wait for it, run steps and capture every action",
		Long: `pagecapture opens a URL as a page object, waits until the --visible
elements are shown, runs the --step actions in order and reports the
outcome. With --capture-dir or --capture-url every navigation, click,
key press, script and the final outcome is captured as a screenshot.

Steps:
  click:<css>            click an element
  type:<css>=<text>      type text into an element
  upload:<css>=<file>    select a file in a file input
  wait:<css>             wait until an element is visible
  script:<js>            run a function expression in the page

Example:
  pagecapture https://the-internet.herokuapp.com/upload \
    --visible "input#file-upload" \
    --step "upload:input#file-upload=upload.txt" \
    --step "click:input#file-submit" \
    --step "wait:#uploaded-files" \
    --capture-dir captures --replay`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	f := rootCmd.Flags()
	f.StringArrayVar(&visible, "visible", nil, "CSS selector that must be visible before steps run (repeatable)")
	f.StringArrayVar(&steps, "step", nil, "Action to perform, see above (repeatable, run in order)")
	f.DurationVar(&timeout, "timeout", 10*time.Second, "Visibility timeout per page")
	f.StringVar(&captureDir, "capture-dir", "", "Write screenshots to this directory")
	f.StringVar(&captureURL, "capture-url", "", "Send screenshots to this Capture API")
	f.BoolVar(&replayGIF, "replay", false, "Also write the --capture-dir screenshots as an animated GIF")
	f.StringVar(&sutName, "sut-name", "", "Name of the software under test")
	f.StringVar(&sutVersion, "sut-version", "", "Version of the software under test")
	f.BoolVar(&headless, "headless", true, "Run the browser without a window")
	f.BoolVar(&maximise, "maximise", false, "Maximise the browser window")
	f.IntVar(&width, "width", 1280, "Viewport width")
	f.IntVar(&height, "height", 720, "Viewport height")
	f.StringVar(&browserBin, "browser-bin", "", "Browser binary (default: looked up on PATH)")
	f.StringVar(&gridURL, "grid-url", "", "Remote control URL of an already running browser")
	f.StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	f.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warning, error")
	f.BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// flagConfig returns the settings given on the command line. Flags left at
// their default stay invalid so the environment wins over them.
func flagConfig(cmd *cobra.Command) config.Config {
	changed := cmd.Flags().Changed
	var cfg config.Config
	if changed("timeout") {
		cfg.Timeout = config.NullDurationFrom(timeout)
	}
	if changed("capture-dir") {
		cfg.CaptureDir = null.StringFrom(captureDir)
	}
	if changed("capture-url") {
		cfg.CaptureURL = null.StringFrom(captureURL)
	}
	if changed("replay") {
		cfg.Replay = null.BoolFrom(replayGIF)
	}
	if changed("sut-name") {
		cfg.SUTName = null.StringFrom(sutName)
	}
	if changed("sut-version") {
		cfg.SUTVersion = null.StringFrom(sutVersion)
	}
	if changed("headless") {
		cfg.Headless = null.BoolFrom(headless)
	}
	if changed("maximise") {
		cfg.Maximise = null.BoolFrom(maximise)
	}
	if changed("width") {
		cfg.Width = null.IntFrom(int64(width))
	}
	if changed("height") {
		cfg.Height = null.IntFrom(int64(height))
	}
	if changed("browser-bin") {
		cfg.BrowserBin = null.StringFrom(browserBin)
	}
	if changed("grid-url") {
		cfg.GridURL = null.StringFrom(gridURL)
	}
	if changed("profile") {
		cfg.ProfileDir = null.StringFrom(profile)
	}
	if changed("log-level") {
		cfg.LogLevel = null.StringFrom(logLevel)
	}
	if verbose {
		cfg.LogLevel = null.StringFrom("debug")
	}
	return cfg
}

func run(cmd *cobra.Command, args []string) error {
	url := args[0]

	parsed, err := parseSteps(steps)
	if err != nil {
		return err
	}

	// Load .env file if present (silently ignored if not found)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg = cfg.Apply(flagConfig(cmd))

	fmt.Printf("→ Launching browser... ")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := uitest.NewSession(ctx, uitest.Options{Config: cfg, TestID: url})
	if err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Println("done")

	runErr := runSteps(s, url, parsed)
	if runErr != nil {
		s.Failed(url, runErr)
		fmt.Printf("✗ %v\n", runErr)
	} else {
		s.Succeeded(url)
		fmt.Println("✓ All steps passed")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Close(closeCtx); err != nil {
		fmt.Printf("⚠ %v\n", err)
	}
	if cfg.CaptureDir.String != "" {
		fmt.Printf("→ Screenshots written under %s\n", cfg.CaptureDir.String)
	}
	return runErr
}

func runSteps(s *uitest.Session, url string, parsed []step) error {
	fmt.Printf("→ Opening %s... ", url)
	p, err := page.NewGeneric(s, cssAll(visible)...).GetURL(url)
	if err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Printf("done (%d visible)\n", len(visible))

	for i, st := range parsed {
		fmt.Printf("  [%d] %s → %s\n", i+1, st.kind, st.target)
		if p, err = st.run(s, p); err != nil {
			return fmt.Errorf("step %d (%s %s): %w", i+1, st.kind, st.target, err)
		}
	}
	return nil
}

func cssAll(selectors []string) []driver.By {
	out := make([]driver.By, len(selectors))
	for i, sel := range selectors {
		out[i] = driver.ByCSS(sel)
	}
	return out
}
