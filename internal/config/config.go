package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mstoykov/envconfig"
	"gopkg.in/guregu/null.v3"
)

// Config holds the driver, wait and capture settings for a test run.
// Every field is nullable so that layers (defaults, env, flags) can be
// merged with Apply without clobbering values that were never set.
type Config struct {
	// Capture is enabled when either a capture URL or a capture dir is set.
	CaptureURL     null.String `json:"captureURL" envconfig:"PAGECAPTURE_CAPTURE_URL"`
	CaptureDir     null.String `json:"captureDir" envconfig:"PAGECAPTURE_CAPTURE_DIR"`
	SUTName        null.String `json:"sutName" envconfig:"PAGECAPTURE_SUT_NAME"`
	SUTVersion     null.String `json:"sutVersion" envconfig:"PAGECAPTURE_SUT_VERSION"`
	ScreenshotSize null.Int    `json:"screenshotMaxWidth" envconfig:"PAGECAPTURE_SCREENSHOT_MAX_WIDTH"`
	// Replay assembles a GIF of a capture dir when the session closes.
	Replay    null.Bool `json:"replay" envconfig:"PAGECAPTURE_REPLAY"`
	ReplayFPS null.Int  `json:"replayFPS" envconfig:"PAGECAPTURE_REPLAY_FPS"`

	Timeout       NullDuration `json:"timeout" envconfig:"PAGECAPTURE_TIMEOUT"`
	PollInterval  NullDuration `json:"pollInterval" envconfig:"PAGECAPTURE_POLL_INTERVAL"`
	ScriptTimeout NullDuration `json:"scriptTimeout" envconfig:"PAGECAPTURE_SCRIPT_TIMEOUT"`

	Headless   null.Bool   `json:"headless" envconfig:"PAGECAPTURE_HEADLESS"`
	Maximise   null.Bool   `json:"maximise" envconfig:"PAGECAPTURE_MAXIMISE"`
	Width      null.Int    `json:"width" envconfig:"PAGECAPTURE_WIDTH"`
	Height     null.Int    `json:"height" envconfig:"PAGECAPTURE_HEIGHT"`
	BrowserBin null.String `json:"browserBin" envconfig:"PAGECAPTURE_BROWSER_BIN"`
	GridURL    null.String `json:"gridURL" envconfig:"PAGECAPTURE_GRID_URL"`
	ProfileDir null.String `json:"profileDir" envconfig:"PAGECAPTURE_PROFILE_DIR"`

	LogLevel null.String `json:"logLevel" envconfig:"PAGECAPTURE_LOG_LEVEL"`
}

// NewConfig creates a Config populated with defaults. Defaults are not
// marked valid, so any explicitly set value wins in Apply.
func NewConfig() Config {
	return Config{
		SUTName:        null.NewString("unknown", false),
		SUTVersion:     null.NewString("unknown", false),
		ScreenshotSize: null.NewInt(1280, false),
		Replay:         null.NewBool(false, false),
		ReplayFPS:      null.NewInt(1, false),
		Timeout:        NewNullDuration(10*time.Second, false),
		PollInterval:   NewNullDuration(500*time.Millisecond, false),
		ScriptTimeout:  NewNullDuration(21*time.Second, false),
		Headless:       null.NewBool(true, false),
		Maximise:       null.NewBool(false, false),
		Width:          null.NewInt(1280, false),
		Height:         null.NewInt(720, false),
		LogLevel:       null.NewString("info", false),
	}
}

// Apply saves the valid values from cfg in the receiver.
//
//nolint:cyclop
func (c Config) Apply(cfg Config) Config {
	if cfg.CaptureURL.Valid {
		c.CaptureURL = cfg.CaptureURL
	}
	if cfg.CaptureDir.Valid {
		c.CaptureDir = cfg.CaptureDir
	}
	if cfg.SUTName.Valid && cfg.SUTName.String != "" {
		c.SUTName = cfg.SUTName
	}
	if cfg.SUTVersion.Valid && cfg.SUTVersion.String != "" {
		c.SUTVersion = cfg.SUTVersion
	}
	if cfg.ScreenshotSize.Valid && cfg.ScreenshotSize.Int64 >= 0 {
		c.ScreenshotSize = cfg.ScreenshotSize
	}
	if cfg.Replay.Valid {
		c.Replay = cfg.Replay
	}
	if cfg.ReplayFPS.Valid && cfg.ReplayFPS.Int64 > 0 {
		c.ReplayFPS = cfg.ReplayFPS
	}
	if cfg.Timeout.Valid && cfg.Timeout.Duration > 0 {
		c.Timeout = cfg.Timeout
	}
	if cfg.PollInterval.Valid && cfg.PollInterval.Duration > 0 {
		c.PollInterval = cfg.PollInterval
	}
	if cfg.ScriptTimeout.Valid && cfg.ScriptTimeout.Duration > 0 {
		c.ScriptTimeout = cfg.ScriptTimeout
	}
	if cfg.Headless.Valid {
		c.Headless = cfg.Headless
	}
	if cfg.Maximise.Valid {
		c.Maximise = cfg.Maximise
	}
	if cfg.Width.Valid && cfg.Width.Int64 > 0 {
		c.Width = cfg.Width
	}
	if cfg.Height.Valid && cfg.Height.Int64 > 0 {
		c.Height = cfg.Height
	}
	if cfg.BrowserBin.Valid {
		c.BrowserBin = cfg.BrowserBin
	}
	if cfg.GridURL.Valid {
		c.GridURL = cfg.GridURL
	}
	if cfg.ProfileDir.Valid {
		c.ProfileDir = cfg.ProfileDir
	}
	if cfg.LogLevel.Valid && cfg.LogLevel.String != "" {
		c.LogLevel = cfg.LogLevel
	}
	return c
}

// CaptureRequired reports whether screenshots should be taken and sent.
func (c Config) CaptureRequired() bool {
	return c.CaptureURL.String != "" || c.CaptureDir.String != ""
}

// FromEnv reads the PAGECAPTURE_* variables through lookupEnv.
func FromEnv(lookupEnv func(string) (string, bool)) (Config, error) {
	var envConfig Config
	if err := envconfig.Process("", &envConfig, lookupEnv); err != nil {
		return envConfig, fmt.Errorf("reading environment: %w", err)
	}
	return envConfig, nil
}

// Load merges defaults, an optional .env file and the process environment.
func Load(envFiles ...string) (Config, error) {
	// Missing .env files are not an error.
	_ = godotenv.Load(envFiles...)

	envConfig, err := FromEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return NewConfig().Apply(envConfig), nil
}
