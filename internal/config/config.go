package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yingtu35/link-integrity-crawler/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvBaseURL  = "BASE_URL"
	EnvMaxDepth = "MAX_DEPTH"
)

// Config captures everything needed for one crawl run.
type Config struct {
	BaseURL  string         `yaml:"base_url"`
	MaxDepth int            `yaml:"max_depth"`
	Workers  int            `yaml:"workers"`
	Renderer RendererConfig `yaml:"renderer"`
	Probe    ProbeConfig    `yaml:"probe"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// RendererConfig selects and tunes the page rendering engine.
type RendererConfig struct {
	Engine            string   `yaml:"engine"`
	NavigationTimeout Duration `yaml:"navigation_timeout"`
	Headless          bool     `yaml:"headless"`
	InstallBrowsers   bool     `yaml:"install_browsers"`
}

// ProbeConfig tunes the HEAD requests used to check links.
type ProbeConfig struct {
	Timeout   Duration `yaml:"timeout"`
	UserAgent string   `yaml:"user_agent"`
}

// OutputConfig controls how the report is written.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		BaseURL:  "http://localhost:8000/",
		MaxDepth: 5,
		Workers:  1,
		Renderer: RendererConfig{
			Engine:            "playwright",
			NavigationTimeout: DurationFrom(30 * time.Second),
			Headless:          true,
		},
		Probe: ProbeConfig{
			Timeout: DurationFrom(10 * time.Second),
		},
		Output: OutputConfig{
			Format: "table",
			Path:   "dead-links",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		c.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMaxDepth); ok && strings.TrimSpace(v) != "" {
		depth, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxDepth, err)
		}
		c.MaxDepth = depth
	}
	return nil
}

// ValidationError lists every invalid field of a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks the config before any resource is opened.
func (c Config) Validate() error {
	var problems []string

	if scheme, err := domain.GetProtocol(c.BaseURL); err != nil || (scheme != "http" && scheme != "https") {
		problems = append(problems, fmt.Sprintf("base_url %q must be an absolute http(s) URL", c.BaseURL))
	}
	if c.MaxDepth < 0 {
		problems = append(problems, "max_depth must not be negative")
	}
	if c.Workers < 1 {
		problems = append(problems, "workers must be at least 1")
	}
	switch c.Renderer.Engine {
	case "playwright", "static":
	default:
		problems = append(problems, fmt.Sprintf("renderer.engine %q must be playwright or static", c.Renderer.Engine))
	}
	if c.Renderer.NavigationTimeout.Duration <= 0 {
		problems = append(problems, "renderer.navigation_timeout must be positive")
	}
	if c.Probe.Timeout.Duration <= 0 {
		problems = append(problems, "probe.timeout must be positive")
	}
	switch c.Output.Format {
	case "table", "csv", "json":
	default:
		problems = append(problems, fmt.Sprintf("output.format %q must be table, csv or json", c.Output.Format))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
