package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
	Book struct {
		Tickers []string `yaml:"tickers"`
	} `yaml:"book"`
	Feed struct {
		Workers        int           `yaml:"workers"`
		Orders         int           `yaml:"orders"`
		MinPrice       float64       `yaml:"min_price"`
		MaxPrice       float64       `yaml:"max_price"`
		MaxSize        int64         `yaml:"max_size"`
		Seed           int64         `yaml:"seed"`
		ReportInterval time.Duration `yaml:"report_interval"`
	} `yaml:"feed"`
}

func Default() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Metrics.Enabled = false
	c.Metrics.Addr = ":9102"
	c.Book.Tickers = []string{"AAPL", "NVDA"}
	c.Feed.Workers = 4
	c.Feed.Orders = 10_000
	c.Feed.MinPrice = 90.0
	c.Feed.MaxPrice = 110.0
	c.Feed.MaxSize = 100
	c.Feed.Seed = 1
	c.Feed.ReportInterval = time.Second
	return c
}

// Load builds the configuration. Priority: process env > .env file > YAML file >
// defaults, since .env entries become LADDER_* env vars without replacing ones
// already set. Both paths are optional; a missing .env file is ignored, a
// missing YAML file is not.
func Load(path, envFile string) (Config, error) {
	c := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("unable to load env file %s: %w", envFile, err)
		}
	}

	if path == "" {
		path = os.Getenv("LADDER_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("unable to read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("unable to parse config %s: %w", path, err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LADDER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LADDER_LOG_PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LADDER_LOG_PRETTY: %w", err)
		}
		c.Logging.Pretty = b
	}
	if v := os.Getenv("LADDER_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LADDER_METRICS_ENABLED: %w", err)
		}
		c.Metrics.Enabled = b
	}
	if v := os.Getenv("LADDER_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("LADDER_TICKERS"); v != "" {
		c.Book.Tickers = nil
		for _, ticker := range strings.Split(v, ",") {
			if ticker = strings.TrimSpace(ticker); ticker != "" {
				c.Book.Tickers = append(c.Book.Tickers, ticker)
			}
		}
	}
	if v := os.Getenv("LADDER_FEED_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LADDER_FEED_WORKERS: %w", err)
		}
		c.Feed.Workers = n
	}
	if v := os.Getenv("LADDER_FEED_ORDERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LADDER_FEED_ORDERS: %w", err)
		}
		c.Feed.Orders = n
	}
	return nil
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	switch {
	case len(c.Book.Tickers) == 0:
		return errors.New("config: at least one ticker is required")
	case c.Feed.Workers < 0 || c.Feed.Orders < 0:
		return errors.New("config: feed workers and orders must not be negative")
	case c.Feed.MinPrice <= 0 || c.Feed.MaxPrice < c.Feed.MinPrice:
		return fmt.Errorf("config: bad feed price range [%v, %v]", c.Feed.MinPrice, c.Feed.MaxPrice)
	case c.Feed.MaxSize <= 0:
		return errors.New("config: feed max_size must be positive")
	case c.Feed.ReportInterval <= 0:
		return errors.New("config: feed report_interval must be positive")
	}
	return nil
}
