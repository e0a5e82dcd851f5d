package config

import (
	"errors"
	"fmt"
	"github.com/BurntSushi/toml"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	// MaxStagedFiles caps the max_files a user may set through preferences.
	MaxStagedFiles = 50
	appConfDir     = ".letdrop"
	appConfFile    = "config.toml"
)

var ErrNoConfig = errors.New("no config loaded yet")

type PersonalConfig struct {
	Username string `toml:"username"`
}

type IntakeConfig struct {
	MaxFiles      int      `toml:"max_files"`
	MaxSizeBytes  int64    `toml:"max_size_bytes"`
	AcceptedTypes []string `toml:"accepted_types"`
}

type DescribeConfig struct {
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	Prompt         string `toml:"prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LowDetail      bool   `toml:"low_detail"`
}

type Config struct {
	Personal PersonalConfig `toml:"personal"`
	Intake   IntakeConfig   `toml:"intake"`
	Describe DescribeConfig `toml:"describe"`
}

var (
	mu     sync.Mutex
	cached *Config
)

// Get hands out the config most recently loaded or saved by this
// process, before any Load or Save it returns ErrNoConfig.
func Get() (Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if cached == nil {
		return Config{}, ErrNoConfig
	}
	return *cached, nil
}

// Load reads the user's config file, seeding it with defaults when
// none exists yet.
func Load() (Config, error) {
	f, err := getUserConfigFile()
	if errors.Is(err, os.ErrNotExist) {
		return seedConfigFile()
	}
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := readConfig(f)
	if err != nil {
		return Config{}, err
	}
	cache(cfg)
	return cfg, nil
}

// Save writes c to the user's config file and makes it the config Get
// returns from now on.
func Save(c Config) error {
	f, err := createConfigFile()
	if err != nil {
		return err
	}
	defer f.Close()
	if err = writeConfig(f, c); err != nil {
		return err
	}
	cache(c)
	return nil
}

func cache(c Config) {
	mu.Lock()
	defer mu.Unlock()
	cached = &c
}

// seedConfigFile writes a fresh config file carrying the default
// values and returns those defaults.
func seedConfigFile() (Config, error) {
	f, err := createConfigFile()
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := defaultConfig()
	if err != nil {
		return Config{}, err
	}
	if err = writeConfig(f, cfg); err != nil {
		return Config{}, err
	}
	cache(cfg)
	return cfg, nil
}

func defaultConfig() (Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Config{}, fmt.Errorf("hostname lookup: %w", err)
	}
	return Config{
		Personal: PersonalConfig{Username: hostname},
		Intake: IntakeConfig{
			MaxFiles:      5,
			MaxSizeBytes:  10 << 20,
			AcceptedTypes: []string{},
		},
		Describe: DescribeConfig{
			Model:          "gpt-4o-mini",
			Prompt:         "Describe this image in a single short paragraph.",
			TimeoutSeconds: 60,
		},
	}, nil
}

func configFilePath() (string, error) {
	dir, err := GetDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appConfFile), nil
}

func getUserConfigFile() (*os.File, error) {
	p, err := configFilePath()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening the config file: %w", err)
	}
	return f, nil
}

func createConfigFile() (*os.File, error) {
	p, err := configFilePath()
	if err != nil {
		return nil, err
	}
	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("creating the config file: %w", err)
	}
	return f, nil
}

func readConfig(r io.Reader) (Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func writeConfig(w io.Writer, c Config) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
