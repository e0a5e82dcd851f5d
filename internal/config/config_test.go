package config

import (
	"bytes"
	"errors"
	"github.com/stretchr/testify/assert"
	"os"
	"testing"
)

func TestGet(t *testing.T) {
	prev, err := Get()
	if errors.Is(err, ErrNoConfig) {
		prev, err = Load() // seeds a default config when none exists yet
	}
	assert.NoErrorf(t, err, "loading current config: %v", err)
	t.Cleanup(func() {
		assert.NoErrorf(t, Save(prev), "restoring previous config")
	})

	// start from a clean slate
	f, err := getUserConfigFile()
	assert.NoErrorf(t, err, "opening user config file: %v", err)
	assert.NoError(t, f.Close())
	assert.NoErrorf(t, os.Remove(f.Name()), "removing user config file: %v", err)

	cfg := Config{
		Personal: PersonalConfig{
			Username: "TestUser",
		},
		Intake: IntakeConfig{
			MaxFiles:      3,
			MaxSizeBytes:  2048,
			AcceptedTypes: []string{".pdf", "image/*"},
		},
		Describe: DescribeConfig{
			Model:          "test-model",
			BaseURL:        "http://localhost:1234/v1",
			Prompt:         "test prompt",
			TimeoutSeconds: 10,
		},
	}
	assert.NoErrorf(t, Save(cfg), "saving config: %v", err)

	// Save caches what it wrote, Get must hand that back unchanged
	saved, err := Get()
	assert.NoErrorf(t, err, "reading config back: %v", err)
	assert.Exactly(t, cfg, saved, "Get must return the last saved config")
}

func TestReadWriteConfig(t *testing.T) {
	cfg := Config{
		Personal: PersonalConfig{Username: "RoundTrip"},
		Intake: IntakeConfig{
			MaxFiles:      7,
			MaxSizeBytes:  10 << 20,
			AcceptedTypes: []string{".txt"},
		},
		Describe: DescribeConfig{Model: "gpt-4o-mini", TimeoutSeconds: 60},
	}
	var buf bytes.Buffer
	assert.NoError(t, writeConfig(&buf, cfg), "failed to encode config")
	got, err := readConfig(&buf)
	assert.NoError(t, err, "failed to decode config")
	assert.Exactly(t, cfg, got, "config must survive an encode/decode round trip")
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := defaultConfig()
	assert.NoError(t, err, "failed to build default config")
	assert.Equal(t, 5, cfg.Intake.MaxFiles, "default staged file limit")
	assert.Equal(t, int64(10<<20), cfg.Intake.MaxSizeBytes, "default size limit")
	assert.Empty(t, cfg.Intake.AcceptedTypes, "default accepts every type")
	assert.NotEmpty(t, cfg.Personal.Username, "username defaults to the hostname")
	assert.NotEmpty(t, cfg.Describe.Model, "describe model must have a default")
}
