package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ContextLines:       5,
		MaxFileSize:        1_000_000,
		MaxTokens:          4000,
		Temperature:        0.1,
		MaxWorkers:         5,
		MaxFileConcurrency: 3,
		AnalyzeTimeout:     2 * time.Minute,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "zero context lines is allowed",
			mutate:  func(c *Config) { c.ContextLines = 0 },
			wantErr: false,
		},
		{
			name:    "negative context lines",
			mutate:  func(c *Config) { c.ContextLines = -1 },
			wantErr: true,
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero max tokens",
			mutate:  func(c *Config) { c.MaxTokens = 0 },
			wantErr: true,
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Temperature = 2.5 },
			wantErr: true,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.MaxWorkers = 0 },
			wantErr: true,
		},
		{
			name:    "zero file concurrency",
			mutate:  func(c *Config) { c.MaxFileConcurrency = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
