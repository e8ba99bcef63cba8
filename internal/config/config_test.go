package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Type: "sqlite", DSN: "./data/test.db"},
		Analysis: AnalysisConfig{
			CloneDir:                    "./data/clones",
			CloneTimeoutSeconds:         120,
			BranchResolveTimeoutSeconds: 30,
			CacheFreshnessHours:         48,
			LockStalenessMinutes:        10,
			InsertBatchSize:             100,
			TopClassCount:               10,
		},
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() on a valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unsupported database type", func(c *Config) { c.Database.Type = "oracle" }},
		{"zero clone timeout", func(c *Config) { c.Analysis.CloneTimeoutSeconds = 0 }},
		{"negative resolve timeout", func(c *Config) { c.Analysis.BranchResolveTimeoutSeconds = -1 }},
		{"zero batch size", func(c *Config) { c.Analysis.InsertBatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected an error, got nil")
			}
		})
	}
}

func TestValidateAcceptsAllDialects(t *testing.T) {
	for _, dbType := range []string{"sqlite", "postgres", "postgresql", "sqlserver", "mssql"} {
		cfg := validConfig()
		cfg.Database.Type = dbType
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() rejected database type %q: %v", dbType, err)
		}
	}
}

func TestDurationHelpers(t *testing.T) {
	a := AnalysisConfig{
		CloneTimeoutSeconds:         120,
		BranchResolveTimeoutSeconds: 30,
		CacheFreshnessHours:         48,
		LockStalenessMinutes:        10,
	}

	if got := a.CloneTimeout(); got != 120*time.Second {
		t.Errorf("CloneTimeout() = %v", got)
	}
	if got := a.BranchResolveTimeout(); got != 30*time.Second {
		t.Errorf("BranchResolveTimeout() = %v", got)
	}
	if got := a.CacheFreshness(); got != 48*time.Hour {
		t.Errorf("CacheFreshness() = %v", got)
	}
	if got := a.LockStaleness(); got != 10*time.Minute {
		t.Errorf("LockStaleness() = %v", got)
	}
}
