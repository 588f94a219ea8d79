package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Sandbox.TickRate != 60 {
		t.Fatalf("expected tick rate 60, got %d", cfg.Sandbox.TickRate)
	}
	if cfg.Platform.MaxConnections != 1000 {
		t.Fatalf("expected max connections 1000, got %d", cfg.Platform.MaxConnections)
	}
	if cfg.Memory.LongTermCapacity != 1000 {
		t.Fatalf("expected long term capacity 1000, got %d", cfg.Memory.LongTermCapacity)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verai.yaml")
	data := []byte("log:\n  level: debug\nsandbox:\n  max_agents: 12\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug, got %s", cfg.Log.Level)
	}
	if cfg.Sandbox.MaxAgents != 12 {
		t.Fatalf("expected 12 agents, got %d", cfg.Sandbox.MaxAgents)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("VERAI_LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected json from env, got %s", cfg.Log.Format)
	}
}
