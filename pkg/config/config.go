package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Memory    MemoryConfig    `koanf:"memory"`
	Sandbox   SandboxConfig   `koanf:"sandbox"`
	Platform  PlatformConfig  `koanf:"platform"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // openai, ollama, mock
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

type MemoryConfig struct {
	// Semantic enables the vector-store backend for episodic recall.
	Semantic         bool   `koanf:"semantic"`
	QdrantAddr       string `koanf:"qdrant_addr"`
	Collection       string `koanf:"collection"`
	EmbedderBaseURL  string `koanf:"embedder_base_url"`
	EmbedderModel    string `koanf:"embedder_model"`
	ShortTermLimit   int    `koanf:"short_term_limit"`
	LongTermCapacity int    `koanf:"long_term_capacity"`
}

type SandboxConfig struct {
	TimeScale    float64 `koanf:"time_scale"`
	TickRate     int     `koanf:"tick_rate"` // simulation ticks per second
	MaxAgents    int     `koanf:"max_agents"`
	SnapshotPath string  `koanf:"snapshot_path"` // sqlite file for save states
}

type PlatformConfig struct {
	ListenAddr     string `koanf:"listen_addr"`
	StorePath      string `koanf:"store_path"` // sqlite file for registry/sessions
	MaxConnections int    `koanf:"max_connections"`
	ConnTimeoutSec int    `koanf:"conn_timeout_sec"`
	SweepIntervalSec int  `koanf:"sweep_interval_sec"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("llm.provider", "mock")
	k.Set("llm.model", "gpt-3.5-turbo")
	k.Set("llm.base_url", "http://localhost:11434")

	k.Set("memory.semantic", false)
	k.Set("memory.qdrant_addr", "localhost:6334")
	k.Set("memory.collection", "verai_memories")
	k.Set("memory.embedder_base_url", "http://localhost:11434")
	k.Set("memory.embedder_model", "nomic-embed-text")
	k.Set("memory.short_term_limit", 100)
	k.Set("memory.long_term_capacity", 1000)

	k.Set("sandbox.time_scale", 1.0)
	k.Set("sandbox.tick_rate", 60)
	k.Set("sandbox.max_agents", 256)
	k.Set("sandbox.snapshot_path", "verai-snapshots.db")

	k.Set("platform.listen_addr", ":8080")
	k.Set("platform.store_path", "verai-platform.db")
	k.Set("platform.max_connections", 1000)
	k.Set("platform.conn_timeout_sec", 30)
	k.Set("platform.sweep_interval_sec", 300)

	k.Set("telemetry.exporter", "none")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (VERAI_SANDBOX_TIME_SCALE -> sandbox.time_scale)
	if err := k.Load(env.Provider("VERAI_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "VERAI_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
