package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/verai-labs/verai/pkg/config"
	"github.com/verai-labs/verai/pkg/factory"
	"github.com/verai-labs/verai/pkg/llm"
	"github.com/verai-labs/verai/pkg/mcp"
	"github.com/verai-labs/verai/pkg/memory"
	"github.com/verai-labs/verai/pkg/memory/ollama"
	"github.com/verai-labs/verai/pkg/memory/qdrant"
	"github.com/verai-labs/verai/pkg/platform"
	"github.com/verai-labs/verai/pkg/sandbox"
	"github.com/verai-labs/verai/pkg/telemetry"
	"github.com/verai-labs/verai/pkg/world"

	_ "modernc.org/sqlite"
)

type service struct {
	cfg      *config.Config
	logger   *slog.Logger
	platform *platform.Platform
	close    func()
}

func buildProvider(cfg *config.Config) llm.Provider {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.BaseURL != "" {
			return llm.NewOpenAICompatible(cfg.LLM.APIKey, cfg.LLM.BaseURL)
		}
		return llm.NewOpenAI(cfg.LLM.APIKey)
	case "ollama":
		return llm.NewOllama(cfg.LLM.BaseURL)
	default:
		return &llm.MockProvider{Response: "..."}
	}
}

// buildMemoryOptions translates memory config into system options. When
// semantic recall is enabled it connects Qdrant and the Ollama embedder
// and prepares the collection; the returned cleanup closes the connection.
func buildMemoryOptions(cfg *config.Config, logger *slog.Logger) ([]memory.SystemOption, func(), error) {
	opts := []memory.SystemOption{
		memory.WithShortTermLimit(cfg.Memory.ShortTermLimit),
		memory.WithLongTermCapacity(cfg.Memory.LongTermCapacity),
	}
	if !cfg.Memory.Semantic {
		return opts, func() {}, nil
	}

	store, err := qdrant.New(cfg.Memory.QdrantAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect qdrant: %w", err)
	}
	embedder := ollama.NewEmbedder(cfg.Memory.EmbedderBaseURL, cfg.Memory.EmbedderModel)

	index := memory.NewSemanticIndex(store, embedder, cfg.Memory.Collection)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := index.Initialize(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("init semantic index: %w", err)
	}
	logger.Info("memory.semantic.ready",
		slog.String("qdrant", cfg.Memory.QdrantAddr),
		slog.String("collection", cfg.Memory.Collection))

	opts = append(opts, memory.WithSemanticIndex(index))
	return opts, func() { store.Close() }, nil
}

// buildService wires config into a platform ready to start. persistent
// selects whether SQLite files back snapshots and the registry; the demo
// and mcp commands run fully in memory.
func buildService(flags globalFlags, persistent bool) (*service, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	metrics, err := telemetry.NewSimMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	sim := sandbox.NewSimulation(
		sandbox.WithTimeScale(cfg.Sandbox.TimeScale),
		sandbox.WithMetrics(metrics),
		sandbox.WithLogger(logger),
	)

	var (
		snapStore sandbox.SnapshotStore
		dbs       []*sql.DB
	)
	if persistent {
		db, err := sql.Open("sqlite", cfg.Sandbox.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("open snapshot db: %w", err)
		}
		dbs = append(dbs, db)
		snapStore, err = sandbox.NewSQLiteSnapshotStore(db)
		if err != nil {
			return nil, err
		}
	} else {
		snapStore = sandbox.NewMemorySnapshotStore()
	}

	ctl, err := sandbox.NewController(sim, snapStore)
	if err != nil {
		return nil, err
	}

	memOpts, memClose, err := buildMemoryOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	f := factory.New(
		factory.WithEmitter(sim),
		factory.WithProvider(buildProvider(cfg), cfg.LLM.Model),
		factory.WithMemorySystems(memOpts...),
		factory.WithMetrics(metrics),
	)

	opts := []platform.Option{
		platform.WithLogger(logger),
		platform.WithRegistry(platform.NewRegistry(
			platform.WithMaxConnections(cfg.Platform.MaxConnections),
			platform.WithConnectionTimeout(time.Duration(cfg.Platform.ConnTimeoutSec)*time.Second),
			platform.WithRegistryLogger(logger),
		)),
		platform.WithSweepInterval(time.Duration(cfg.Platform.SweepIntervalSec) * time.Second),
	}
	if persistent {
		db, err := sql.Open("sqlite", cfg.Platform.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open platform db: %w", err)
		}
		dbs = append(dbs, db)
		store, err := platform.NewStore(db)
		if err != nil {
			return nil, err
		}
		opts = append(opts, platform.WithStore(store))
	}

	p, err := platform.New(f, ctl, opts...)
	if err != nil {
		return nil, err
	}

	return &service{
		cfg:      cfg,
		logger:   logger,
		platform: p,
		close: func() {
			memClose()
			for _, db := range dbs {
				db.Close()
			}
		},
	}, nil
}

func runServe(ctx context.Context, flags globalFlags, args []string) {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	noTelemetry := cmd.Bool("no-telemetry", false, "Disable telemetry export")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	svc, err := buildService(flags, true)
	if err != nil {
		fatal(err)
	}
	defer svc.close()

	if !*noTelemetry && svc.cfg.Telemetry.Exporter != "none" {
		shutdown, err := telemetry.InitWithConfig("verai", version, telemetry.Config{
			Exporter:     svc.cfg.Telemetry.Exporter,
			OTLPEndpoint: svc.cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: svc.cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			fatal(err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				svc.logger.Warn("telemetry.shutdown", slog.String("error", err.Error()))
			}
		}()
	}

	if err := svc.platform.Start(ctx); err != nil {
		fatal(err)
	}
	defer svc.platform.Shutdown(context.Background())

	server := &http.Server{
		Addr:              svc.cfg.Platform.ListenAddr,
		Handler:           platform.NewServer(svc.platform),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go tickLoop(ctx, svc)

	errCh := make(chan error, 1)
	go func() {
		svc.logger.Info("serve.listen", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			svc.logger.Warn("serve.shutdown", slog.String("error", err.Error()))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(err)
		}
	}
}

// tickLoop advances the simulation at the configured tick rate while it is
// running. Pausing stops time without stopping the loop.
func tickLoop(ctx context.Context, svc *service) {
	rate := svc.cfg.Sandbox.TickRate
	if rate <= 0 {
		rate = 60
	}
	interval := time.Second / time.Duration(rate)
	delta := interval.Seconds()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	sim := svc.platform.Controller().Simulation()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sim.State() != sandbox.StateRunning {
				continue
			}
			if err := sim.Step(ctx, delta); err != nil {
				svc.logger.Error("serve.tick", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func runMCP(ctx context.Context, flags globalFlags, args []string) {
	ensureNoArgs(args)

	svc, err := buildService(flags, false)
	if err != nil {
		fatal(err)
	}
	defer svc.close()

	if err := svc.platform.Start(ctx); err != nil {
		fatal(err)
	}
	defer svc.platform.Shutdown(context.Background())

	server, err := mcp.New(svc.platform)
	if err != nil {
		fatal(err)
	}
	if err := server.Serve(); err != nil {
		fatal(err)
	}
}

func runDemo(ctx context.Context, flags globalFlags, args []string) {
	cmd := flag.NewFlagSet("demo", flag.ContinueOnError)
	agents := cmd.Int("agents", 4, "Number of agents to spawn")
	seconds := cmd.Float64("seconds", 10, "Simulated seconds to run")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	svc, err := buildService(flags, false)
	if err != nil {
		fatal(err)
	}
	defer svc.close()

	if err := svc.platform.Start(ctx); err != nil {
		fatal(err)
	}
	defer svc.platform.Shutdown(context.Background())

	templates := []string{"warrior", "merchant", "scholar", "guardian"}
	for i := 0; i < *agents; i++ {
		template := templates[i%len(templates)]
		name := fmt.Sprintf("%s-%d", template, i+1)
		pos := world.Vec3{X: float64(i * 3), Y: 0.5}
		if _, err := svc.platform.RegisterAgent(ctx, template, name, pos); err != nil {
			fatal(err)
		}
	}

	if _, err := svc.platform.Control(ctx, sandbox.CommandStart, ""); err != nil {
		fatal(err)
	}
	sim := svc.platform.Controller().Simulation()
	const delta = 0.1
	for elapsed := 0.0; elapsed < *seconds; elapsed += delta {
		if err := sim.Step(ctx, delta); err != nil {
			fatal(err)
		}
	}

	if flags.JSON {
		printJSON(map[string]any{
			"stats":  sim.Stats(),
			"events": sim.Events(50),
		})
		return
	}

	stats := sim.Stats()
	fmt.Printf("ran %.1fs of simulation with %d agents\n", stats.SimulationTime, stats.ActiveAgents)
	fmt.Printf("interactions=%d combat=%d social=%d environmental=%d\n",
		stats.TotalInteractions, stats.CombatEvents, stats.SocialEvents, stats.EnvironmentalChanges)
	for _, event := range sim.Events(20) {
		fmt.Printf("  %s  %-24s %s -> %s\n",
			event.Timestamp.Format("15:04:05.000"), event.Type, event.Actor, event.Target)
	}
}

func runTemplates(flags globalFlags) {
	f := factory.New()
	names := f.Templates()
	sort.Strings(names)

	if flags.JSON {
		printJSON(names)
		return
	}
	for _, name := range names {
		t, err := f.Template(name)
		if err != nil {
			continue
		}
		fmt.Printf("%-10s health=%.0f energy=%.0f skills=%v\n",
			name, t.Stats.Health, t.Stats.Energy, t.Skills)
	}
}
