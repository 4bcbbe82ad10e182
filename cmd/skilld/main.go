package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/emberfall/server/internal/config"
	"github.com/emberfall/server/internal/core/event"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/journal"
	"github.com/emberfall/server/internal/persist"
	"github.com/emberfall/server/internal/scripting"
	"github.com/emberfall/server/internal/system"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m         Emberfall skilld  v0.1.0          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("SKILLD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	charRepo := persist.NewCharacterRepo(db)

	// 4. Load data tables
	printSection("data")

	skillTable, err := data.LoadSkillTable(cfg.Game.SkillsPath)
	if err != nil {
		// A missing or malformed catalog degrades to an empty one: every
		// lookup misses, every use fails with TEMPLATE_NOT_FOUND.
		log.Warn("skill catalog unavailable, running with empty catalog",
			zap.String("path", cfg.Game.SkillsPath),
			zap.Error(err))
		skillTable = data.NewSkillTable()
	}
	printStat("skills", skillTable.Count())

	// 5. Lua scripting engine (optional damage overrides)
	luaEngine, err := scripting.NewEngine(cfg.Game.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripts loaded")
	fmt.Println()

	// 6. World state, event bus, systems
	worldState := world.NewState()
	ledger := world.NewEffectLedger()
	bus := event.NewBus()
	clock := world.WallClock{}

	journal.Attach(bus, log)

	deps := &system.Deps{
		Catalog:   skillTable,
		World:     worldState,
		Effects:   ledger,
		Scripting: luaEngine,
		Bus:       bus,
		Log:       log,
	}
	engine := system.NewSkillEngine(deps)
	gate := system.NewProgressionGate(skillTable, charRepo, bus, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewSkillSystem(deps, engine, clock))
	runner.Register(system.NewProgressionSystem(deps, gate))
	runner.Register(system.NewEffectSweepSystem(ledger, clock, log, cfg.Game.SweepIntervalTicks))
	persistSys := system.NewPersistSystem(worldState, charRepo, bus, log, cfg.Game.AutosaveTicks)
	runner.Register(persistSys)

	// 7. Game loop + signal watcher
	printSection("ready")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Game.TickRate))
	fmt.Println()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(loopCtx)

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Game.TickRate)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runner.Tick(cfg.Game.TickRate)
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		shutdownCh := make(chan os.Signal, 1)
		signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(shutdownCh)
		select {
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			stopLoop()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Final save before exit
	persistSys.SaveAll()
	log.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
