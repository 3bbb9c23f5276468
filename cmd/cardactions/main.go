package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"

	"github.com/zeroinbox/cardactions/internal/catalog"
	"github.com/zeroinbox/cardactions/internal/config"
	"github.com/zeroinbox/cardactions/internal/db"
	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/internal/log"
	"github.com/zeroinbox/cardactions/internal/overrides"
	"github.com/zeroinbox/cardactions/internal/registry"
	"github.com/zeroinbox/cardactions/internal/router"
	"github.com/zeroinbox/cardactions/internal/session"
	"github.com/zeroinbox/cardactions/internal/telemetry"
	"github.com/zeroinbox/cardactions/pkg/models"
)

var (
	version     = "0.3.0"
	configPath  string
	dbPath      string
	catalogPath string
	cardsPath   string
	swapSpec    string
	initDB      bool
	resetDB     bool
	showVersion bool
)

func init() {
	flag.StringVar(&configPath, "config", config.GetConfigPath(), "Path to configuration file")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	flag.StringVar(&catalogPath, "catalog", "", "Path to catalog YAML (default: embedded)")
	flag.StringVar(&cardsPath, "cards", "", "Path to a YAML file of cards to act on")
	flag.StringVar(&swapSpec, "swap", "", "Record a persistent swap as cardID=actionID and exit")
	flag.BoolVar(&initDB, "init", false, "Create the override database and exit")
	flag.BoolVar(&resetDB, "reset", false, "Delete the override database and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("cardactions v%s\n", version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if catalogPath == "" {
		catalogPath = cfg.CatalogPath
	}

	if resetDB {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			stdlog.Fatalf("Reset failed: %v", err)
		}
		fmt.Println("Override database removed.")
		return
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		stdlog.Fatalf("Failed to create data directory: %v", err)
	}
	database, err := db.New(dbPath)
	if err != nil {
		stdlog.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	store := overrides.NewStore(database)

	if initDB {
		// db.New already ran the migration.
		fmt.Printf("Database ready at %s\n", dbPath)
		return
	}

	if swapSpec != "" {
		cardID, actionID, ok := splitSpec(swapSpec)
		if !ok {
			stdlog.Fatalf("Bad -swap value %q, want cardID=actionID", swapSpec)
		}
		if err := store.SetSwap(cardID, actionID); err != nil {
			stdlog.Fatalf("Failed to record swap: %v", err)
		}
		fmt.Printf("Swap recorded: %s -> %s\n", cardID, actionID)
		return
	}

	if cardsPath == "" {
		fmt.Println("Nothing to do. Pass -cards <file.yaml> or see -help.")
		return
	}

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		stdlog.Fatalf("Failed to load catalog: %v", err)
	}

	var emitter interfaces.Emitter = telemetry.Nop{}
	if cfg.TelemetryEnabled {
		rec := telemetry.NewRecorder(uuid.NewString(), 64,
			telemetry.FileSink{Path: cfg.TelemetryLogPath},
			telemetry.DBSink{DB: database})
		defer rec.Close()
		emitter = rec
	}

	rt := router.NewRouter(cat, demoRegistry(), emitter)
	rt.SetDismissDelay(cfg.DismissDelay())
	rt.SetDismissFunc(func(cardID string) {
		fmt.Printf("  [dismiss] link error on card %s cleared\n", cardID)
	})

	sess := session.New(store, rt, emitter)

	cards, err := loadCards(cardsPath)
	if err != nil {
		stdlog.Fatalf("Failed to load cards: %v", err)
	}

	ctx := context.Background()
	for i := range cards {
		card := &cards[i]
		fmt.Printf("\n%s (%s/%s) %q\n", card.ID, card.Category, card.Priority, card.Title)
		out, err := sess.Act(ctx, card)
		if errors.Is(err, session.ErrNoActions) {
			fmt.Println("  no suggested actions")
			continue
		}
		if err != nil {
			fmt.Printf("  error: %v\n", err)
			continue
		}
		printOutcome(out, card)
	}
}

func splitSpec(spec string) (cardID, actionID string, ok bool) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '=' {
			return spec[:i], spec[i+1:], i > 0 && i < len(spec)-1
		}
	}
	return "", "", false
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func loadCards(path string) ([]models.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cards file: %w", err)
	}
	var file struct {
		Cards []models.Card `yaml:"cards"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cards file: %w", err)
	}
	return file.Cards, nil
}

func printOutcome(out models.ExecutionOutcome, card *models.Card) {
	switch out.Type {
	case models.OutcomeOpenExternal:
		fmt.Printf("  open %s\n", out.URL)
	case models.OutcomeHandler:
		fmt.Printf("  handler %s finished: %s\n", out.Handler, out.Status)
	case models.OutcomeCompleted:
		fmt.Printf("  flow completed, end behavior: %s\n", out.End)
	case models.OutcomeAborted:
		fmt.Printf("  flow aborted: %s\n", out.Reason)
	case models.OutcomeLinkError:
		fmt.Printf("  link error: %s\n", out.Reason)
	case models.OutcomeFallback:
		fmt.Printf("  fallback composer opened (%s)\n", out.Reason)
	default:
		fmt.Printf("  outcome: %s\n", out.Type)
	}
	if card.Handled {
		fmt.Println("  card marked handled")
	}
}

// demoRegistry registers a printing stub for every handler category so the
// demo shows which handler each card routes to.
func demoRegistry() *registry.Registry {
	reg := registry.New()
	categories := []models.HandlerCategory{
		models.HandlerComposer,
		models.HandlerCalendar,
		models.HandlerDocuments,
		models.HandlerPayments,
		models.HandlerReminders,
		models.HandlerAttachments,
		models.HandlerTracking,
	}
	for _, cat := range categories {
		reg.Register(cat, printHandler{category: cat})
	}
	return reg
}

type printHandler struct {
	category models.HandlerCategory
}

func (h printHandler) Invoke(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error) {
	fmt.Printf("  [%s] card=%s context=%v\n", h.category, card.ID, extracted)
	// Simulate a quick surface transition.
	time.Sleep(10 * time.Millisecond)
	return models.HandlerOutcome{Status: models.HandlerSuccess, Additions: map[string]string{string(h.category) + "Done": "true"}}, nil
}
