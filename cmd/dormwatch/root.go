package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jgoulah/dormwatch/internal/config"
	"github.com/jgoulah/dormwatch/internal/database"
	"github.com/jgoulah/dormwatch/internal/logging"
	"github.com/jgoulah/dormwatch/internal/metrics"
	"github.com/jgoulah/dormwatch/internal/monitor"
	"github.com/jgoulah/dormwatch/internal/notifier"
	"github.com/jgoulah/dormwatch/internal/scraper"
	"github.com/jgoulah/dormwatch/pkg/models"
)

var (
	cfgFile   string
	dbPath    string
	roomsFile string
)

var rootCmd = &cobra.Command{
	Use:   "dormwatch",
	Short: "Watch dormitory electricity balances and alert when they run low",
	Long: `dormwatch checks the campus utility billing page for each configured dormitory room
once a day, and sends a notification through ServerChan, a custom webhook or MQTT when
a room's remaining power drops below its threshold.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database file (default is database.path or ./data.db)")
	rootCmd.PersistentFlags().StringVar(&roomsFile, "rooms", "", "room catalog CSV (default is monitor.rooms_file)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path
func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path
	}
	return "data.db"
}

// loadConfig loads and validates the configuration file
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadRooms resolves the configured rooms against the catalog
func loadRooms(cfg *config.Config) ([]models.Room, error) {
	path := roomsFile
	if path == "" {
		path = cfg.Monitor.RoomsFile
	}
	catalog, err := config.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("loading room catalog: %w", err)
	}
	return cfg.Rooms(catalog), nil
}

// openDB opens the database connection
func openDB(cfg *config.Config) (*database.DB, error) {
	path := getDBPath(cfg)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// app holds everything a monitoring run needs
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	closeLog  func()
	rooms     []models.Room
	reader    scraper.Reader
	notifiers []notifier.Notifier
	tracker   *monitor.Tracker
	evaluator *monitor.Evaluator
	cycle     *monitor.Cycle
	scheduler *monitor.Scheduler
	metrics   *metrics.Metrics
	db        *database.DB
}

// newApp wires config, reader, notifiers and the monitor together
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.Monitor.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	rooms, err := loadRooms(cfg)
	if err != nil {
		closeLog()
		return nil, err
	}

	reader, err := scraper.New(cfg)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("creating power reader: %w", err)
	}

	notifiers, err := notifier.FromConfig(cfg, logger)
	if err != nil {
		closeLog()
		return nil, err
	}
	if len(notifiers) == 0 {
		logger.Warn("no notification channel enabled, low power will only be logged")
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		closeLog:  closeLog,
		rooms:     rooms,
		reader:    reader,
		notifiers: notifiers,
		tracker:   monitor.NewTracker(logger),
	}

	a.evaluator = monitor.NewEvaluator(reader, notifiers, a.tracker, monitor.EvaluatorConfig{
		DefaultThreshold: cfg.GetGlobalThreshold(),
		Cooldown:         cfg.GetCooldown(),
	}, logger)
	a.cycle = monitor.NewCycle(a.evaluator, cfg.GetRequestInterval(), logger)

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
		a.evaluator.SetObserver(a.metrics)
		a.cycle.SetObserver(a.metrics)
	}

	if cfg.Database.Enabled {
		db, err := openDB(cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.db = db
		a.cycle.SetRecorder(db)
	}

	// Config was validated, so the clock parses
	hour, minute, _ := config.ParseClock(cfg.GetScheduleTime())
	a.scheduler = monitor.NewScheduler(a.cycle, rooms, monitor.SchedulerConfig{
		Hour:         hour,
		Minute:       minute,
		PollInterval: cfg.GetPollInterval(),
		StopTimeout:  cfg.GetStopTimeout(),
	}, logger)

	logger.Info("dormwatch initialized",
		zap.Int("rooms", len(rooms)),
		zap.String("reader", cfg.GetReaderMode()),
		zap.Float64("global_threshold", cfg.GetGlobalThreshold()),
		zap.Duration("cooldown", cfg.GetCooldown()),
	)

	return a, nil
}

// Close releases connections and timers
func (a *app) Close() {
	a.tracker.Close()
	notifier.CloseAll(a.notifiers)
	if a.db != nil {
		a.db.Close()
	}
	a.closeLog()
}
