package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/healthcache/internal/codec"
	"github.com/hyperengineering/healthcache/internal/config"
	"github.com/hyperengineering/healthcache/internal/query"
	"github.com/hyperengineering/healthcache/internal/registry"
	"github.com/hyperengineering/healthcache/internal/source"
	"github.com/hyperengineering/healthcache/internal/store"
	"github.com/hyperengineering/healthcache/internal/syncer"
)

// app holds the components shared by serve and the local commands.
type app struct {
	cfg    *config.Config
	reg    *registry.Registry
	store  *store.SQLiteStore
	engine *syncer.Engine
	query  *query.Service
}

func openApp(cfg *config.Config) (*app, error) {
	src, err := newSource(cfg.Source)
	if err != nil {
		return nil, err
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path, store.WithSnapshotDir(cfg.Database.SnapshotDir))
	if err != nil {
		return nil, err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	reg := registry.Default()
	c := codec.New(reg)
	return &app{
		cfg:   cfg,
		reg:   reg,
		store: db,
		engine: syncer.New(db, src, c, syncer.Config{
			Origin:              cfg.Source.Origin,
			BackfillConcurrency: cfg.Sync.BackfillConcurrency,
		}),
		query: query.NewService(db, c),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func newSource(cfg config.SourceConfig) (source.Source, error) {
	switch cfg.Type {
	case config.SourceMemory:
		src, err := source.LoadMemorySource(cfg.SeedPath, cfg.PageSize)
		if err != nil {
			return nil, err
		}
		slog.Info("source initialized", "type", cfg.Type, "seed", cfg.SeedPath)
		return src, nil
	case config.SourceHTTP:
		src, err := source.NewHTTPSource(source.HTTPConfig{
			BaseURL:           cfg.BaseURL,
			Token:             cfg.Token,
			Timeout:           time.Duration(cfg.Timeout),
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("source initialized", "type", cfg.Type, "base_url", cfg.BaseURL)
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads configuration and installs the configured logger. Local
// commands log to stderr so their stdout stays clean.
func loadConfig(logTo io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Log, logTo))
	slog.Info("configuration loaded")
	return cfg, nil
}

// printJSON marshals v to indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
