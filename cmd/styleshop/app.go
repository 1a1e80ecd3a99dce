package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"styleshop/internal/cli"
	"styleshop/internal/config"
	"styleshop/internal/embedding"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
	"styleshop/internal/services"
)

// app holds what every subcommand needs: config, a session logger and an
// open, migrated store.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *repos.DB
	logFile *os.File
}

// setup loads config and opens the store. Interactive sessions log to the
// file only so records do not interleave with the prompt.
func setup(ctx context.Context, interactive bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	var w io.Writer = os.Stderr
	if interactive {
		w = io.Discard
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v\n", cfg.LogFile, err)
		} else {
			a.logFile = f
			w = io.MultiWriter(w, f)
		}
	}
	a.logger = applog.New(cfg.LogLevel, w).With(slog.String("session_id", uuid.NewString()))

	db, err := repos.OpenDB(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	applog.Info(ctx, a.logger, "store.open", slog.String("driver", cfg.DB.Driver))
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// encoder builds the style query encoder named by the config.
func (a *app) encoder() embedding.Encoder {
	if a.cfg.Embedding.Provider != config.EmbedOllama {
		return embedding.Disabled()
	}
	return embedding.Prompted{
		Encoder:  embedding.NewOllamaEncoder(a.cfg.Embedding.BaseURL, a.cfg.Embedding.Model),
		Template: a.cfg.Embedding.Prompt,
	}
}

// index loads the style index. A missing or broken file leaves style
// search unavailable and everything else working.
func (a *app) index(ctx context.Context) *embedding.Index {
	idx, err := embedding.LoadFile(a.cfg.IndexFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		a.logger.WarnContext(ctx, "style index not found, style search disabled", slog.String("path", a.cfg.IndexFile))
		return nil
	case err != nil:
		applog.Error(ctx, a.logger, "index.load", err, slog.String("path", a.cfg.IndexFile))
		return nil
	}
	applog.Info(ctx, a.logger, "index.load", slog.Int("entries", idx.Len()), slog.Int("dim", idx.Dim()))
	return idx
}

func (a *app) searchService(ctx context.Context) *services.SearchService {
	svc := services.NewSearchService(a.db, a.index(ctx), a.encoder(), a.logger)
	svc.MaxTopK = a.cfg.MaxTopK
	return svc
}

func (a *app) services(ctx context.Context) cli.Services {
	return cli.Services{
		Auth:     services.NewAuthService(a.db, a.logger),
		Account:  services.NewAccountService(a.db, a.logger),
		Seller:   services.NewSellerService(a.db, a.logger),
		Catalog:  services.NewCatalogService(a.db),
		Purchase: services.NewPurchaseService(a.db, a.logger),
		Search:   a.searchService(ctx),
	}
}
