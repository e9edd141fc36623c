package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/shortsfinder/internal/config"
	"github.com/forPelevin/shortsfinder/internal/domain/highlights"
	"github.com/forPelevin/shortsfinder/internal/httpapi"
	"github.com/forPelevin/shortsfinder/internal/ports"
	"github.com/forPelevin/shortsfinder/internal/ports/adapters/jsonfile"
	"github.com/forPelevin/shortsfinder/internal/ports/adapters/memcache"
	"github.com/forPelevin/shortsfinder/internal/ports/adapters/mongodb"
	"github.com/forPelevin/shortsfinder/internal/ports/adapters/postgres"
	"github.com/forPelevin/shortsfinder/internal/usecase"
)

const (
	SourceJSON     = "json"
	SourceMongo    = "mongo"
	SourcePostgres = "postgres"

	connectTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Config is the resolved runtime configuration.
type Config struct {
	config.Root
}

func (c Config) Validate() error {
	switch c.Source.Kind {
	case SourceJSON:
		if c.Source.Path == "" {
			return errors.New("source path is required for json source")
		}
	case SourceMongo:
		if c.Source.MongoURI == "" {
			return errors.New("mongo URI is required for mongo source")
		}
		if c.Source.MongoDatabase == "" || c.Source.MongoCollection == "" {
			return errors.New("mongo database and collection are required")
		}
	case SourcePostgres:
		if c.Source.PostgresDSN == "" {
			return errors.New("postgres DSN is required for postgres source")
		}
	default:
		return fmt.Errorf("unknown source %q (want json, mongo or postgres)", c.Source.Kind)
	}
	e := c.Engine
	if e.HardMaxDuration <= 0 {
		return fmt.Errorf("hard max duration must be > 0")
	}
	if e.ExpandSlack < 0 {
		return fmt.Errorf("expand slack must be >= 0")
	}
	if e.OverlapThreshold <= 0 || e.OverlapThreshold > 1 {
		return fmt.Errorf("overlap threshold must be in (0, 1]")
	}
	if e.MaxKept <= 0 {
		return fmt.Errorf("max kept must be > 0")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// Tuning maps engine config onto engine options.
func (c Config) Tuning() highlights.Options {
	o := highlights.DefaultOptions()
	o.HardMaxDuration = c.Engine.HardMaxDuration
	o.ExpandSlack = c.Engine.ExpandSlack
	o.OverlapThreshold = c.Engine.OverlapThreshold
	o.MaxKept = c.Engine.MaxKept
	return o
}

// NewLogger builds the process logger from the log section.
func NewLogger(c Config) *logrus.Logger {
	l := logrus.New()
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// App is a loaded, ready to serve instance.
type App struct {
	Usecase usecase.Usecase
	History httpapi.HistorySource
	closers []func(context.Context) error
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c(ctx))
	}
	return errors.Join(errs...)
}

// Open loads the vocabulary and every episode from the configured source.
// Any failure here is fatal for the caller.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (*App, error) {
	vocab, err := config.LoadVocabulary(cfg.Engine.VocabularyPath)
	if err != nil {
		return nil, err
	}
	ex, err := highlights.NewExtractor(vocab)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}

	app := &App{}
	src, err := openSource(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	loadCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	eps, err := src.Episodes(loadCtx)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("load transcripts: %w", err)
	}

	app.Usecase = usecase.New(usecase.Deps{
		Episodes: eps,
		Source:   src,
		Engine:   highlights.NewEngine(ex),
		Tuning:   cfg.Tuning(),
		Cache:    memcache.New(cfg.Cache.MaxEntries),
		Log:      log,
	})
	log.WithFields(logrus.Fields{
		"source":   cfg.Source.Kind,
		"episodes": len(eps),
		"segments": app.Usecase.TotalSegments(),
	}).Info("transcripts loaded")
	return app, nil
}

func openSource(ctx context.Context, cfg Config, app *App) (ports.TranscriptSource, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Source.Kind {
	case SourceMongo:
		a, err := mongodb.New(cctx, mongodb.Config{
			URI:        cfg.Source.MongoURI,
			Database:   cfg.Source.MongoDatabase,
			Collection: cfg.Source.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, a.Close)
		return a, nil
	case SourcePostgres:
		a, err := postgres.New(cctx, postgres.Config{DSN: cfg.Source.PostgresDSN, MaxOpenConns: 4})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return a.Close() })
		return a, nil
	default:
		a := jsonfile.New(cfg.Source.Path, cfg.Source.HistoricalPath)
		app.History = a
		return a, nil
	}
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg Config, log logrus.FieldLogger) error {
	app, err := Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.WithError(err).Warn("close source")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.New(app.Usecase, app.History, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("server running")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
