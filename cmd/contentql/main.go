package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	"github.com/hanpama/contentql/internal/config"
	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/contentrt"
	"github.com/hanpama/contentql/internal/eventbus"
	"github.com/hanpama/contentql/internal/introspection"
	"github.com/hanpama/contentql/internal/logging"
	"github.com/hanpama/contentql/internal/otel"
	"github.com/hanpama/contentql/internal/schema"
	"github.com/hanpama/contentql/internal/server"
	"github.com/hanpama/contentql/internal/store/memory"
	"github.com/hanpama/contentql/internal/store/sqlstore"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "contentql",
		Usage: "GraphQL API over a content store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file read before the environment",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP GraphQL server",
				Action: serve,
			},
			{
				Name:  "schema",
				Usage: "Print the loaded schema as SDL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "write to file instead of stdout"},
				},
				Action: printSchema,
			},
			{
				Name:   "check",
				Usage:  "Verify the schema declares every field of the content model",
				Action: check,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("env-file"))
}

func loadModel(cfg *config.Config) (*content.Model, error) {
	if cfg.Content.ModelPath == "" {
		return content.DefaultModel(), nil
	}
	return content.LoadModelFile(cfg.Content.ModelPath)
}

func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	if cfg.Content.SchemaPath == "" {
		return contentrt.LoadSchema()
	}
	b, err := os.ReadFile(cfg.Content.SchemaPath)
	if err != nil {
		return nil, errors.Wrap(err, "read schema")
	}
	return contentrt.LoadSchema(&ast.Source{Name: cfg.Content.SchemaPath, Input: string(b)})
}

// openBackend returns the configured store and a function releasing it.
func openBackend(cfg *config.Config, model *content.Model) (contentrt.Backend, func() error, error) {
	switch cfg.Store.Driver {
	case "postgres":
		store, err := sqlstore.Open(cfg.Postgres.DSN, model, sqlstore.Options{
			MaxOpenConns:    cfg.Postgres.MaxConn,
			MaxIdleConns:    cfg.Postgres.MaxIdleConn,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := store.AutoMigrate(); err != nil {
				_ = store.Close()
				return nil, nil, errors.Wrap(err, "migrate")
			}
		}
		return store, store.Close, nil
	default:
		store := memory.New(model)
		var err error
		if cfg.Store.SeedPath != "" {
			err = store.LoadSeedFile(cfg.Store.SeedPath)
		} else {
			err = store.LoadSeed(memory.DefaultSeed())
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "seed memory store")
		}
		return store, func() error { return nil }, nil
	}
}

func newRouter(graphql http.Handler, metricsPath string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle(metricsPath, promhttp.Handler())
	r.Handle("/graphql", graphql)
	return r
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	model, err := loadModel(cfg)
	if err != nil {
		return err
	}
	sch, err := loadSchema(cfg)
	if err != nil {
		return err
	}
	if problems := contentrt.Check(sch, model); len(problems) > 0 {
		for _, p := range problems {
			logger.Warn("schema does not match content model", zap.String("problem", p))
		}
	}

	backend, closeBackend, err := openBackend(cfg, model)
	if err != nil {
		return err
	}
	defer func() { _ = closeBackend() }()

	eventbus.Use(eventbus.New())
	shutdownTracing, err := otel.Setup(cfg.Tracing.Endpoint, cfg.Tracing.Service)
	if err != nil {
		return errors.Wrap(err, "otel setup")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	rt := introspection.Wrap(contentrt.New(backend, contentrt.Options{}), sch)
	opts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithLogger(logger),
	}
	if cfg.Server.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	h, err := server.New(rt, rt.Schema(), opts...)
	if err != nil {
		return errors.Wrap(err, "server init")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(h, cfg.Server.MetricsPath),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Store.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printSchema(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	sch, err := loadSchema(cfg)
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)
	if out := c.String("out"); out != "" {
		return os.WriteFile(out, []byte(sdl), 0o644)
	}
	_, err = fmt.Fprint(c.App.Writer, sdl)
	return err
}

func check(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	model, err := loadModel(cfg)
	if err != nil {
		return err
	}
	sch, err := loadSchema(cfg)
	if err != nil {
		return err
	}
	problems := contentrt.Check(sch, model)
	for _, p := range problems {
		fmt.Fprintln(c.App.Writer, p)
	}
	if len(problems) > 0 {
		return cli.Exit(fmt.Sprintf("%d problem(s) found", len(problems)), 1)
	}
	fmt.Fprintln(c.App.Writer, "ok")
	return nil
}
