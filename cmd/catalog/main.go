package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/pkg/kit"
)

const initTimeout = 10 * time.Second

func main() {
	service := "catalog"
	log, err := kit.NewLogger(service, os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "4000")

	newID, err := catalog.NewIDGenerator(getenv("CATALOG_ID_SCHEME", catalog.IDSchemeNanoID))
	if err != nil {
		log.Fatal("init id generator failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend := getenv("CATALOG_BACKEND", "file")
	seed := catalog.DefaultSeed(newID)

	store, closeStore, err := openStore(backend, seed)
	if err != nil {
		log.Fatal("open store failed", zap.String("backend", backend), zap.Error(err))
	}
	defer closeStore()

	repo := catalog.NewRepository(catalog.Instrument(store, backend, catalog.NewStoreMetrics(reg)), newID)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	reseeded, err := repo.Init(ctx, seed)
	cancel()
	if err != nil {
		log.Fatal("init store failed", zap.String("backend", backend), zap.Error(err))
	}
	log.Info("store ready", zap.String("backend", backend), zap.Bool("reseeded", reseeded))

	s := &catalog.Server{Repo: repo, Log: log}
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:              log,
		Service:          service,
		Registry:         reg,
		MetricsEnabled:   getenvBool("METRICS_ENABLED", true),
		MetricsToken:     os.Getenv("METRICS_TOKEN"),
		CORSOrigins:      splitList(getenv("CORS_ORIGINS", "*")),
		WriteLimitPerMin: getenvInt("WRITE_RATE_LIMIT", 0),
	})

	if err := kit.RunHTTPServer(context.Background(), ":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(backend string, seed catalog.SeedFunc) (catalog.Store, func(), error) {
	switch backend {
	case "file":
		return catalog.NewFileStore(getenv("CATALOG_DATA_FILE", "data.json"), seed), func() {}, nil

	case "memory":
		return catalog.NewMemStore(seed), func() {}, nil

	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		db, err := catalog.OpenPostgres(dsn)
		if err != nil {
			return nil, nil, err
		}
		st := catalog.NewPostgresStore(db, seed)

		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		if err := st.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return st, closeDB(db), nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
