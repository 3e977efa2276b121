package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/teaching-dashboard/internal/api/http"
	"github.com/mind-engage/teaching-dashboard/internal/config"
	"github.com/mind-engage/teaching-dashboard/internal/dashboard"
	"github.com/mind-engage/teaching-dashboard/internal/db"
	"github.com/mind-engage/teaching-dashboard/internal/source"
	"github.com/mind-engage/teaching-dashboard/internal/storage"
)

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	opts := []dashboard.Option{dashboard.WithLogger(logger)}
	var bs *storage.FSStore
	if cfg.SpreadsheetDir != "" {
		if bs, err = storage.NewFSStore(cfg.SpreadsheetDir); err != nil {
			logger.Printf("spreadsheets disabled: %v", err)
			bs = nil
		} else {
			opts = append(opts, dashboard.WithBlobStore(bs))
		}
	}

	svc := dashboard.New(source.NewSQLReader(dbh), cfg, opts...)
	sess, err := svc.NewSession()
	if err != nil {
		logger.Fatalf("session: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	api.MountDashboard(r, sess)
	if bs != nil {
		r.Route("/spreadsheets", func(sr chi.Router) {
			api.MountSpreadsheets(sr, bs)
		})
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Printf("%s dashboard listening on %s", svc.Sources().Label(), cfg.HTTPAddr)
	logger.Fatal(s.ListenAndServe())
}
