package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gomesfin/puncta/internal/config"
	"github.com/gomesfin/puncta/internal/particle/store"
	"github.com/gomesfin/puncta/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "puncta.db", "SQLite database file for detection runs")
	configPath = flag.String("config", "", "Tuning config JSON (defaults to the built-in config/tuning.defaults.json)")
	imageDir   = flag.String("image-dir", "", "Override the directory API image paths are resolved under")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	var cfg *config.TuningConfig
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	} else {
		cfg = config.MustLoadDefaultConfig()
	}
	if *imageDir != "" {
		cfg.ImageDir = imageDir
	}

	db, err := store.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open runs database: %v", err)
	}
	defer db.Close()

	mux, err := newRouter(db, cfg)
	if err != nil {
		log.Fatalf("Failed to assemble routes: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("puncta %s listening on %s", version.Version, *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
