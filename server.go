package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gomesfin/puncta/internal/api"
	"github.com/gomesfin/puncta/internal/config"
	"github.com/gomesfin/puncta/internal/particle/store"
	"github.com/gomesfin/puncta/internal/version"
)

// newRouter assembles the full route table: the detection API under
// /api/, the admin debugging routes (accessible only over Tailscale or
// loopback, per tsweb), and a plain-text index.
func newRouter(db *store.Store, cfg *config.TuningConfig) (http.Handler, error) {
	mux := http.NewServeMux()

	if err := db.AttachAdminRoutes(mux); err != nil {
		return nil, fmt.Errorf("attach admin routes: %w", err)
	}

	apiMux := api.NewServer(db, cfg).ServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiMux))

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "puncta %s: particle detection service\nAPI under /api/\n", version.Version)
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("got request %q", r.URL.Path)
		mux.ServeHTTP(w, r)
	})
	return h, nil
}
