package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daylife/animation"
	"github.com/daylife/downloader"
	"github.com/daylife/models"
	"github.com/daylife/templates"
	"github.com/daylife/timeline"
)

// Options tune the dashboard.
type Options struct {
	Window   time.Duration
	Build    timeline.BuildOptions
	AssetDir string
}

// Server serves the dashboard. Datasets are shared across requests through
// the store; every websocket gets its own Session.
type Server struct {
	store      *models.DataStore
	downloader *downloader.Downloader
	assets     *animation.AssetTable
	hub        *Hub
	opts       Options
	upgrader   websocket.Upgrader
}

func NewServer(store *models.DataStore, dl *downloader.Downloader, assets *animation.AssetTable, opts Options) *Server {
	if assets == nil {
		assets = animation.DefaultAssetTable()
	}
	if opts.Window <= 0 {
		opts.Window = timeline.DefaultWindow
	}
	return &Server{
		store:      store,
		downloader: dl,
		assets:     assets,
		hub:        NewHub(),
		opts:       opts,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Routes returns the dashboard handler with request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/day", s.dayHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/frame", s.frameHandler)
	mux.HandleFunc("/api/hourly", s.hourlyHandler)
	mux.HandleFunc("/ws", s.wsHandler)

	fs := http.FileServer(http.Dir(s.opts.AssetDir))
	mux.Handle("/assets/", http.StripPrefix("/assets/", fs))
	static := http.FileServer(http.FS(templates.Static()))
	mux.Handle(templates.StaticPath, http.StripPrefix(templates.StaticPath, static))

	return loggingMiddleware(mux)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// DataChanged drops every cached dataset and asks open pages to reload.
func (s *Server) DataChanged(names []string) {
	s.store.InvalidateAll()
	s.hub.Broadcast("", encode(noticeMessage{
		Type:    "reload",
		Message: "Data updated: " + strings.Join(names, ", "),
	}))
}

// MissingAssets lists the animation files of the asset table that are not
// present under the asset directory.
func (s *Server) MissingAssets() []string {
	var missing []string
	for _, u := range s.assets.URLs() {
		rel, ok := strings.CutPrefix(u, "/assets/")
		if !ok {
			continue
		}
		path := filepath.Join(s.opts.AssetDir, filepath.FromSlash(rel))
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}
