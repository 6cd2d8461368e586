package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cli/browser"
	"github.com/spf13/cobra"

	"github.com/daylife/config"
	"github.com/daylife/server"
	"github.com/daylife/watcher"
)

func newServeCmd() *cobra.Command {
	var (
		port      string
		source    string
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard",
		Long: `Start the dashboard HTTP server.

Endpoints:
  GET /                 Participant roster (age_min, age_max, hr_min, hr_max)
  GET /day?user=        Scroll-driven day page
  GET /api/frame?user=  Frame for a scroll position as JSON
  GET /api/hourly?user=&metric=  Hourly chart
  GET /ws?user=         Viewer session websocket
  GET /health           Health check

Examples:
  daylife serve                           # bundled sample data on :8080
  daylife serve --data ./exports          # CSV exports from a directory
  daylife serve --data https://host/exp/  # CSV exports over HTTP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if source != "" {
				cfg.DataSource = source
			}
			if noBrowser {
				cfg.OpenBrowser = false
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides DAYLIFE_PORT)")
	cmd.Flags().StringVar(&source, "data", "", "directory or http(s) URL with the CSV exports (overrides DAYLIFE_DATA_SOURCE)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open the dashboard in a browser")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logFile, err := server.SetupLogging(cfg.LogDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	d, err := newDeps(cfg)
	if err != nil {
		return err
	}

	srv := server.NewServer(d.store, d.downloader, d.assets, server.Options{
		Window:   cfg.Window(),
		Build:    d.build,
		AssetDir: cfg.AssetDir,
	})
	for _, path := range srv.MissingAssets() {
		log.Printf("Animation file missing: %s", path)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir, ok := d.downloader.LocalDir(); ok && cfg.Watch {
		w, err := watcher.New(dir, watcher.DefaultDebounce, srv.DataChanged)
		if err != nil {
			log.Printf("Not watching %s: %v", dir, err)
		} else {
			defer w.Close()
			go w.Run(ctx)
			log.Printf("Watching %s for changes", dir)
		}
	}

	log.Printf("Serving data from %s", d.downloader.Describe())
	if cfg.OpenBrowser {
		url := "http://localhost" + cfg.Addr()
		go func() {
			if err := browser.OpenURL(url); err != nil {
				log.Printf("Failed to open browser: %v", err)
			}
		}()
	}

	return srv.Serve(ctx, cfg.Addr())
}
