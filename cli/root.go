// Package cli holds the daylife commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daylife/animation"
	"github.com/daylife/config"
	"github.com/daylife/data"
	"github.com/daylife/downloader"
	"github.com/daylife/models"
	"github.com/daylife/timeline"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daylife",
		Short: "Scroll through a participant's day of biometric data",
		Long: `daylife serves a dashboard that replays one study participant's day:
scrolling the page moves a time window across heart rate, movement and step
data while an animation shows the activity logged at that moment.

Configuration is read from DAYLIFE_* environment variables or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(), newFrameCmd())
	return cmd
}

// Execute runs the command line.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// deps are the pieces both commands build from the configuration.
type deps struct {
	downloader *downloader.Downloader
	assets     *animation.AssetTable
	build      timeline.BuildOptions
	store      *models.DataStore
}

func newDeps(cfg config.Config) (deps, error) {
	base, err := cfg.Base()
	if err != nil {
		return deps{}, err
	}

	dl := downloader.NewDownloader(cfg.DataSource, nil, base)
	if cfg.DataSource == "" {
		dl = downloader.NewDownloader("", data.Sample(), base)
	}

	assets := animation.DefaultAssetTable()
	if cfg.AssetTable != "" {
		if assets, err = animation.LoadAssetTable(cfg.AssetTable); err != nil {
			return deps{}, err
		}
	}

	return deps{
		downloader: dl,
		assets:     assets,
		build:      timeline.BuildOptions{BaseDate: base, MaxGap: cfg.MaxGap()},
		store:      models.NewDataStore(cfg.CacheMaxAge),
	}, nil
}
