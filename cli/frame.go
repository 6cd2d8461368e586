package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daylife/animation"
	"github.com/daylife/config"
	"github.com/daylife/timeline"
)

// frameOutput is one synchronized frame plus the animation it selects.
type frameOutput struct {
	timeline.Frame
	Animation animation.State `json:"animation"`
}

func newFrameCmd() *cobra.Command {
	var (
		user     string
		progress float64
		at       string
		series   bool
	)

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Print the frame for a scroll position as JSON",
		Example: `  daylife frame --user user_1 --progress 0.5
  daylife frame --user user_1 --at 2024-01-01T09:30:00Z --series`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			d, err := newDeps(cfg)
			if err != nil {
				return err
			}

			ds, err := d.downloader.PopulateDataStore(cmd.Context(), d.store, user, d.build)
			if err != nil {
				return err
			}

			a := &animation.MemoryBuffer{Instant: true}
			b := &animation.MemoryBuffer{Instant: true}
			ctrl := animation.NewController(a, b, d.assets, ds.Intervals.ActiveAt)
			sync := timeline.NewSynchronizer(ds, cfg.Window(), nil, ctrl)

			var frame timeline.Frame
			if at != "" {
				anchor, perr := time.Parse(time.RFC3339, at)
				if perr != nil {
					return fmt.Errorf("invalid --at: %w", perr)
				}
				frame, err = sync.Sync(anchor)
			} else {
				frame, err = sync.UpdateProgress(progress, 1)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", user, err)
			}
			if !series {
				frame.Series = nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(frameOutput{Frame: frame, Animation: ctrl.State()})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "participant key, e.g. user_1")
	cmd.Flags().Float64Var(&progress, "progress", 0, "scroll progress from 0 (top) to 1 (bottom)")
	cmd.Flags().StringVar(&at, "at", "", "window start as RFC 3339 instead of --progress")
	cmd.Flags().BoolVar(&series, "series", false, "include the windowed series")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
