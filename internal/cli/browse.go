package cli

import (
	"github.com/spf13/cobra"

	"github.com/lazypower/scrapbook/internal/client"
	"github.com/lazypower/scrapbook/internal/config"
	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/tui"
	"github.com/lazypower/scrapbook/internal/view"
)

var browseTimeline bool

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse memories in the terminal",
	Long:  "Open an interactive grid or timeline of memories from a running server, with live search and a media viewer.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := client.New(cfg.Client.ServerURL, cfg.Admin.Key, cfg.Client.Timeout)
		return tui.Run(cmd.Context(), c, browseOptions(cfg))
	},
}

// browseOptions resolves storage keys the server left unsigned against the
// public base URL, when one is configured.
func browseOptions(cfg *config.Config) tui.Options {
	o := tui.Options{Mode: view.Grid}
	if browseTimeline {
		o.Mode = view.Timeline
	}
	if cfg.Media.PublicBaseURL != "" {
		o.Resolver = media.BaseURL(cfg.Media.PublicBaseURL)
	}
	return o
}

func init() {
	browseCmd.Flags().BoolVar(&browseTimeline, "timeline", false, "Start in timeline mode")
}
