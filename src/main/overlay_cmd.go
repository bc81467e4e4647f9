package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"circle-to-search/src/config"
	"circle-to-search/src/gui"
	"circle-to-search/src/overlay"
)

// newOverlayCmd hosts the built-in selection window in its own process. The
// resident runs it like slurp: one selection on stdout, exit status 1 on cancel
// and exitStatusOverlayFailed when the window cannot be shown.
func newOverlayCmd() *cobra.Command {
	var mode, color string
	cmd := &cobra.Command{
		Use:    "overlay",
		Short:  "Show the selection overlay and print the chosen region",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			region, cancelled, err := gui.RunOverlay(gui.OverlayOptions{
				Mode:  gui.ParseMode(mode),
				Color: color,
			})
			if err != nil {
				return &exitStatusError{status: exitStatusOverlayFailed, err: fmt.Errorf("overlay: %w", err)}
			}
			if cancelled {
				return errSilentExit
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), overlay.FormatSelection(region))
			return err
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &exitStatusError{status: exitStatusOverlayFailed, err: err}
	})
	cmd.Flags().StringVar(&mode, "mode", config.DefaultModeRect, "rectangle or lasso")
	cmd.Flags().StringVar(&color, "color", config.DefaultSelectionColor, "selection colour (hex)")
	return cmd
}
