package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go-mod.ewintr.nl/fluxreader/tui"
)

func tuiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse categories, feeds and entries in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			logOut := io.Discard
			if opts.conf.Log.File != "" {
				f, err := os.OpenFile(opts.conf.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
				if err != nil {
					return fmt.Errorf("could not open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}

			ctx := cmd.Context()
			a, err := opts.openApp(ctx, logOut)
			if err != nil {
				return err
			}
			defer a.close(cmd.ErrOrStderr())

			if err := a.login(ctx, opts.conf); err != nil {
				return err
			}
			if err := a.journal.SaveCategories(ctx, a.stores.Categories.FetchCategories(ctx, false)); err != nil {
				a.logger.Warn("could not save categories", "error", err)
			}

			return tui.Run(ctx, tui.App{
				Stores: a.stores,
				Router: a.router,
				Center: a.center,
				Logger: a.logger,
			})
		},
	}
}
