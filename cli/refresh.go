package cli

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func refreshCmd(opts *options) *cobra.Command {
	var parallel int
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ask the server to crawl every feed again",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(cmd.ErrOrStderr())

			if err := a.login(ctx, opts.conf); err != nil {
				return err
			}
			feeds := a.stores.Feeds.FetchFeeds(ctx, false)

			var failed atomic.Int64
			g, gCtx := errgroup.WithContext(ctx)
			g.SetLimit(max(parallel, 1))
			for _, feed := range feeds {
				g.Go(func() error {
					if fresh := a.stores.Feeds.RefreshFeed(gCtx, feed); fresh == feed {
						failed.Add(1)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			a.stores.Feeds.RefreshCounters(context.WithoutCancel(ctx))

			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d of %d feeds\n", int64(len(feeds))-failed.Load(), len(feeds))
			printCategories(cmd, a.stores.Categories.Snapshot())

			return nil
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "feeds refreshed at the same time")

	return cmd
}
