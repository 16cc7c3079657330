package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go-mod.ewintr.nl/fluxreader/domain"
)

func readCmd(opts *options) *cobra.Command {
	var (
		categoryID int64
		starred    bool
		all        bool
		mark       bool
		status     string
		limit      int
		offset     int
		search     string
	)
	cmd := &cobra.Command{
		Use:   "read [feed-id]",
		Short: "List one page of entries of a feed, a category, all feeds or the starred ones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var scope domain.Scope
			switch {
			case len(args) == 1:
				feedID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid feed id %q", args[0])
				}
				scope = domain.FeedScope(feedID)
			case categoryID > 0:
				scope = domain.CategoryScope(categoryID)
			case starred:
				scope = domain.StarredScope()
			case all:
				scope = domain.AllScope()
			default:
				return fmt.Errorf("give a feed id or one of --category, --starred, --all")
			}

			ctx := cmd.Context()
			a, err := opts.openApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(cmd.ErrOrStderr())

			if err := a.login(ctx, opts.conf); err != nil {
				return err
			}
			a.stores.Load(ctx, false)

			filter := a.stores.Entries.Filter()
			if cmd.Flags().Changed("status") {
				filter.Status = domain.EntryStatus(status)
			}
			if limit > 0 {
				filter.Limit = limit
			}
			filter.Offset = offset
			filter.Search = search
			entries := a.stores.Entries.Fetch(ctx, scope, filter, false)

			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			faint := color.New(color.Faint)
			yellow := color.New(color.FgYellow)
			for _, e := range a.stores.Entries.Snapshot() {
				star := " "
				if e.Starred {
					star = yellow.Sprint("*")
				}
				feedTitle := ""
				if e.Feed != nil {
					feedTitle = e.Feed.Title
				}
				title := e.Title
				if e.Status == domain.StatusUnread {
					title = bold.Sprint(title)
				}
				fmt.Fprintf(out, "%s %8d  %s\n", star, e.ID, title)
				faint.Fprintf(out, "           %s  %s  %s\n", feedTitle, e.PublishedAt.Format("2006-01-02 15:04"), e.URL)
			}
			fmt.Fprintf(out, "\n%d of %d entries (%s)\n", len(entries), a.stores.Entries.Total(), scope)

			if mark {
				a.stores.Entries.MarkManyRead(ctx, entries)
				fmt.Fprintln(out, "marked read")
			}

			return nil
		},
	}
	cmd.Flags().Int64Var(&categoryID, "category", 0, "list entries of this category")
	cmd.Flags().BoolVar(&starred, "starred", false, "list starred entries")
	cmd.Flags().BoolVar(&all, "all", false, "list entries of all feeds")
	cmd.Flags().BoolVar(&mark, "mark", false, "mark the listed unread entries read")
	cmd.Flags().StringVar(&status, "status", "", "entry status: unread, read or removed")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size, defaults to the configured limit")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many entries")
	cmd.Flags().StringVar(&search, "search", "", "only entries matching this text")

	return cmd
}
