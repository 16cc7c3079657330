package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/store"
)

func loginCmd(opts *options) *cobra.Command {
	var server, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check and store the server address and API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = opts.conf.Server.URL
			}
			if token == "" {
				token = opts.conf.Server.Token
			}
			if server == "" || token == "" {
				return fmt.Errorf("both --server and --token are needed")
			}

			ctx := cmd.Context()
			a, err := opts.openApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(cmd.ErrOrStderr())

			user, err := a.stores.Session.Register(ctx, server, token)
			if err != nil {
				return fmt.Errorf("could not log in: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s on %s\n", user.Username, a.stores.Session.Credentials().Server)

			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server address, e.g. https://reader.example.com")
	cmd.Flags().StringVar(&token, "token", "", "API token")

	return cmd
}

func logoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(cmd.ErrOrStderr())

			if err := a.stores.Session.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")

			return nil
		},
	}
}

func statusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the login state and unread counts per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			a, err := opts.openApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(cmd.ErrOrStderr())

			if err := a.login(ctx, opts.conf); err != nil {
				fmt.Fprintf(out, "not logged in: %v\n", err)
				return nil
			}
			user := a.stores.Session.User()
			fmt.Fprintf(out, "logged in as %s on %s\n\n", user.Username, a.stores.Session.Credentials().Server)

			a.stores.Load(ctx, false)
			if err := a.journal.SaveCategories(ctx, a.stores.Categories.All()); err != nil {
				a.logger.Warn("could not save categories", "error", err)
			}
			printCategories(cmd, a.stores.Categories.Snapshot())

			return nil
		},
	}
}

func printCategories(cmd *cobra.Command, views []store.CategoryView) {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	for _, view := range views {
		cat := view.Category
		if cat.TotalUnread > 0 {
			bold.Fprintf(out, "%-30s", cat.Title)
		} else {
			fmt.Fprintf(out, "%-30s", cat.Title)
		}
		faint.Fprintf(out, " %5d unread in %d %s, %d read\n",
			cat.TotalUnread, cat.UnreadFeedCount, domain.Pluralize(cat.UnreadFeedCount, "feed"), cat.TotalRead)
	}
}
