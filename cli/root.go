// Package cli is the fluxreader command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go-mod.ewintr.nl/fluxreader/api"
	"go-mod.ewintr.nl/fluxreader/config"
	"go-mod.ewintr.nl/fluxreader/notify"
	"go-mod.ewintr.nl/fluxreader/router"
	"go-mod.ewintr.nl/fluxreader/storage"
	"go-mod.ewintr.nl/fluxreader/store"
)

type options struct {
	configPath string
	dial       api.Dialer
	conf       config.Config
}

// Execute runs the command line and exits on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{
		dial: func(server, token string) api.Client {
			return api.Instrument(api.NewMiniflux(server, token))
		},
	})
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fluxreader",
		Short:         "A terminal client for a Miniflux server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.conf = conf
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath(), "config file path")

	rootCmd.AddCommand(loginCmd(opts))
	rootCmd.AddCommand(logoutCmd(opts))
	rootCmd.AddCommand(statusCmd(opts))
	rootCmd.AddCommand(refreshCmd(opts))
	rootCmd.AddCommand(readCmd(opts))
	rootCmd.AddCommand(summaryCmd(opts))
	rootCmd.AddCommand(watchCmd(opts))
	rootCmd.AddCommand(tuiCmd(opts))

	return rootCmd
}

// app is everything one command run needs, wired in construction order.
type app struct {
	db      *storage.Client
	journal *storage.Journal
	center  *notify.Center
	stores  *store.Stores
	router  *router.Router
	logger  *slog.Logger
}

func (o *options) openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	logger := o.conf.Log.Logger(logOut)

	db, err := storage.NewClient(o.conf.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	journal := storage.NewJournal(db)
	center := notify.NewCenter(o.conf.Notifications.Timeout.Duration)
	filter := o.conf.EntryFilter()

	stores, err := store.New(ctx, store.Config{
		Session: store.SessionConfig{
			Credentials: storage.NewCredentials(db),
			Dial:        o.dial,
			Notifier:    center,
			Logger:      logger,
		},
		Recorder: journal,
		Filter:   &filter,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	r := router.New(router.NewGuard(stores.Feeds.State), logger)
	stores.Session.SetRedirector(r)

	return &app{
		db:      db,
		journal: journal,
		center:  center,
		stores:  stores,
		router:  r,
		logger:  logger,
	}, nil
}

// login checks the stored credentials, falling back to the ones in the
// configuration.
func (a *app) login(ctx context.Context, conf config.Config) error {
	if a.stores.Session.Credentials().Complete() {
		_, err := a.stores.Session.Profile(ctx)
		return err
	}
	if conf.Server.URL != "" && conf.Server.Token != "" {
		_, err := a.stores.Session.Register(ctx, conf.Server.URL, conf.Server.Token)
		return err
	}

	return fmt.Errorf("%w: run fluxreader login first", api.ErrNotConfigured)
}

// close waits for background work, prints what went wrong on the way and
// closes the database.
func (a *app) close(w io.Writer) {
	a.stores.Wait()
	red := color.New(color.FgRed)
	for _, n := range a.center.Active() {
		red.Fprintf(w, "%s\n", n.Message)
	}
	a.db.Close()
}
