package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sgaunet/s2console/pkg/app"
	"github.com/sgaunet/s2console/pkg/backend"
	"github.com/sgaunet/s2console/pkg/config"
	"github.com/sgaunet/s2console/pkg/dbinit"
	"github.com/sgaunet/s2console/pkg/fsstore"
	"github.com/sgaunet/s2console/pkg/health"
	"github.com/sgaunet/s2console/pkg/listing"
	"github.com/sgaunet/s2console/pkg/prefs"
	"github.com/sgaunet/s2console/pkg/remote"
	"github.com/sgaunet/s2console/pkg/s3svc"
	"github.com/sgaunet/s2console/pkg/scheduler"
	"github.com/sgaunet/s2console/pkg/tui"
)

func newAPICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Serve the bucket and file listing API",
		Long: `Serve the paginated bucket and file listings of the configured storage.

The fs driver lists the sub-directories of storage.storedir as buckets.
The s3 driver lists the buckets of the configured S3 endpoint; bucket sizes
are refreshed on api.sizeschedule.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.ValidateAPI(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx := c.signalContext(cmd.Context())

			store, stop, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer stop()

			srv := backend.New(store, backend.Options{
				Users:     c.cfg.API.Users,
				RateLimit: c.cfg.API.RateLimit,
				Burst:     c.cfg.API.Burst,
			})
			srv.SetLogger(c.log)
			c.log.Info("Starting listing API", slog.String("listen", c.cfg.API.Listen), slog.String("driver", c.cfg.Storage.Driver))
			return srv.ListenAndServe(ctx, c.cfg.API.Listen)
		},
	}
}

// openStorage returns the storage of the configured driver and the function
// releasing it.
func (c *cli) openStorage(ctx context.Context) (backend.Storage, func(), error) {
	if c.cfg.Storage.Driver == config.DriverFS {
		store, err := fsstore.New(c.cfg.Storage.StoreDir)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open store directory: %w", err)
		}
		store.SetLogger(c.log)
		return store, func() {}, nil
	}

	client, err := s3svc.NewClient(ctx, c.cfg.Storage.S3, c.log)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create S3 client: %w", err)
	}
	svc := s3svc.NewS3Svc(client)
	svc.SetLogger(c.log)

	sched := scheduler.NewScheduler(c.cfg.API.SizeSchedule, svc)
	sched.SetLogger(c.log)
	if err := sched.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("cannot schedule bucket size refresh: %w", err)
	}
	return svc, sched.Stop, nil
}

func newWebCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Serve the web console",
		Long: `Serve the web console. Users log in with the accounts of console.users
and browse the listings served by console.backend.url.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.ValidateConsole(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx := c.signalContext(cmd.Context())

			client, err := c.newRemote()
			if err != nil {
				return err
			}
			monitor := health.NewMonitor(c.log)
			monitor.Register("backend", client)

			store, closeStore, err := c.openPreferences(ctx, monitor)
			if err != nil {
				return err
			}
			defer closeStore()

			monitor.Start(ctx)
			defer monitor.Stop()

			console := app.NewApp(app.Options{
				Config:      c.cfg.Console,
				Backend:     client,
				Preferences: store,
				Health:      monitor,
			})
			console.SetLogger(c.log)
			c.log.Info("Starting web console", slog.String("listen", c.cfg.Console.Listen), slog.String("backend", c.cfg.Console.Backend.URL))
			return console.ListenAndServe(ctx, c.cfg.Console.Listen)
		},
	}
}

func newTUICmd(c *cli) *cobra.Command {
	var user, logFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the listings from the terminal",
		Long: `Browse the bucket and file listings served by console.backend.url from
the terminal. Page sizes and filters are saved per user when quitting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.ValidateConsole(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			// The terminal belongs to the console: logs go to a file or nowhere.
			log := slog.New(slog.DiscardHandler)
			if logFile != "" {
				f, err := tea.LogToFile(logFile, "s2console")
				if err != nil {
					return fmt.Errorf("cannot open log file: %w", err)
				}
				defer f.Close()
				log = initTrace(f, c.cfg.LogLevel)
			}
			c.log = log
			ctx := c.signalContext(cmd.Context())

			client, err := c.newRemote()
			if err != nil {
				return err
			}
			store, closeStore, err := c.openPreferences(ctx, nil)
			if err != nil {
				return err
			}
			defer closeStore()

			return tui.Run(ctx, tui.Options{
				Buckets:     c.cfg.Console.Buckets,
				Files:       c.cfg.Console.Files,
				Backend:     client,
				Preferences: store,
				User:        user,
				Logger:      log,
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", os.Getenv("USER"), "User the preferences are saved for")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	return cmd
}

func (c *cli) newRemote() (*remote.Client, error) {
	b := c.cfg.Console.Backend
	client, err := remote.New(remote.Options{
		BaseURL:  b.URL,
		User:     b.User,
		Password: b.Password,
		Timeout:  b.Timeout,
		Insecure: b.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create backend client: %w", err)
	}
	client.SetLogger(c.log)
	return client, nil
}

// openPreferences returns the configured preference store and the function
// closing it. A postgres store is registered with monitor when not nil.
func (c *cli) openPreferences(ctx context.Context, monitor *health.Monitor) (listing.PreferenceStore, func(), error) {
	if c.cfg.Console.Preferences.Driver != config.PrefsPostgres {
		return prefs.NewMemory(), func() {}, nil
	}

	db, err := dbinit.Open(ctx, c.cfg.Console.Preferences.DatabaseURL, c.log)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open preferences database: %w", err)
	}
	store := prefs.NewSQL(db)
	store.SetLogger(c.log)
	if monitor != nil {
		monitor.Register("preferences", store)
	}
	return store, func() { closeDB(db, c.log) }, nil
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		log.Error("Cannot close preferences database", slog.String("error", err.Error()))
	}
}
