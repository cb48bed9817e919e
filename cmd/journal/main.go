package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pbaille/journal/internal/api"
	"github.com/pbaille/journal/internal/config"
	"github.com/pbaille/journal/internal/journal"
	"github.com/pbaille/journal/internal/logger"
	"github.com/pbaille/journal/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfgPath string
	dbPath  string

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "journal",
		Short:        "Shared PIN-protected journal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(a.serveCmd())
	rootCmd.AddCommand(a.migrateCmd())
	rootCmd.AddCommand(a.addCmd())
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.deleteCmd())
	rootCmd.AddCommand(a.labelsCmd())

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath = a.dbPath
	}
	a.cfg = cfg
	a.log = logger.New(cfg.Environment, cfg.LogLevel, os.Stderr)
	return nil
}

// openStore opens the database and brings its schema up to date
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	dir := filepath.Dir(a.cfg.DatabasePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	s, err := store.New(a.cfg.DatabasePath, a.log)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (a *app) withService(cmd *cobra.Command, fn func(*journal.Service) error) error {
	s, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(journal.NewService(s, a.log))
}

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			server := api.New(journal.NewService(s, a.log), s, a.log, api.Options{
				AllowOrigins: a.cfg.AllowOrigins,
				Development:  a.cfg.IsDevelopment(),
			})
			return server.Run(ctx, a.cfg.Addr, a.cfg.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8000", "server address")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed default PINs and labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Database ready: %s\n", a.cfg.DatabasePath)
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a new entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")

			return a.withService(cmd, func(svc *journal.Service) error {
				entry, err := svc.AddEntry(cmd.Context(), content, author)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added entry: %d\n", entry.ID)
				fmt.Fprintf(out, "Content: %s\n", truncate(entry.Content, 80))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "author role (you or her)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(svc *journal.Service) error {
				entries, err := svc.RecentEntries(cmd.Context(), limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No entries yet. Use 'journal add' to create one.")
					return nil
				}

				for _, e := range entries {
					fmt.Fprintf(out, "%4d  %s  %-3s  %s\n",
						e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Author, truncate(e.Content, 60))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id: %s", args[0])
			}

			return a.withService(cmd, func(svc *journal.Service) error {
				if err := svc.DeleteEntry(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry: %d\n", id)
				return nil
			})
		},
	}
}

func (a *app) labelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "Show the display name of each role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(svc *journal.Service) error {
				labels, err := svc.GetLabels(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "you: %s\n", labels.You)
				fmt.Fprintf(out, "her: %s\n", labels.Her)
				return nil
			})
		},
	}
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
