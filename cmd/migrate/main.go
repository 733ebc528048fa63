package main

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/playhub/backend/internal/infrastructure/logger"
	"github.com/playhub/backend/internal/infrastructure/migration"
	"github.com/playhub/backend/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cli struct {
	path     string
	logLevel string
	log      *zap.Logger
}

func main() {
	c := &cli{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the PlayHub database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			log, err := logger.New(&logger.Config{
				Level:      c.logLevel,
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync(c.log)
		},
	}
	root.PersistentFlags().StringVar(&c.path, "path", "", "read migrations from this directory instead of the embedded set")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.withMigrator("up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		c.withMigrator("down", "Roll back every migration", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		c.withMigrator("steps N", "Apply N migrations (negative rolls back)", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		c.withMigrator("goto VERSION", "Migrate up or down to VERSION", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		c.withMigrator("force VERSION", "Set VERSION and clear the dirty flag without migrating", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		c.withMigrator("version", "Print the applied version", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version=%d dirty=%t\n", v, dirty)
				return nil
			}),
		c.createCommand(),
		c.listCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (c *cli) withMigrator(use, short string, args cobra.PositionalArgs, run func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(_ *cobra.Command, argv []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			var opts []migration.Option
			if c.path != "" {
				opts = append(opts, migration.FromDir(c.path))
			} else if cfg.Database.MigrationsPath != "" {
				if _, statErr := os.Stat(cfg.Database.MigrationsPath); statErr == nil {
					opts = append(opts, migration.FromDir(cfg.Database.MigrationsPath))
				}
			}

			m, err := migration.NewFromURL(cfg.Database.DSN(), c.log, opts...)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					c.log.Warn("Failed to close migrator", zap.Error(err))
				}
			}()
			return run(m, argv)
		},
	}
}

func (c *cli) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME [DESCRIPTION]",
		Short: "Create the next up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := c.path
			if dir == "" {
				dir = "migrations"
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			c.log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath))
			return nil
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			var fsys fs.FS = migrations.FS
			if c.path != "" {
				fsys = os.DirFS(c.path)
			}
			list, err := migration.ListMigrations(fsys)
			if err != nil {
				return err
			}
			for _, m := range list {
				down := ""
				if !m.HasDown {
					down = " (no down)"
				}
				fmt.Printf("%06d  %s%s\n", m.Version, m.Name, down)
			}
			return nil
		},
	}
}
