package main

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/infrastructure/migration"
	"github.com/erp/taxsvc/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions holds the flags shared by every command
type rootOptions struct {
	LogLevel string
	Dir      string

	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Tax service schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(&logger.Config{
				Level:      opts.LogLevel,
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "migrations", "migrations source directory, used by create and list")

	cmd.AddCommand(
		newMigratorCommand(opts, "up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		newMigratorCommand(opts, "down", "Roll back all migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		newMigratorCommand(opts, "step <n>", "Apply n migrations, negative rolls back", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		newMigratorCommand(opts, "goto <version>", "Migrate to a specific version", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		newMigratorCommand(opts, "force <version>", "Mark a version as applied without running it", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		newMigratorCommand(opts, "version", "Show the applied version", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if version == 0 {
					opts.log.Info("No migrations applied")
					return nil
				}
				opts.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
				return nil
			}),
		newCreateCommand(opts),
		newListCommand(opts),
	)
	return cmd
}

// newMigratorCommand builds a command that runs fn against the configured
// database using the embedded migrations
func newMigratorCommand(opts *rootOptions, use, short string, args cobra.PositionalArgs, fn func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openMigrator(opts.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					opts.log.Warn("Error closing migrator", zap.Error(err))
				}
			}()
			return fn(m, args)
		},
	}
}

func openMigrator(log *zap.Logger) (*migration.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := migration.New(db, migrations.FS, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func newCreateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(opts.Dir, args[0], time.Now())
			if err != nil {
				return err
			}
			opts.log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations found in the source directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := migration.ListMigrations(opts.Dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range files {
				fmt.Fprintf(out, "%06d  %s\n", f.Version, f.Name)
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "no migrations found")
			}
			return nil
		},
	}
}
