package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/migration"
	"github.com/erp/backoffice/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configFile string
	dir        string
	table      string
	logLevel   string
}

// source returns --dir when given, else the schema compiled into the binary
func (o *options) source() fs.FS {
	if o.dir != "" {
		return os.DirFS(o.dir)
	}
	return migrations.FS
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the finance engine's postgres schema",
		Long: `migrate runs the numbered SQL migrations against the database named in
the configuration (FIN_DATABASE_* variables override config.toml).

Without --dir the migrations compiled into this binary are used. sqlite
databases are not migrated here; the server creates their schema itself.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to config.toml")
	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "Read migrations from this directory instead of the embedded set")
	root.PersistentFlags().StringVar(&opts.table, "table", migration.DefaultMigrationsTable, "Schema version table")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		withMigrator(opts, &cobra.Command{Use: "up", Short: "Apply every pending migration", Args: cobra.NoArgs},
			func(m *migrator, _ []string) error { return m.Up() }),
		withMigrator(opts, &cobra.Command{Use: "down", Short: "Roll back every migration", Args: cobra.NoArgs},
			func(m *migrator, _ []string) error { return m.Down() }),
		withMigrator(opts, &cobra.Command{Use: "step <n>", Short: "Apply n migrations, negative to roll back", Args: cobra.ExactArgs(1)},
			func(m *migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		withMigrator(opts, &cobra.Command{Use: "goto <version>", Short: "Migrate up or down to a version", Args: cobra.ExactArgs(1)},
			func(m *migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		withMigrator(opts, &cobra.Command{Use: "force <version>", Short: "Record a version without running it, to clear a dirty state", Args: cobra.ExactArgs(1)},
			func(m *migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		newStatusCmd(opts),
		newDropCmd(opts),
		newCreateCmd(opts),
		newListCmd(opts),
	)
	return root
}

// migrator couples a Migrator with its logger; closing it closes the connection
type migrator struct {
	*migration.Migrator
	log *zap.Logger
}

func (m *migrator) close() {
	if err := m.Migrator.Close(); err != nil {
		m.log.Warn("Error closing migrator", zap.Error(err))
	}
	_ = m.log.Sync()
}

func (o *options) open() (*migrator, error) {
	log, err := logger.New(&logger.Config{
		Level:      o.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("migrations target postgres, configured driver is %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	m, err := migration.New(db, o.source(), log, migration.WithMigrationsTable(o.table))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &migrator{Migrator: m, log: log}, nil
}

func (o *options) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func withMigrator(opts *options, cmd *cobra.Command, run func(m *migrator, args []string) error) *cobra.Command {
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		m, err := opts.open()
		if err != nil {
			return err
		}
		defer m.close()
		return run(m, args)
	}
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return withMigrator(opts, &cobra.Command{Use: "status", Short: "Show the applied version and pending migrations", Args: cobra.NoArgs},
		func(m *migrator, _ []string) error {
			st, err := m.Status()
			if err != nil {
				return err
			}
			m.log.Info("Schema version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
			for _, e := range st.Migrations {
				state := "pending"
				if e.Applied {
					state = "applied"
				}
				fmt.Printf("  %-8s %s\n", state, e.Migration)
			}
			if st.Dirty {
				return errors.New("schema is dirty; fix the failed migration and run force <version>")
			}
			return nil
		})
}

func newDropCmd(opts *options) *cobra.Command {
	var confirm bool
	cmd := withMigrator(opts, &cobra.Command{Use: "drop", Short: "Drop every database object, data included", Args: cobra.NoArgs},
		func(m *migrator, _ []string) error { return m.Drop() })
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		if !confirm {
			return errors.New("drop destroys all data; rerun with --confirm")
		}
		return run(c, args)
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Required to drop")
	return cmd
}

func newCreateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "create <name> [description]",
		Short:   "Scaffold the next numbered up/down migration pair",
		Example: `  migrate create add_settlement_index "Index documents by settlement date" --dir migrations`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dir
			if dir == "" {
				dir = "migrations"
			}
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
			fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := migration.ListMigrations(opts.source())
			if err != nil {
				return err
			}
			for _, m := range list {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}
