package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	financeapp "github.com/erp/backoffice/internal/application/finance"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sweeper interface {
	Sweep(ctx context.Context) (*financeapp.SweepResponse, error)
}

func newSweepCmd(opts *globalOptions, d deps) *cobra.Command {
	var timezone string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark open documents past their due date as overdue",
		Long: `sweep runs the overdue sweep once against the configured database.
It is idempotent: a second run on the same day marks nothing.`,
		Example: `  finctl sweep
  finctl sweep --timezone America/Sao_Paulo -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := d.loadConfig(opts.configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if timezone != "" {
				if _, err := time.LoadLocation(timezone); err != nil {
					return fmt.Errorf("invalid timezone %q: %w", timezone, err)
				}
				cfg.Sweeper.Timezone = timezone
			}
			log, err := opts.newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			if cfg.Sweeper.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Sweeper.Timeout)
				defer cancel()
			}
			s, closeFn, err := d.openSweeper(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			resp, err := s.Sweep(ctx)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), resp, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "TODAY\tMARKED")
				fmt.Fprintf(tw, "%s\t%d\n", resp.Today, resp.Marked)
			})
		},
	}
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone that defines today (default: sweeper.timezone)")
	return cmd
}

func openDatabaseSweeper(_ context.Context, cfg *config.Config, log *zap.Logger) (sweeper, func(), error) {
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithDatabaseLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if db.Driver() == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to create sqlite schema: %w", err)
		}
	}
	repo := persistence.NewGormMonetaryDocumentRepository(db.DB)
	svc := financeapp.NewOverdueSweepService(repo, cfg.Sweeper.Location(), nil, log)
	return svc, func() {
		if err := db.Close(); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}, nil
}
