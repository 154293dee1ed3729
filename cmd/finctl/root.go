package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var version = "dev"

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configFile string
	logLevel   string
	output     string
	locale     string
	printer    *message.Printer
}

// deps holds what commands reach outside the process for; tests replace it
type deps struct {
	loadConfig  func(path string) (*config.Config, error)
	openSweeper func(ctx context.Context, cfg *config.Config, log *zap.Logger) (sweeper, func(), error)
}

func defaultDeps() deps {
	return deps{
		loadConfig: func(path string) (*config.Config, error) {
			if path == "" {
				return config.Load()
			}
			return config.LoadFile(path)
		},
		openSweeper: openDatabaseSweeper,
	}
}

func newRootCmd(d deps) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "finctl",
		Short: "Operate the finance engine",
		Long: `finctl runs the overdue sweep on demand and previews installment
schedules and overhead allocations without touching the API.

Amount flags are in major units ("1000.00"); output amounts are too.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case "table", "json":
			default:
				return fmt.Errorf("unknown output format %q (use table or json)", opts.output)
			}
			if opts.locale == "" {
				return nil
			}
			tag, err := language.Parse(opts.locale)
			if err != nil {
				return fmt.Errorf("invalid --locale %q: %w", opts.locale, err)
			}
			opts.printer = message.NewPrinter(tag)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to config.toml (default: search ./config.toml and ./config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")
	root.PersistentFlags().StringVar(&opts.locale, "locale", "", "BCP 47 tag for table amounts, e.g. pt-BR (default: plain 1234.56)")

	root.AddCommand(
		newSweepCmd(opts, d),
		newScheduleCmd(opts),
		newAllocateCmd(opts),
		newRoutesCmd(opts),
	)
	return root
}

func (o *globalOptions) newLogger() (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      o.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
}

// render writes v as indented JSON, or calls table with a tabwriter
func (o *globalOptions) render(w io.Writer, v any, table func(tw *tabwriter.Writer)) error {
	if o.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// amount formats m for table output, with the digit grouping and decimal
// separator of --locale when one is set
func (o *globalOptions) amount(m valueobject.Money) string {
	if o.printer == nil {
		return m.String()
	}
	return o.printer.Sprint(number.Decimal(m.Decimal().InexactFloat64(), number.Scale(2)))
}
