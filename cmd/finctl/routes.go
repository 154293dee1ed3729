package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/router"
	"github.com/spf13/cobra"
)

type routeRow struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

func newRoutesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the HTTP API routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := apiRoutes()
			return opts.render(cmd.OutOrStdout(), rows, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "METHOD\tPATH\tDESCRIPTION")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Method, r.Path, r.Description)
				}
			})
		},
	}
}

// apiRoutes lists the route table the server registers. The handlers are
// never invoked, so they are built without services.
func apiRoutes() []routeRow {
	h := router.Handlers{
		Documents:    handler.NewDocumentHandler(nil),
		Installments: handler.NewInstallmentHandler(nil),
		Sweep:        handler.NewSweepHandler(nil),
		Costing:      handler.NewCostingHandler(nil),
	}
	var rows []routeRow
	for _, r := range router.NewAPI(nil, h).Routes() {
		rows = append(rows, routeRow{Method: r.Method, Path: r.Path, Description: r.Description})
	}
	return rows
}
