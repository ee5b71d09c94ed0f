package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	"github.com/spf13/cobra"
)

var (
	listQuery string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list processed documents, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		docs, err := svc.Query.List(cmd.Context(), models.ListOptions{ProcessNumberContains: listQuery, Limit: listLimit})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tPROCESSO\tTITULO\tCRIADO EM")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Slug, d.ProcessNumber, deref(d.Title), d.CreatedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "print one document record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		doc, err := svc.Query.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "q", "q", "", "filter by process number")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 50, "maximum number of rows")
}
