package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newObjectivesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "objectives",
		Aliases: []string{"ls"},
		Short:   "List the registered objectives",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := a.registry.List()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDIMENSION\tBOUNDS\tMAXIMUM\tDESCRIPTION")
			for _, o := range list {
				dim := "any"
				switch {
				case o.Dimension > 0:
					dim = fmt.Sprint(o.Dimension)
				case o.MinDimension > 1:
					dim = fmt.Sprintf(">=%d", o.MinDimension)
				}
				maximum := "-"
				if o.Maximum != nil {
					maximum = fmt.Sprintf("%g", *o.Maximum)
				}
				fmt.Fprintf(tw, "%s\t%s\t[%g, %g]\t%s\t%s\n",
					o.Name, dim, o.LowerBound, o.UpperBound, maximum, o.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")
	return cmd
}
