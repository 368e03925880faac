package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rollcall/internal/core"
)

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the registered tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tGROUP\tLABEL\tSORT\tFIELDS")
			for _, def := range core.All() {
				names := make([]string, 0, len(def.FieldSpecs))
				for _, f := range def.FieldSpecs {
					names = append(names, f.Name)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					def.Info.Key, def.Info.Group, def.Info.Label, def.Info.DefaultSort, strings.Join(names, ","))
			}
			return tw.Flush()
		},
	}
}
