package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the configured sites",
	Long:  `List the sites the collector will visit, from APP_SITES_FILE or the built-in list.`,
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL\tGA4 PROPERTY")
	for _, s := range cfg.Sites {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.URL, s.PropertyID)
	}
	return w.Flush()
}
