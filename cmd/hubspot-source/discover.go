package hubspot_source

import (
	"encoding/json"

	"github.com/planetscale/connect/hubspot/cmd/internal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(DiscoverCommand(DefaultHelper()))
}

// DiscoverCommand prints the catalog of every stream the tap can read. Streams are
// static, so no configuration or connection is needed.
func DiscoverCommand(ch *Helper) *cobra.Command {
	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Prints the catalog of HubSpot streams",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(internal.DefaultCatalog())
		},
	}
	discoverCmd.Flags().String("config", "", "Path to the HubSpot source configuration, accepted for compatibility and unused")
	return discoverCmd
}
