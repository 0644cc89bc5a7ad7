package root

import (
	"github.com/spf13/cobra"

	"github.com/crucial707/timetable-api/cmd/cli/config"
)

var apiURL string

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "ttctl",
	Short:         "Timetable API CLI",
	Long:          "Command line interface for the Timetable API: catalog management and audit review.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if apiURL != "" {
			config.SetAPIURL(apiURL)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (default $TIMETABLE_API_URL or http://localhost:8080)")
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
