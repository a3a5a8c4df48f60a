package cli

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/semsearch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print build information",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationOffline: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("semsearchctl %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
