package cmd

import (
	"github.com/spf13/cobra"

	"github.com/frontdeskhq/frontdesk/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize frontdesk configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the business, model provider, and supervisor notification channel, and writes a .frontdesk.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
