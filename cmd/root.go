package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "frontdesk",
	Short: "AI receptionist with human-in-the-loop escalation",
	Long: `Frontdesk answers routine caller questions from a knowledge corpus and
escalates anything it is unsure about to a human supervisor. Supervisor
answers flow back into the corpus, so the receptionist keeps learning.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".frontdesk.yml", "config file path")
}
