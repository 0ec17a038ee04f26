package cmd

import (
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive terminal surfaces for the survey",
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
