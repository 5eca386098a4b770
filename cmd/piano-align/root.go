package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "piano-align",
	Short: "Offline audio-to-score alignment for solo piano recordings",
	Long: `piano-align matches a solo piano recording against its score and
reports, for every score event, the spectral frame at which the event
begins.`,
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
