package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cannam/piano-precision-aligner/score"
)

var scoreCmd = &cobra.Command{
	Use:   "score <file>",
	Short: "Parse a score file and print its event list",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	var sc score.Score
	if err := sc.Load(args[0]); err != nil {
		return err
	}
	for _, ev := range sc.MusicalEvents() {
		pitches := "-"
		if len(ev.Pitches) > 0 {
			parts := make([]string, len(ev.Pitches))
			for j, p := range ev.Pitches {
				parts[j] = strconv.Itoa(p)
			}
			pitches = strings.Join(parts, ",")
		}
		fmt.Printf("%4d  %-16s %6.3f quarters @ %5.1f qpm\n", ev.Index, pitches, ev.Duration, ev.Tempo)
	}
	return nil
}
