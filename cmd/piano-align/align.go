package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cannam/piano-precision-aligner/align"
	"github.com/cannam/piano-precision-aligner/analysis"
	"github.com/cannam/piano-precision-aligner/feature"
	"github.com/cannam/piano-precision-aligner/internal/audiofile"
	"github.com/cannam/piano-precision-aligner/preset"
	"github.com/cannam/piano-precision-aligner/score"
	"github.com/cannam/piano-precision-aligner/templates"
)

var alignFlags struct {
	scorePath  string
	audioPath  string
	presetPath string
	sampleRate int
	beamWidth  int
	windowSize int
	jsonOut    bool
	refOnsets  string
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align a recording against a score and print event onset frames",
	RunE:  runAlign,
}

func init() {
	f := alignCmd.Flags()
	f.StringVar(&alignFlags.scorePath, "score", "", "Score file (.solo, .mid)")
	f.StringVar(&alignFlags.audioPath, "audio", "", "Recording WAV file")
	f.StringVar(&alignFlags.presetPath, "preset", "", "Preset JSON file (optional)")
	f.IntVar(&alignFlags.sampleRate, "sample-rate", 48000, "Analysis sample rate in Hz; input is resampled if needed")
	f.IntVar(&alignFlags.beamWidth, "beam-width", 0, "Beam width override")
	f.IntVar(&alignFlags.windowSize, "window-size", 0, "Posterior window size override (odd)")
	f.BoolVar(&alignFlags.jsonOut, "json", false, "Emit JSON instead of text")
	f.StringVar(&alignFlags.refOnsets, "reference-onsets", "", "Reference onset frames (one per line) for an accuracy report")
	_ = alignCmd.MarkFlagRequired("score")
	_ = alignCmd.MarkFlagRequired("audio")
	rootCmd.AddCommand(alignCmd)
}

type alignReport struct {
	Onsets     []int              `json:"onsets"`
	SampleRate int                `json:"sample_rate"`
	HopSize    int                `json:"hop_size"`
	Accuracy   *analysis.Metrics  `json:"accuracy,omitempty"`
	Events     []score.MusicalEvent `json:"-"`
}

func runAlign(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(alignFlags.presetPath)
	if err != nil {
		return err
	}
	if alignFlags.beamWidth > 0 {
		settings.Align.BeamWidth = alignFlags.beamWidth
	}
	if alignFlags.windowSize > 0 {
		settings.Align.WindowSize = alignFlags.windowSize
	}

	samples, rate, err := audiofile.ReadWAVMono(alignFlags.audioPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", alignFlags.audioPath, err)
	}
	samples, err = audiofile.ResampleIfNeeded(samples, rate, alignFlags.sampleRate)
	if err != nil {
		return err
	}
	rate = alignFlags.sampleRate

	settings.Template.SampleRate = rate
	settings.Template.BlockSize = settings.Feature.FFTSize
	notes, err := templates.Generate(settings.Template)
	if err != nil {
		return err
	}

	var sc score.Score
	if err := sc.Load(alignFlags.scorePath); err != nil {
		return err
	}
	if err := sc.SetEventTemplates(notes); err != nil {
		return err
	}

	frames, err := feature.Extract(samples, rate, settings.Feature)
	if err != nil {
		return err
	}

	aligner, err := align.NewAligner(&sc, float64(rate), settings.Feature.HopSize, settings.Align)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		aligner.SupplyFeature(frame)
	}
	onsets, err := aligner.Align()
	if err != nil {
		return err
	}

	report := alignReport{
		Onsets:     onsets,
		SampleRate: rate,
		HopSize:    settings.Feature.HopSize,
		Events:     sc.MusicalEvents(),
	}
	if alignFlags.refOnsets != "" {
		reference, err := readOnsetFile(alignFlags.refOnsets)
		if err != nil {
			return err
		}
		m := analysis.Compare(reference, onsets, rate, settings.Feature.HopSize)
		report.Accuracy = &m
	}
	return printReport(&report)
}

func loadSettings(path string) (*preset.Settings, error) {
	if path == "" {
		s := preset.DefaultSettings()
		return &s, nil
	}
	return preset.LoadJSON(path)
}

func readOnsetFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var onsets []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid onset %q", path, line)
		}
		onsets = append(onsets, n)
	}
	return onsets, scanner.Err()
}

func printReport(r *alignReport) error {
	if alignFlags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	secsPerFrame := float64(r.HopSize) / float64(r.SampleRate)
	for i, frame := range r.Onsets {
		pitches := "-"
		if len(r.Events[i].Pitches) > 0 {
			parts := make([]string, len(r.Events[i].Pitches))
			for j, p := range r.Events[i].Pitches {
				parts[j] = strconv.Itoa(p)
			}
			pitches = strings.Join(parts, ",")
		}
		fmt.Printf("%4d  frame %6d  %8.3fs  %s\n", i, frame, float64(frame)*secsPerFrame, pitches)
	}
	if r.Accuracy != nil {
		fmt.Printf("\nmean error %.1f frames (%.1f ms), max %d frames, %.0f%% within 50 ms, score %.3f\n",
			r.Accuracy.MeanAbsErrorFrames, r.Accuracy.MeanAbsErrorMs,
			r.Accuracy.MaxAbsErrorFrames, 100*r.Accuracy.Within50Ms, r.Accuracy.Score)
	}
	return nil
}
