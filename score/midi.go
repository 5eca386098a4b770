package score

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// midiNominalTempo is the tempo attached to MIDI-imported events. Timing in
// a Standard MIDI File lives in its tempo map, so imported events carry a
// fixed nominal tempo and a duration chosen to reproduce the measured
// inter-onset gap in seconds.
const midiNominalTempo = 120.0

// importMIDIFile reduces a Standard MIDI File to a chord-per-onset event
// list. Note-ons across all tracks are grouped by onset tick; each group
// becomes one event whose length is the gap to the next onset, converted
// through the file's tempo map.
func importMIDIFile(path string) (events []MusicalEvent, err error) {
	// The SMF reader can panic on malformed input.
	defer func() {
		if r, ok := recover().(string); ok {
			err = errors.New(r)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mf, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	onsets := make(map[int64][]int)
	var lastTick int64
	for _, track := range mf.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			if absTicks > lastTick {
				lastTick = absTicks
			}
			var channel, key, velocity uint8
			if event.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0 {
				onsets[absTicks] = append(onsets[absTicks], int(key))
			}
		}
	}
	if len(onsets) == 0 {
		return nil, fmt.Errorf("no note-on events")
	}

	ticks := make([]int64, 0, len(onsets))
	for t := range onsets {
		ticks = append(ticks, t)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })

	secondsAt := func(tick int64) float64 {
		return float64(mf.TimeAt(tick)) / 1e6
	}
	endTime := secondsAt(lastTick)

	for i, tick := range ticks {
		onset := secondsAt(tick)
		var gap float64
		if i+1 < len(ticks) {
			gap = secondsAt(ticks[i+1]) - onset
		} else {
			gap = endTime - onset
		}
		if gap <= 0 {
			gap = 1.0
		}
		pitches := dedupeSorted(onsets[tick])
		events = append(events, MusicalEvent{
			Index: i,
			// Chosen so that duration * 4 * 60 / tempo reproduces the gap.
			Duration: gap * midiNominalTempo / (4 * 60),
			Tempo:    midiNominalTempo,
			Pitches:  pitches,
		})
	}
	return events, nil
}

func dedupeSorted(pitches []int) []int {
	sort.Ints(pitches)
	out := pitches[:0]
	for i, p := range pitches {
		if i == 0 || p != pitches[i-1] {
			out = append(out, p)
		}
	}
	return out
}
