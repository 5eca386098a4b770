package score

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cannam/piano-precision-aligner/templates"
)

// ErrLoadFailed indicates the score file could not be read or parsed.
var ErrLoadFailed = errors.New("score: load failed")

// MusicalEvent is one entry of the score: a set of simultaneously sounding
// pitches with a notated length and a local tempo. Events are immutable once
// the score is loaded.
type MusicalEvent struct {
	// Index is the event's 0-based position in the score.
	Index int
	// Duration is the notated length in quarter-note units.
	Duration float64
	// Tempo is the local tempo in quarter notes per minute, strictly positive.
	Tempo float64
	// Pitches are the sounding MIDI note numbers; empty for a rest.
	Pitches []int
	// EventTemplate is the composite spectral template attached by
	// SetEventTemplates, one strictly positive value per frequency bin.
	EventTemplate []float64
}

// Score owns the ordered event list of one piece.
type Score struct {
	events []MusicalEvent
}

// New builds a score directly from an event list, reindexing the events in
// order. For hosts that parse score data themselves instead of going
// through Load.
func New(events []MusicalEvent) *Score {
	evs := make([]MusicalEvent, len(events))
	copy(evs, events)
	for i := range evs {
		evs[i].Index = i
	}
	return &Score{events: evs}
}

// Load populates the event list from a score file, dispatching on the file
// extension: the native .solo text format, or a Standard MIDI File
// (.mid/.midi). Any parse failure wraps ErrLoadFailed; after a failure the
// score is unusable.
func (s *Score) Load(path string) error {
	var events []MusicalEvent
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".solo":
		events, err = parseSoloFile(path)
	case ".mid", ".midi":
		events, err = importMIDIFile(path)
	default:
		err = fmt.Errorf("unsupported score format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
	}
	s.events = events
	return nil
}

// MusicalEvents returns the ordered event list. Callers must not modify the
// returned slice or the events' template vectors.
func (s *Score) MusicalEvents() []MusicalEvent {
	return s.events
}

// SetEventTemplates attaches one composite spectral template per event: the
// equal-weight mix of the per-pitch templates of the event's sounding notes,
// renormalised to sum 1. Rests receive a flat template. Every bin of every
// resulting template is strictly positive as long as the note templates are.
func (s *Score) SetEventTemplates(notes templates.NoteTemplates) error {
	bins := 0
	for _, t := range notes {
		bins = len(t)
		break
	}
	if bins == 0 {
		return fmt.Errorf("score: empty note template table")
	}
	for midi, t := range notes {
		if len(t) != bins {
			return fmt.Errorf("score: note template %d has %d bins, want %d", midi, len(t), bins)
		}
	}

	for i := range s.events {
		ev := &s.events[i]
		if len(ev.Pitches) == 0 {
			ev.EventTemplate = templates.Flat(bins)
			continue
		}
		mix := make([]float64, bins)
		for _, pitch := range ev.Pitches {
			t, ok := notes[pitch]
			if !ok {
				return fmt.Errorf("score: no note template for pitch %d (event %d)", pitch, i)
			}
			for b, v := range t {
				mix[b] += v
			}
		}
		total := 0.0
		for _, v := range mix {
			total += v
		}
		for b := range mix {
			mix[b] /= total
		}
		ev.EventTemplate = mix
	}
	return nil
}
