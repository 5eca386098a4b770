package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannam/piano-precision-aligner/templates"
)

func uniformTemplate(bins int, peak int) templates.Template {
	t := make(templates.Template, bins)
	rest := 0.5 / float64(bins-1)
	for b := range t {
		t[b] = rest
	}
	t[peak] = 0.5 + rest
	return t
}

func TestNewReindexes(t *testing.T) {
	s := New([]MusicalEvent{
		{Index: 7, Duration: 1, Tempo: 120},
		{Index: 7, Duration: 2, Tempo: 120},
	})
	events := s.MusicalEvents()
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Index)
	assert.Equal(t, 1, events[1].Index)
}

func TestSetEventTemplates(t *testing.T) {
	const bins = 8
	notes := templates.NoteTemplates{
		60: uniformTemplate(bins, 1),
		64: uniformTemplate(bins, 3),
	}
	s := New([]MusicalEvent{
		{Duration: 1, Tempo: 120, Pitches: []int{60, 64}},
		{Duration: 1, Tempo: 120},                      // rest
		{Duration: 1, Tempo: 120, Pitches: []int{64}},  // single note
	})
	require.NoError(t, s.SetEventTemplates(notes))

	for _, ev := range s.MusicalEvents() {
		tmpl := ev.EventTemplate
		require.Len(t, tmpl, bins)
		sum := 0.0
		for _, v := range tmpl {
			assert.Greater(t, v, 0.0)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}

	// The chord mixes both peaks; the single note keeps only its own.
	chord := s.MusicalEvents()[0].EventTemplate
	assert.InDelta(t, chord[1], chord[3], 1e-12)
	single := s.MusicalEvents()[2].EventTemplate
	assert.Greater(t, single[3], single[1])
}

func TestSetEventTemplatesMissingPitch(t *testing.T) {
	notes := templates.NoteTemplates{60: uniformTemplate(4, 1)}
	s := New([]MusicalEvent{{Duration: 1, Tempo: 120, Pitches: []int{61}}})
	assert.Error(t, s.SetEventTemplates(notes))
}

func TestSetEventTemplatesBinMismatch(t *testing.T) {
	notes := templates.NoteTemplates{
		60: uniformTemplate(4, 1),
		64: uniformTemplate(8, 1),
	}
	s := New([]MusicalEvent{{Duration: 1, Tempo: 120, Pitches: []int{60}}})
	assert.Error(t, s.SetEventTemplates(notes))
}

func TestSetEventTemplatesEmptyTable(t *testing.T) {
	s := New([]MusicalEvent{{Duration: 1, Tempo: 120, Pitches: []int{60}}})
	assert.Error(t, s.SetEventTemplates(templates.NoteTemplates{}))
}
