package align

import (
	"fmt"
	"math"

	"github.com/cannam/piano-precision-aligner/score"
)

// Sentinel event indices used by chain states. Micro-states of real events
// carry their 0-based score event index.
const (
	startEvent = -1
	endEvent   = -2
)

// chainState is one node of the left-to-right state chain. Each score event
// is approximated by a run of micro-states sharing a common self-loop
// probability, so that the event's sojourn time follows a negative-binomial
// shaped distribution rather than a single geometric.
type chainState struct {
	event int // startEvent, endEvent, or a score event index
	micro int // position within the event's micro-state run
}

// edge is one outgoing or incoming transition. States are referred to by
// their dense chain id throughout; a state has at most two successors
// (itself and the next state in the chain).
type edge struct {
	to   int
	prob float64
}

// stateChain is the materialized HMM: a dense state array with flat
// adjacency lists in both directions. Id 0 is the pre-score sentinel, the
// last id the post-score sentinel, and ids in between are the event
// micro-states in score order.
type stateChain struct {
	states []chainState
	next   [][]edge // next[id] lists successors in id order
	prev   [][]edge // prev[id] lists predecessors in id order
	entry  []int    // entry[e] is the id of event e's first micro-state
	start  int
	end    int
}

// microPlan holds the per-event chain shape derived from the event's
// notated length in frames.
type microPlan struct {
	count    int
	selfLoop float64
}

// planEvent sizes event e's micro-state run. The run length M and common
// self-loop p are chosen so the chain's sojourn mean matches the notated
// frame count with a standard deviation of 25% of the mean.
func planEvent(ev score.MusicalEvent, sampleRate float64, hopSize int) microPlan {
	secs := ev.Duration * 4 * 60 / ev.Tempo // tempo is defined in quarter notes
	frames := secs * sampleRate / float64(hopSize)
	if !(frames > 0) {
		return microPlan{count: 1, selfLoop: 0}
	}
	variance := 0.25 * 0.25 * frames * frames
	m := int(math.Round(frames * frames / (variance + frames)))
	if m < 1 {
		m = 1
	}
	p := 1 - float64(m)/frames
	if p < 0 {
		p = 0
	}
	return microPlan{count: m, selfLoop: p}
}

// newStateChain builds the state chain for the given event list.
func newStateChain(events []score.MusicalEvent, sampleRate float64, hopSize int, selfLoopStart float64) (*stateChain, error) {
	if hopSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHopSize, hopSize)
	}
	plans := make([]microPlan, len(events))
	total := 0
	for i, ev := range events {
		if ev.Tempo <= 0 {
			return nil, fmt.Errorf("%w: event %d has tempo %g", ErrInvalidTempo, i, ev.Tempo)
		}
		plans[i] = planEvent(ev, sampleRate, hopSize)
		total += plans[i].count
	}

	n := total + 2 // sentinels at both ends
	c := &stateChain{
		states: make([]chainState, 0, n),
		next:   make([][]edge, n),
		prev:   make([][]edge, n),
		entry:  make([]int, len(events)),
		start:  0,
		end:    n - 1,
	}

	c.states = append(c.states, chainState{event: startEvent})
	c.addSelfLoop(c.start, selfLoopStart)
	tail := c.start
	tailProb := 1 - selfLoopStart

	for e, plan := range plans {
		for m := 0; m < plan.count; m++ {
			id := len(c.states)
			c.states = append(c.states, chainState{event: e, micro: m})
			c.addSelfLoop(id, plan.selfLoop)
			if m == 0 {
				c.entry[e] = id
				c.addEdge(tail, id, tailProb)
			} else {
				c.addEdge(tail, id, 1-plan.selfLoop)
			}
			tail = id
		}
		tailProb = 1 - plan.selfLoop
	}

	c.states = append(c.states, chainState{event: endEvent})
	c.addSelfLoop(c.end, 1)
	c.addEdge(tail, c.end, tailProb)
	return c, nil
}

// addSelfLoop must run before addEdge for the same source so that next[id]
// and prev[id] stay ordered by destination and source id respectively; the
// passes rely on that order for a defined summation order.
func (c *stateChain) addSelfLoop(id int, p float64) {
	c.next[id] = append(c.next[id], edge{to: id, prob: p})
	c.prev[id] = append(c.prev[id], edge{to: id, prob: p})
}

func (c *stateChain) addEdge(from, to int, p float64) {
	c.next[from] = append(c.next[from], edge{to: to, prob: p})
	// Incoming cross edge precedes the self-loop: sources sort below the
	// destination in a left-to-right chain.
	c.prev[to] = append([]edge{{to: from, prob: p}}, c.prev[to]...)
}

func (c *stateChain) eventOf(id int) int {
	return c.states[id].event
}
