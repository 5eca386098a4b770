package align

import (
	"fmt"
	"sort"
)

// hypothesis is one (state, probability) entry of a beam. Beams are kept
// sorted by probability descending, with the higher state id first on equal
// probability.
type hypothesis struct {
	state int
	prob  float64
}

func sortHypotheses(h []hypothesis) {
	sort.Slice(h, func(i, j int) bool {
		if h[i].prob != h[j].prob {
			return h[i].prob > h[j].prob
		}
		return h[i].state > h[j].state
	})
}

// accumulator coalesces per-frame transition proposals by destination state.
// Proposals are summed in arrival order; drain returns the merged hypotheses
// in first-touched order, so the whole pass is deterministic.
type accumulator struct {
	prob    []float64
	seen    []bool
	touched []int
}

func newAccumulator(states int) *accumulator {
	return &accumulator{
		prob: make([]float64, states),
		seen: make([]bool, states),
	}
}

func (ac *accumulator) add(state int, p float64) {
	if !ac.seen[state] {
		ac.seen[state] = true
		ac.touched = append(ac.touched, state)
	}
	ac.prob[state] += p
}

func (ac *accumulator) drain() []hypothesis {
	out := make([]hypothesis, 0, len(ac.touched))
	for _, id := range ac.touched {
		out = append(out, hypothesis{state: id, prob: ac.prob[id]})
		ac.prob[id] = 0
		ac.seen[id] = false
	}
	ac.touched = ac.touched[:0]
	return out
}

// finishFrame turns the coalesced proposals into the surviving beam for one
// frame: sort, trim to the beam width, renormalise.
func (a *Aligner) finishFrame(ac *accumulator, pass string, frame int) ([]hypothesis, error) {
	beam := ac.drain()
	sortHypotheses(beam)
	if len(beam) > a.cfg.BeamWidth {
		beam = beam[:a.cfg.BeamWidth]
	}
	total := 0.0
	for _, h := range beam {
		total += h.prob
	}
	if total == 0 {
		return nil, fmt.Errorf("%s pass at frame %d: %w", pass, frame, ErrInferenceDegenerate)
	}
	for i := range beam {
		beam[i].prob /= total
	}
	return beam, nil
}

// forwardPass computes the beam-pruned, per-frame normalised forward
// probabilities. Frame 0 holds the start sentinel alone; each later frame is
// reached through the successors of the previous beam, weighting every
// arrival by the destination state's observation likelihood.
func (a *Aligner) forwardPass(chain *stateChain) ([][]hypothesis, error) {
	totalFrames := len(a.features)
	forward := make([][]hypothesis, 0, totalFrames)
	forward = append(forward, []hypothesis{{state: chain.start, prob: 1}})

	ac := newAccumulator(len(chain.states))
	for frame := 1; frame < totalFrames; frame++ {
		for _, h := range forward[frame-1] {
			for _, next := range chain.next[h.state] {
				like, err := a.Likelihood(frame, chain.eventOf(next.to))
				if err != nil {
					return nil, err
				}
				ac.add(next.to, h.prob*next.prob*like)
			}
		}
		beam, err := a.finishFrame(ac, "forward", frame)
		if err != nil {
			return nil, err
		}
		forward = append(forward, beam)
	}
	return forward, nil
}

// backwardPass is the mirror recursion from the end sentinel. The
// observation likelihood is taken at the destination frame of each backward
// step (frame+1, at the state being left), matching the forward pass under
// the standard factorisation of the remaining observations.
func (a *Aligner) backwardPass(chain *stateChain) ([][]hypothesis, error) {
	totalFrames := len(a.features)
	backward := make([][]hypothesis, totalFrames)
	backward[totalFrames-1] = []hypothesis{{state: chain.end, prob: 1}}

	ac := newAccumulator(len(chain.states))
	for frame := totalFrames - 2; frame >= 0; frame-- {
		for _, h := range backward[frame+1] {
			like, err := a.Likelihood(frame+1, chain.eventOf(h.state))
			if err != nil {
				return nil, err
			}
			for _, prev := range chain.prev[h.state] {
				ac.add(prev.to, h.prob*prev.prob*like)
			}
		}
		beam, err := a.finishFrame(ac, "backward", frame)
		if err != nil {
			return nil, err
		}
		backward[frame] = beam
	}
	return backward, nil
}

// posterior forms the per-frame products of forward and backward
// probabilities over the states present in both beams. The products are not
// renormalised: the windowed vote compares sums across frames, and the
// per-frame scale must stay as the passes left it.
func posterior(forward, backward [][]hypothesis, states int) [][]hypothesis {
	beta := make([]float64, states)
	inBeta := make([]bool, states)
	post := make([][]hypothesis, len(forward))
	for frame := range forward {
		for _, h := range backward[frame] {
			beta[h.state] = h.prob
			inBeta[h.state] = true
		}
		var joint []hypothesis
		for _, h := range forward[frame] {
			if inBeta[h.state] {
				joint = append(joint, hypothesis{state: h.state, prob: h.prob * beta[h.state]})
			}
		}
		for _, h := range backward[frame] {
			beta[h.state] = 0
			inBeta[h.state] = false
		}
		post[frame] = joint
	}
	return post
}

// vote reduces the posteriors to one onset frame per event. For each event
// it scans candidate windows of WindowSize frames, scoring each by the
// posterior mass on the event's entry micro-state, and emits the centre of
// the best-scoring window. The first window scanned is centred one frame
// after the previous event's onset, so a voted onset always falls later
// than the previous one. An event whose every window scores zero inherits
// the previous onset; that is the only case in which two events share a
// frame.
func (a *Aligner) vote(post [][]hypothesis, chain *stateChain) []int {
	totalFrames := len(post)
	w := a.cfg.WindowSize
	half := w / 2

	results := make([]int, 0, len(chain.entry))
	for event := range chain.entry {
		entry := chain.entry[event]

		startFrame := 0
		if len(results) > 0 {
			startFrame = results[len(results)-1] - half + 1
			if startFrame < 0 {
				startFrame = 0
			}
		}

		bestScore := 0.0
		bestFrame := -1
		for frame := startFrame; frame+w <= totalFrames; frame++ {
			score := 0.0
			for u := frame; u < frame+w; u++ {
				for _, h := range post[u] {
					if h.state == entry {
						score += h.prob
					}
				}
			}
			if score > bestScore {
				bestScore = score
				bestFrame = frame + half
			}
		}

		if bestFrame < 0 {
			if event == 0 {
				bestFrame = 0
			} else {
				bestFrame = results[event-1]
			}
		}
		results = append(results, bestFrame)
	}
	return results
}
