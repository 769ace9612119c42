package sign

import (
	"errors"
	"fmt"
	"math"
)

// DefaultThreshold is the probability a sign must exceed to be accepted.
const DefaultThreshold = 0.5

// ErrMalformedResponse is returned for probability vectors that cannot be
// mapped onto the alphabet.
var ErrMalformedResponse = errors.New("malformed classifier response")

// Candidate is an accepted sign and the probability the classifier gave it.
type Candidate struct {
	Sign        string  `json:"sign"`
	Probability float64 `json:"probability"`
}

// Decider gates classifier output on a confidence threshold.
type Decider struct {
	threshold float64
}

// NewDecider creates a Decider. A zero threshold means unset; it and any
// threshold outside (0,1) fall back to DefaultThreshold.
func NewDecider(threshold float64) *Decider {
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Decider{threshold: threshold}
}

// Threshold returns the acceptance threshold.
func (d *Decider) Threshold() float64 {
	return d.threshold
}

// Decide picks the most probable sign. Ties go to the lowest index.
//
// ok is false when the best probability does not exceed the threshold; best
// still carries that probability so callers can report it. A vector that is
// not exactly ClassCount finite probabilities in [0,1] yields
// ErrMalformedResponse.
func (d *Decider) Decide(probabilities []float64) (best Candidate, ok bool, err error) {
	switch n := len(probabilities); {
	case n < ClassCount:
		return Candidate{}, false, fmt.Errorf("%w: %d probabilities, expected %d",
			ErrMalformedResponse, n, ClassCount)
	case n > ClassCount:
		// A classifier trained on a larger alphabet (e.g. with わ) lands here.
		return Candidate{}, false, fmt.Errorf("%w: %d probabilities for a %d-sign alphabet; classifier alphabet mismatch",
			ErrMalformedResponse, n, ClassCount)
	}

	maxIdx := 0
	for i, p := range probabilities {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return Candidate{}, false, fmt.Errorf("%w: probability %d is %v", ErrMalformedResponse, i, p)
		}
		if p > probabilities[maxIdx] {
			maxIdx = i
		}
	}

	maxProb := probabilities[maxIdx]
	if maxProb <= d.threshold {
		return Candidate{Probability: maxProb}, false, nil
	}

	return Candidate{Sign: Alphabet[maxIdx], Probability: maxProb}, true, nil
}
