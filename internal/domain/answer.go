package domain

import "time"

// Answer is the result of one question. Confidence is a retrieval-quality
// heuristic in [0,1], not a calibrated probability.
type Answer struct {
	Text       string
	Confidence float64
	Contexts   []string // up to 3 retrieved summary snippets
	Elapsed    time.Duration
}
