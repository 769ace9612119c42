// Package event defines the notifications a recognition session publishes.
package event

import "github.com/ayusman/yubimoji/internal/detector"

// SignUpdate reports the outcome of one classified frame. Sign is empty
// when no class cleared the threshold; Probability then holds the best
// score seen.
type SignUpdate struct {
	SessionID   string  `json:"session_id"`
	Seq         uint64  `json:"seq"`
	Sign        string  `json:"sign"`
	Probability float64 `json:"probability"`
}

// Accepted reports whether a sign cleared the threshold.
func (u SignUpdate) Accepted() bool {
	return u.Sign != ""
}

// WordEvent reports a resolved dictionary word.
type WordEvent struct {
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`
	Reading   string `json:"reading"`
	Word      string `json:"word"`
}

// Observer receives session notifications. Calls for one session are
// serialized and arrive in sequence order.
type Observer interface {
	SignUpdated(SignUpdate)
	WordResolved(WordEvent)
}

// LandmarkObserver receives the raw hands of every processed frame.
type LandmarkObserver interface {
	LandmarksDetected(sessionID string, hands []detector.HandLandmarks)
}

// Funcs adapts plain functions to Observer. Nil fields are skipped.
type Funcs struct {
	OnSign func(SignUpdate)
	OnWord func(WordEvent)
}

// SignUpdated implements Observer.
func (f Funcs) SignUpdated(u SignUpdate) {
	if f.OnSign != nil {
		f.OnSign(u)
	}
}

// WordResolved implements Observer.
func (f Funcs) WordResolved(w WordEvent) {
	if f.OnWord != nil {
		f.OnWord(w)
	}
}
