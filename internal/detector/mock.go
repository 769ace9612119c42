package detector

import (
	"slices"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns canned hands. Queued results are served first, one
// per call; after that every call returns the hands set by SetHands.
type MockDetector struct {
	mu         sync.Mutex
	queue      [][]HandLandmarks
	hands      []HandLandmarks
	err        error
	timestamps []int64
}

var _ Detector = (*MockDetector)(nil)

// NewMockDetector returns a detector that sees no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the steady-state result.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	m.hands = hands
	m.mu.Unlock()
}

// Queue appends one-shot results served before the steady state.
func (m *MockDetector) Queue(results ...[]HandLandmarks) {
	m.mu.Lock()
	m.queue = append(m.queue, results...)
	m.mu.Unlock()
}

// SetError makes Detect fail with err until it is cleared with nil.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MockDetector) Detect(_ *gocv.Mat, timestampMs int64) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timestamps = append(m.timestamps, timestampMs)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Timestamps lists the stamps Detect saw, in call order.
func (m *MockDetector) Timestamps() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.timestamps)
}

func (m *MockDetector) Close() error { return nil }
