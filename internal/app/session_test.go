package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/yubimoji/internal/detector"
	"github.com/ayusman/yubimoji/internal/event"
	"github.com/ayusman/yubimoji/internal/feature"
	"github.com/ayusman/yubimoji/internal/sign"
	"github.com/ayusman/yubimoji/internal/word"
)

// probabilities returns a 40-class vector peaking at s with probability p.
func probabilities(t *testing.T, s string, p float64) []float64 {
	t.Helper()
	idx := sign.Index(s)
	if idx < 0 {
		t.Fatalf("unknown sign %q", s)
	}
	out := make([]float64, sign.ClassCount)
	rest := (1 - p) / float64(sign.ClassCount-1)
	for i := range out {
		out[i] = rest
	}
	out[idx] = p
	return out
}

type predictResult struct {
	probs []float64
	err   error
}

// queuedPredictor answers calls in order from a fixed list of results.
type queuedPredictor struct {
	mu      sync.Mutex
	results []predictResult
	calls   int
}

func (q *queuedPredictor) Predict(ctx context.Context, features feature.Vector) ([]float64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if len(q.results) == 0 {
		return nil, errors.New("no scripted result")
	}
	r := q.results[0]
	q.results = q.results[1:]
	return r.probs, r.err
}

func (q *queuedPredictor) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

// gatedPredictor blocks each call until the test releases it.
type gatedPredictor struct {
	calls chan *gatedCall
}

type gatedCall struct {
	features feature.Vector
	reply    chan predictResult
}

func newGatedPredictor() *gatedPredictor {
	return &gatedPredictor{calls: make(chan *gatedCall, 8)}
}

func (g *gatedPredictor) Predict(ctx context.Context, features feature.Vector) ([]float64, error) {
	call := &gatedCall{features: features, reply: make(chan predictResult, 1)}
	g.calls <- call
	select {
	case r := <-call.reply:
		return r.probs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedPredictor) next(t *testing.T) *gatedCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for classifier call")
		return nil
	}
}

type recorder struct {
	mu      sync.Mutex
	signs   []event.SignUpdate
	words   []event.WordEvent
	updated chan struct{}
}

func newRecorder() *recorder {
	return &recorder{updated: make(chan struct{}, 16)}
}

func (r *recorder) SignUpdated(u event.SignUpdate) {
	r.mu.Lock()
	r.signs = append(r.signs, u)
	r.mu.Unlock()
	r.updated <- struct{}{}
}

func (r *recorder) WordResolved(w event.WordEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.words = append(r.words, w)
}

func (r *recorder) Signs() []event.SignUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.SignUpdate(nil), r.signs...)
}

func (r *recorder) Words() []event.WordEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.WordEvent(nil), r.words...)
}

func (r *recorder) waitUpdate(t *testing.T) {
	t.Helper()
	select {
	case <-r.updated:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sign update")
	}
}

func newTestSession(t *testing.T, p interface {
	Predict(context.Context, feature.Vector) ([]float64, error)
}) (*Session, *recorder) {
	t.Helper()
	dict, err := word.NewDictionary(word.DefaultEntries())
	if err != nil {
		t.Fatalf("NewDictionary() error = %v", err)
	}
	s, err := NewSession(SessionConfig{
		ID:                "test",
		Predictor:         p,
		Dictionary:        dict,
		RequestsPerSecond: 2,
		Threshold:         0.5,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	rec := newRecorder()
	s.AddObserver(rec)
	t.Cleanup(func() { s.Close() })
	return s, rec
}

var testHands = []detector.HandLandmarks{detector.FistLandmarks()}

func TestNewSession_RequiresPredictor(t *testing.T) {
	if _, err := NewSession(SessionConfig{}); err == nil {
		t.Fatal("expected error without predictor")
	}
}

func TestSession_ResolvesWordEndToEnd(t *testing.T) {
	p := &queuedPredictor{results: []predictResult{
		{probs: probabilities(t, "さ", 0.92)},
		{probs: probabilities(t, "き", 0.7)},
	}}
	s, rec := newTestSession(t, p)
	ctx := context.Background()
	base := time.Now()

	if !s.HandleDetection(ctx, testHands, base) {
		t.Fatal("first detection should dispatch")
	}
	s.Wait()
	if !s.HandleDetection(ctx, testHands, base.Add(600*time.Millisecond)) {
		t.Fatal("second detection should dispatch")
	}
	s.Wait()

	signs := rec.Signs()
	if len(signs) != 2 || signs[0].Sign != "さ" || signs[1].Sign != "き" {
		t.Fatalf("unexpected sign updates %+v", signs)
	}
	if signs[0].Probability != 0.92 || signs[0].SessionID != "test" {
		t.Errorf("unexpected first update %+v", signs[0])
	}

	words := rec.Words()
	if len(words) != 1 {
		t.Fatalf("WordResolved fired %d times, want 1", len(words))
	}
	if words[0].Word != "先" || words[0].Reading != "さき" || words[0].Seq != 2 {
		t.Errorf("unexpected word event %+v", words[0])
	}

	state := s.State()
	if state.Pending != "" || state.LastWord != "先" || state.LastSeq != 2 {
		t.Errorf("unexpected state %+v", state)
	}
}

func TestSession_ZeroConfigUsesDefaults(t *testing.T) {
	dict, err := word.NewDictionary(word.DefaultEntries())
	if err != nil {
		t.Fatalf("NewDictionary() error = %v", err)
	}
	p := &queuedPredictor{results: []predictResult{
		{probs: probabilities(t, "さ", 0.3)},
	}}
	s, err := NewSession(SessionConfig{Predictor: p, Dictionary: dict})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	rec := newRecorder()
	s.AddObserver(rec)

	if got := s.State().Threshold; got != sign.DefaultThreshold {
		t.Fatalf("Threshold = %v, want %v", got, sign.DefaultThreshold)
	}

	s.HandleDetection(context.Background(), testHands, time.Now())
	s.Wait()

	signs := rec.Signs()
	if len(signs) != 1 || signs[0].Accepted() || signs[0].Probability != 0.3 {
		t.Fatalf("expected one rejected update at 0.3, got %+v", signs)
	}
	if pending := s.State().Pending; pending != "" {
		t.Errorf("pending = %q, want empty", pending)
	}
}

func TestSession_ThrottlesDispatch(t *testing.T) {
	p := &queuedPredictor{results: []predictResult{
		{probs: probabilities(t, "あ", 0.9)},
		{probs: probabilities(t, "い", 0.9)},
	}}
	s, _ := newTestSession(t, p)
	base := time.Now()

	s.HandleDetection(context.Background(), testHands, base)
	if s.HandleDetection(context.Background(), testHands, base.Add(200*time.Millisecond)) {
		t.Error("detection within the interval must not dispatch")
	}
	s.Wait()

	if p.Calls() != 1 {
		t.Errorf("classifier called %d times, want 1", p.Calls())
	}
	if got := s.State().Dispatched; got != 1 {
		t.Errorf("Dispatched = %d, want 1", got)
	}
}

func TestSession_IgnoresFramesWithoutHands(t *testing.T) {
	p := &queuedPredictor{}
	s, _ := newTestSession(t, p)

	if s.HandleDetection(context.Background(), nil, time.Now()) {
		t.Error("empty detection must not dispatch")
	}
	if p.Calls() != 0 {
		t.Errorf("classifier called %d times, want 0", p.Calls())
	}
}

func TestSession_DropsStaleResponses(t *testing.T) {
	p := newGatedPredictor()
	s, rec := newTestSession(t, p)
	ctx := context.Background()
	base := time.Now()

	s.HandleDetection(ctx, testHands, base)
	first := p.next(t)
	s.HandleDetection(ctx, testHands, base.Add(600*time.Millisecond))
	second := p.next(t)

	second.reply <- predictResult{probs: probabilities(t, "さ", 0.9)}
	rec.waitUpdate(t)

	first.reply <- predictResult{probs: probabilities(t, "か", 0.9)}
	s.Wait()

	signs := rec.Signs()
	if len(signs) != 1 {
		t.Fatalf("got %d sign updates, want 1: %+v", len(signs), signs)
	}
	if signs[0].Sign != "さ" || signs[0].Seq != 2 {
		t.Errorf("unexpected update %+v", signs[0])
	}
	if pending := s.State().Pending; pending != "さ" {
		t.Errorf("stale response changed pending to %q", pending)
	}
}

func TestSession_FailuresPublishNothing(t *testing.T) {
	p := &queuedPredictor{results: []predictResult{
		{err: errors.New("connection refused")},
		{probs: probabilities(t, "さ", 0.9)[:39]},
		{probs: probabilities(t, "く", 0.8)},
	}}
	s, rec := newTestSession(t, p)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		s.HandleDetection(ctx, testHands, base.Add(time.Duration(i)*time.Second))
		s.Wait()
	}

	signs := rec.Signs()
	if len(signs) != 1 || signs[0].Sign != "く" || signs[0].Seq != 3 {
		t.Fatalf("unexpected sign updates %+v", signs)
	}
	if len(rec.Words()) != 0 {
		t.Error("no word should resolve")
	}
}

func TestSession_RejectionPublishesEmptySign(t *testing.T) {
	p := &queuedPredictor{results: []predictResult{
		{probs: probabilities(t, "さ", 0.9)},
		{probs: probabilities(t, "き", 0.5)},
	}}
	s, rec := newTestSession(t, p)
	ctx := context.Background()
	base := time.Now()

	s.HandleDetection(ctx, testHands, base)
	s.Wait()
	s.HandleDetection(ctx, testHands, base.Add(time.Second))
	s.Wait()

	signs := rec.Signs()
	if len(signs) != 2 {
		t.Fatalf("got %d sign updates, want 2", len(signs))
	}
	if signs[1].Accepted() || signs[1].Probability != 0.5 {
		t.Errorf("expected rejected update with probability 0.5, got %+v", signs[1])
	}
	if pending := s.State().Pending; pending != "さ" {
		t.Errorf("rejection must not touch pending, got %q", pending)
	}
}

func TestSession_Reset(t *testing.T) {
	p := &queuedPredictor{results: []predictResult{
		{probs: probabilities(t, "さ", 0.9)},
		{probs: probabilities(t, "き", 0.9)},
	}}
	s, rec := newTestSession(t, p)
	ctx := context.Background()
	base := time.Now()

	s.HandleDetection(ctx, testHands, base)
	s.Wait()
	s.Reset()
	if pending := s.State().Pending; pending != "" {
		t.Fatalf("pending after Reset = %q", pending)
	}

	s.HandleDetection(ctx, testHands, base.Add(time.Second))
	s.Wait()
	if len(rec.Words()) != 0 {
		t.Error("き after Reset must not resolve 先")
	}
}

func TestSession_CloseCancelsInFlight(t *testing.T) {
	p := newGatedPredictor()
	s, rec := newTestSession(t, p)

	s.HandleDetection(context.Background(), testHands, time.Now())
	p.next(t)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(rec.Signs()) != 0 {
		t.Error("cancelled call must not publish")
	}
	if s.HandleDetection(context.Background(), testHands, time.Now().Add(time.Minute)) {
		t.Error("closed session must not dispatch")
	}
	if err := s.Close(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("second Close() error = %v, want ErrSessionClosed", err)
	}
}

func TestSession_CallerContextCancelsCall(t *testing.T) {
	p := newGatedPredictor()
	s, rec := newTestSession(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	s.HandleDetection(ctx, testHands, time.Now())
	p.next(t)
	cancel()
	s.Wait()

	if len(rec.Signs()) != 0 {
		t.Error("cancelled call must not publish")
	}
	if s.HandleDetection(ctx, testHands, time.Now().Add(time.Minute)) {
		t.Error("cancelled context must not dispatch")
	}
}
