package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/yubimoji/internal/classifier"
	"github.com/ayusman/yubimoji/internal/detector"
	"github.com/ayusman/yubimoji/internal/event"
	"github.com/ayusman/yubimoji/internal/feature"
	"github.com/ayusman/yubimoji/internal/logging"
	"github.com/ayusman/yubimoji/internal/sign"
	"github.com/ayusman/yubimoji/internal/word"
)

// ErrSessionClosed is returned by operations on a closed Session.
var ErrSessionClosed = errors.New("session closed")

// SessionConfig holds the collaborators and tunables of a Session.
type SessionConfig struct {
	// ID identifies the session in events and logs. A UUID is generated when empty.
	ID                string
	Predictor         classifier.Predictor
	Dictionary        *word.Dictionary
	// RequestsPerSecond and Threshold take their defaults when zero.
	RequestsPerSecond float64
	Threshold         float64
	Logger            *slog.Logger
}

// State is a point-in-time view of a Session.
type State struct {
	SessionID       string  `json:"session_id"`
	Pending         string  `json:"pending"`
	LastSign        string  `json:"last_sign"`
	LastProbability float64 `json:"last_probability"`
	LastWord        string  `json:"last_word"`
	LastSeq         uint64  `json:"last_seq"`
	Dispatched      uint64  `json:"dispatched"`
	Threshold       float64 `json:"threshold"`
}

// Session turns a stream of hand detections into signs and words.
//
// Detections are handled on the caller's goroutine; each classification
// runs on its own goroutine. Responses are applied in dispatch order: a
// response whose sequence number is not newer than the last applied one is
// dropped. Observers are called outside the session lock, one at a time,
// in the order responses were applied. They must not block for long.
type Session struct {
	id        string
	predictor classifier.Predictor
	decider   *sign.Decider
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	scheduler   *Scheduler
	composer    *word.Composer
	lastApplied uint64
	dispatched  uint64
	lastSign    string
	lastProb    float64
	lastWord    string
	closed      bool
	pubNext     uint64

	pubMu   sync.Mutex
	pubCond *sync.Cond
	pubTurn uint64

	obsMu     sync.RWMutex
	observers []event.Observer
}

// NewSession creates a Session. A nil Dictionary resolves no words.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Predictor == nil {
		return nil, errors.New("session requires a predictor")
	}
	id := cfg.ID
	if id == "" {
		id = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		predictor: cfg.Predictor,
		decider:   sign.NewDecider(cfg.Threshold),
		logger: logging.NewComponentLogger(cfg.Logger, "session").
			With(slog.String(logging.FieldSessionID, id)),
		ctx:       ctx,
		cancel:    cancel,
		scheduler: NewScheduler(cfg.RequestsPerSecond),
		composer:  word.NewComposer(cfg.Dictionary),
	}
	s.pubCond = sync.NewCond(&s.pubMu)
	s.logger.Debug("session created",
		"interval", s.scheduler.Interval(),
		"threshold", s.decider.Threshold())
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AddObserver registers obs for future updates.
func (s *Session) AddObserver(obs event.Observer) {
	if obs == nil {
		return
	}
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, obs)
}

// HandleDetection processes the hands found in one frame. It returns true
// when a classification request was dispatched. Frames without hands are
// ignored and do not consume the rate limit.
func (s *Session) HandleDetection(ctx context.Context, hands []detector.HandLandmarks, now time.Time) bool {
	return s.HandlePoints(ctx, detector.Flatten(hands), now)
}

// HandlePoints is HandleDetection for an already flattened landmark set.
func (s *Session) HandlePoints(ctx context.Context, points []detector.Point3D, now time.Time) bool {
	if len(points) == 0 || ctx.Err() != nil {
		return false
	}
	features := feature.Normalize(points)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	ticket, ok := s.scheduler.MaybeDispatch(features, now)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.dispatched++
	s.wg.Add(1)
	s.mu.Unlock()

	reqCtx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer stop()

		probs, err := s.predictor.Predict(reqCtx, ticket.Features)
		s.apply(ticket, probs, err)
	}()
	return true
}

func (s *Session) apply(ticket Ticket, probs []float64, callErr error) {
	logger := s.logger.With(
		slog.Uint64(logging.FieldSeq, ticket.Seq),
		slog.Duration("latency", time.Since(ticket.IssuedAt)),
	)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if last := s.lastApplied; ticket.Seq <= last {
		s.mu.Unlock()
		logger.Debug("dropping stale classification", "last_applied", last)
		return
	}
	if callErr != nil {
		s.mu.Unlock()
		logger.Warn("classification failed", "error", callErr)
		return
	}
	candidate, accepted, err := s.decider.Decide(probs)
	if err != nil {
		s.mu.Unlock()
		logger.Warn("classification rejected", "error", err)
		return
	}

	s.lastApplied = ticket.Seq
	s.lastSign = candidate.Sign
	s.lastProb = candidate.Probability
	update := event.SignUpdate{
		SessionID:   s.id,
		Seq:         ticket.Seq,
		Sign:        candidate.Sign,
		Probability: candidate.Probability,
	}

	var resolved *event.WordEvent
	if accepted {
		pending, _ := s.composer.Pending()
		if w, ok := s.composer.Accept(candidate.Sign); ok {
			s.lastWord = w
			resolved = &event.WordEvent{
				SessionID: s.id,
				Seq:       ticket.Seq,
				Reading:   pending + candidate.Sign,
				Word:      w,
			}
		}
	}
	turn := s.pubNext
	s.pubNext++
	s.mu.Unlock()

	if accepted {
		logger.Debug("sign accepted", "sign", candidate.Sign, "probability", candidate.Probability)
	}
	if resolved != nil {
		logger.Info("word resolved", "reading", resolved.Reading, "word", resolved.Word)
	}

	s.publish(turn, update, resolved)
}

// publish delivers one applied response once every earlier one has been
// delivered.
func (s *Session) publish(turn uint64, update event.SignUpdate, resolved *event.WordEvent) {
	s.pubMu.Lock()
	for s.pubTurn != turn {
		s.pubCond.Wait()
	}
	s.pubMu.Unlock()

	defer func() {
		s.pubMu.Lock()
		s.pubTurn++
		s.pubCond.Broadcast()
		s.pubMu.Unlock()
	}()

	s.obsMu.RLock()
	observers := append([]event.Observer(nil), s.observers...)
	s.obsMu.RUnlock()

	for _, obs := range observers {
		obs.SignUpdated(update)
	}
	if resolved != nil {
		for _, obs := range observers {
			obs.WordResolved(*resolved)
		}
	}
}

// Reset clears the pending sign.
func (s *Session) Reset() {
	s.mu.Lock()
	s.composer.Reset()
	s.mu.Unlock()
	s.logger.Info("session reset")
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, _ := s.composer.Pending()
	return State{
		SessionID:       s.id,
		Pending:         pending,
		LastSign:        s.lastSign,
		LastProbability: s.lastProb,
		LastWord:        s.lastWord,
		LastSeq:         s.lastApplied,
		Dispatched:      s.dispatched,
		Threshold:       s.decider.Threshold(),
	}
}

// Wait blocks until every in-flight classification has been applied or dropped.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight classifications and waits for them to finish.
// Responses arriving after Close are discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}
