// Package speech speaks recognized signs and words through an external command.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/yubimoji/internal/logging"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultQueueSize = 8
	textPlaceholder  = "{text}"
)

// ErrTimeout is returned when the speech command runs past its timeout.
var ErrTimeout = errors.New("speech command timed out")

// Speaker says text without waiting for it to finish.
type Speaker interface {
	Speak(text string)
}

// Nop discards everything.
type Nop struct{}

// Speak implements Speaker.
func (Nop) Speak(string) {}

// Config configures a CommandSpeaker.
type Config struct {
	// Command is the executable, e.g. "say" or "espeak-ng".
	Command string
	// Args are passed before the text. An argument equal to "{text}" is
	// replaced by the text instead of appending it.
	Args      []string
	Timeout   time.Duration
	QueueSize int
}

// CommandSpeaker runs one speech command at a time from a bounded queue.
// Speak drops text when the queue is full so recognition never waits on audio.
type CommandSpeaker struct {
	config Config
	logger *slog.Logger
	queue  chan string

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

var _ Speaker = (*CommandSpeaker)(nil)

// NewCommandSpeaker starts the speech worker.
func NewCommandSpeaker(config Config, logger *slog.Logger) (*CommandSpeaker, error) {
	config.Command = strings.TrimSpace(config.Command)
	if config.Command == "" {
		return nil, errors.New("speech command required")
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}

	s := &CommandSpeaker{
		config: config,
		logger: logging.NewComponentLogger(logger, "speech"),
		queue:  make(chan string, config.QueueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Speak queues text.
func (s *CommandSpeaker) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- text:
	default:
		s.logger.Debug("speech queue full, dropping", "text", text)
	}
}

// Close stops accepting text and waits for queued text to be spoken.
func (s *CommandSpeaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return nil
}

func (s *CommandSpeaker) run() {
	defer close(s.done)
	for text := range s.queue {
		if err := s.Say(context.Background(), text); err != nil {
			s.logger.Warn("speech failed", "text", text, "error", err)
		}
	}
}

// Say runs the speech command for text and waits for it to exit.
func (s *CommandSpeaker) Say(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.config.Command, commandArgs(s.config.Args, text)...)

	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, s.config.Timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech command failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("speech command failed: %w", err)
	}
	return nil
}

func commandArgs(args []string, text string) []string {
	out := make([]string, 0, len(args)+1)
	substituted := false
	for _, arg := range args {
		if arg == textPlaceholder {
			out = append(out, text)
			substituted = true
			continue
		}
		out = append(out, arg)
	}
	if !substituted {
		out = append(out, text)
	}
	return out
}
