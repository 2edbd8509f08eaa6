// Package termkeys adapts a raw-mode terminal into an input.KeySource.
//
// Terminals report key presses but no releases, so a key counts as held for
// a hold window after its most recent press; typematic auto-repeat keeps a
// physically held key alive. Arrow keys arrive as ANSI escape sequences and
// are decoded to the same HID codes the controller binds.
package termkeys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/veldra/helmsman/input"
	hlog "github.com/veldra/helmsman/internal/log"
)

// ErrQuit is returned by Run when the user asks to stop (q or Ctrl-C, which
// raw mode delivers as a plain byte).
var ErrQuit = errors.New("termkeys: quit requested")

// DefaultHold is how long a key reads as down after its last press. It must
// exceed the terminal's auto-repeat interval or held keys will flicker.
const DefaultHold = 200 * time.Millisecond

// Config carries the tunables for a Source. Zero values select defaults;
// Clock exists so tests can control time.
type Config struct {
	Hold   time.Duration
	Clock  func() time.Time
	Logger *slog.Logger
}

// Source decodes terminal bytes into timestamped key presses and answers
// IsDown queries against the hold window. Safe for concurrent use.
type Source struct {
	hold   time.Duration
	clock  func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	lastPress map[input.Key]time.Time
	esc       []byte
}

func New(cfg Config) *Source {
	if cfg.Hold == 0 {
		cfg.Hold = DefaultHold
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Source{
		hold:      cfg.Hold,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		lastPress: make(map[input.Key]time.Time),
	}
}

// IsDown reports whether k was pressed within the hold window.
func (s *Source) IsDown(k input.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastPress[k]
	if !ok {
		return false
	}
	return s.clock().Sub(t) <= s.hold
}

// RunTerminal puts stdin into raw mode and feeds it to Run, restoring the
// terminal on return.
func (s *Source) RunTerminal(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("termkeys: stdin is not a terminal")
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("termkeys: enter raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, old) }()
	return s.Run(ctx, os.Stdin)
}

// Run consumes r until EOF, a quit byte (ErrQuit) or a read error. A blocked
// read is not interrupted by ctx; cancellation takes effect once the next
// byte arrives.
func (s *Source) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if err := s.Feed(buf[:n]); err != nil {
				return err
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("termkeys: read: %w", err)
		}
	}
}

// Feed decodes a chunk of terminal bytes. Escape sequences may be split
// across chunks; decoding state is kept between calls.
func (s *Source) Feed(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for _, b := range data {
		k, quit := s.decode(b)
		if quit {
			return ErrQuit
		}
		if k != 0 {
			s.lastPress[k] = now
			s.logger.Log(context.Background(), hlog.LevelTrace, "key press", "key", int(k))
		}
	}
	return nil
}

// decode advances the escape-sequence state machine by one byte and returns
// the decoded key, if any. Must be called with mu held.
func (s *Source) decode(b byte) (key input.Key, quit bool) {
	if len(s.esc) > 0 {
		return s.decodeEscape(b)
	}

	switch b {
	case 0x1b:
		s.esc = append(s.esc, b)
		return 0, false
	case 0x03, 'q', 'Q': // Ctrl-C or q
		return 0, true
	case 'w', 'W':
		return input.KeyW, false
	case 'a', 'A':
		return input.KeyA, false
	case 's', 'S':
		return input.KeyS, false
	case 'd', 'D':
		return input.KeyD, false
	case 'r', 'R':
		return input.KeyR, false
	case ' ':
		return input.KeySpace, false
	default:
		return 0, false
	}
}

func (s *Source) decodeEscape(b byte) (key input.Key, quit bool) {
	if len(s.esc) == 1 {
		if b != '[' && b != 'O' {
			// Bare escape followed by something else; drop both.
			s.esc = s.esc[:0]
			return 0, false
		}
		s.esc = append(s.esc, b)
		return 0, false
	}

	s.esc = s.esc[:0]
	switch b {
	case 'A':
		return input.KeyArrowUp, false
	case 'B':
		return input.KeyArrowDown, false
	case 'C':
		return input.KeyArrowRight, false
	case 'D':
		return input.KeyArrowLeft, false
	default:
		return 0, false
	}
}
