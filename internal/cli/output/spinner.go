package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner animates a status line while a long operation runs.
type Spinner struct {
	w       io.Writer
	message string
	frames  []string
	active  bool

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner creates a spinner. It only animates when w is a terminal.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		active:  IsTerminal(w),
		done:    make(chan struct{}),
	}
}

// Start starts the animation.
func (s *Spinner) Start() {
	if !s.active {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the animation and clears the line. Safe to call repeatedly.
func (s *Spinner) Stop() {
	s.stop("")
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	s.stop("✓ " + message)
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	s.stop("✗ " + message)
}

func (s *Spinner) stop(final string) {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		if s.active {
			fmt.Fprint(s.w, "\r\033[K")
		}
		if final != "" {
			fmt.Fprintln(s.w, final)
		}
	})
}
