package link

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Interrupt is the byte sent by Ctrl-C in raw mode.
const Interrupt = 0x03

// Stdio is the local terminal as a link. The terminal is put in raw mode
// so keystrokes reach the console unbuffered and without local echo.
type Stdio struct {
	In  *os.File
	Out io.Writer
	// OnInterrupt is called when Ctrl-C is read. The byte is dropped.
	OnInterrupt func()

	lock  sync.Mutex
	state *term.State
}

// OpenStdio opens os.Stdin and os.Stdout as a link.
func OpenStdio() (*Stdio, error) {
	s := &Stdio{In: os.Stdin, Out: os.Stdout}
	if err := s.makeRaw(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stdio) makeRaw() error {
	fd := int(s.In.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	s.state = state
	return nil
}

// Read implements io.Reader. DEL is translated to backspace.
func (s *Stdio) Read(p []byte) (int, error) {
	n, err := s.In.Read(p)
	out := 0
	for _, b := range p[:n] {
		switch b {
		case Interrupt:
			if fn := s.OnInterrupt; fn != nil {
				fn()
			}
			continue
		case 0x7f:
			b = '\b'
		}
		p[out] = b
		out++
	}
	return out, err
}

// Write implements io.Writer.
func (s *Stdio) Write(p []byte) (int, error) {
	return s.Out.Write(p)
}

// Close restores the terminal. Stdin stays open.
func (s *Stdio) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state == nil {
		return nil
	}
	err := term.Restore(int(s.In.Fd()), s.state)
	s.state = nil
	return err
}
