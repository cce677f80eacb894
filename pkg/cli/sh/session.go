package sh

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/debugport/pkg/console"
	fx "github.com/robotalks/debugport/pkg/framework"
)

// Keys handled by Attach.
const (
	// KeyDetach (Ctrl-]) ends Attach.
	KeyDetach byte = 0x1d
	// KeyDelete is sent by most terminals for backspace.
	KeyDelete byte = 0x7f
)

// Session is an operator connection to a device console.
// Device output is copied to Output in the background.
type Session struct {
	URL    string
	Link   io.ReadWriteCloser
	Output io.Writer

	cancel   func()
	done     chan struct{}
	err      error
	sendLock sync.Mutex
}

// NewSession starts copying from the link to out.
func NewSession(rawURL string, rw io.ReadWriteCloser, out io.Writer) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		URL:    rawURL,
		Link:   rw,
		Output: out,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		s.err = fx.RunWithContextCloser(ctx, rw, func() error {
			_, err := io.Copy(out, rw)
			return err
		})
		glog.V(2).Infof("session %s ended: %v", rawURL, s.err)
	}()
	return s
}

// Done is closed when the link is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the error which ended the session.
func (s *Session) Err() error {
	<-s.done
	return s.err
}

// Write sends raw bytes to the device.
func (s *Session) Write(p []byte) (int, error) {
	s.sendLock.Lock()
	defer s.sendLock.Unlock()
	return s.Link.Write(p)
}

// Send sends a line followed by the execute key.
func (s *Session) Send(line string) error {
	_, err := s.Write(append([]byte(line), console.KeyExecute))
	return err
}

// Key sends a single key.
func (s *Session) Key(key byte) error {
	_, err := s.Write([]byte{key})
	return err
}

// Repeat asks the device to repeat its last command.
func (s *Session) Repeat() error {
	return s.Key(console.KeyRepeat)
}

// List asks the device for its command listing.
func (s *Session) List() error {
	return s.Key(console.KeyHelp)
}

// Clear asks the device to clear the screen.
func (s *Session) Clear() error {
	return s.Send(console.BuiltinClear)
}

// Attach forwards keystrokes from in, translating DEL to backspace,
// until KeyDetach, the end of in, or the end of the session.
func (s *Session) Attach(in io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := in.Read(buf)
		out := buf[:0]
		detach := false
		for _, b := range buf[:n] {
			if b == KeyDetach {
				detach = true
				break
			}
			if b == KeyDelete {
				b = console.KeyBackSpace
			}
			out = append(out, b)
		}
		if len(out) > 0 {
			if _, werr := s.Write(out); werr != nil {
				return werr
			}
		}
		if detach || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case <-s.done:
			return s.err
		default:
		}
	}
}

// Close closes the link.
func (s *Session) Close() error {
	s.cancel()
	<-s.done
	return nil
}
