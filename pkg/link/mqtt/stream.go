package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Role selects which side of a device's topics a Stream takes.
type Role int

// Roles.
const (
	RoleDevice Role = iota
	RoleOperator
)

// ParseRole parses the role query parameter. Empty is RoleDevice.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "device":
		return RoleDevice, nil
	case "operator":
		return RoleOperator, nil
	}
	return RoleDevice, fmt.Errorf("unknown role %q", s)
}

// String implements fmt.Stringer.
func (r Role) String() string {
	if r == RoleOperator {
		return "operator"
	}
	return "device"
}

// Topic suffixes under a device.
const (
	TopicIn   = "in"
	TopicOut  = "out"
	TopicMeta = "meta"
)

// ErrMissingDevice indicates the URL does not name a device.
var ErrMissingDevice = errors.New("missing device id")

// DeviceTopic returns the topic of a device, relative to the prefix.
func DeviceTopic(device, suffix string) string {
	return device + "/" + suffix
}

// Meta is the retained presence of a device.
type Meta struct {
	ID      string    `json:"id"`
	Host    string    `json:"host,omitempty"`
	Started time.Time `json:"started"`
}

// Stream is a byte stream over the in/out topics of a device.
type Stream struct {
	Queue  *Queue
	Device string
	Role   Role

	sub    *Subscription
	lock   sync.Mutex
	cond   *sync.Cond
	buf    bytes.Buffer
	closed bool
}

// NewStream creates a Stream on an unconnected Queue.
// As RoleDevice it registers the presence and its will.
func NewStream(q *Queue, device string, role Role) *Stream {
	s := &Stream{Queue: q, Device: device, Role: role}
	s.cond = sync.NewCond(&s.lock)
	in := TopicIn
	if role == RoleOperator {
		in = TopicOut
	}
	s.sub = q.Sub(DeviceTopic(device, in), s.handleMsg)
	if role == RoleDevice {
		q.OnConnect = func(*Queue) { s.publishMeta() }
	}
	return s
}

// Dial connects to mqtt://host:port/prefix/device?role=device|operator.
func Dial(u *url.URL) (*Stream, error) {
	role, err := ParseRole(u.Query().Get("role"))
	if err != nil {
		return nil, err
	}
	opts, topicPath, err := ClientOptionsFromURL(u)
	if err != nil {
		return nil, err
	}
	prefix, device := SplitDevice(topicPath)
	if device == "" {
		return nil, ErrMissingDevice
	}
	if role == RoleDevice {
		opts.SetBinaryWill(prefix+DeviceTopic(device, TopicMeta), nil, 1, true)
	}
	if opts.ClientID == "" {
		opts.SetClientID(fmt.Sprintf("debugport:%s:%s:%d", role, device, os.Getpid()))
	}
	s := NewStream(NewQueue(opts, prefix), device, role)
	token := s.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return s, nil
}

// Read implements io.Reader. It blocks until data arrives or the
// Stream is closed.
func (s *Stream) Read(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for s.buf.Len() == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.buf.Len() == 0 {
		return 0, io.EOF
	}
	return s.buf.Read(p)
}

// Write implements io.Writer. Each Write is published as one message.
func (s *Stream) Write(p []byte) (int, error) {
	s.lock.Lock()
	closed := s.closed
	s.lock.Unlock()
	if closed {
		return 0, io.ErrClosedPipe
	}
	out := TopicOut
	if s.Role == RoleOperator {
		out = TopicIn
	}
	token := s.Queue.Pub(DeviceTopic(s.Device, out), append([]byte(nil), p...))
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer. A device clears its presence.
func (s *Stream) Close() error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Broadcast()
	s.lock.Unlock()

	err := s.sub.Close()
	if s.Role == RoleDevice && s.Queue.Client.IsConnected() {
		s.Queue.PubWith(DeviceTopic(s.Device, TopicMeta), nil, 1, true).Wait()
	}
	s.Queue.Close()
	return err
}

func (s *Stream) handleMsg(_ string, payload []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return
	}
	s.buf.Write(payload)
	s.cond.Broadcast()
}

func (s *Stream) publishMeta() {
	meta := Meta{ID: s.Device, Started: time.Now().UTC()}
	meta.Host, _ = os.Hostname()
	payload, err := json.Marshal(&meta)
	if err != nil {
		glog.Errorf("mqtt: encode meta: %v", err)
		return
	}
	s.Queue.PubWith(DeviceTopic(s.Device, TopicMeta), payload, 1, true)
}
