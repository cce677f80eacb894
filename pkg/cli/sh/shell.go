package sh

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/abiosoft/ishell"
	"golang.org/x/term"

	"github.com/robotalks/debugport/pkg/env"
	"github.com/robotalks/debugport/pkg/link"
	"github.com/robotalks/debugport/pkg/link/mqtt"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	AutoConnect bool
	// Linger is how long device output is awaited before exiting
	// in non-interactive mode.
	Linger time.Duration

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
	// Open opens links, link.Open by default.
	Open func(rawURL string) (io.ReadWriteCloser, error)
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly bool
	linger   = 500 * time.Millisecond

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.DurationVar(&linger, "linger", linger, "Time to print device output before exit in evaluation mode.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Linger:      linger,

		Shell:  ishell.New(),
		Config: conf,
		Open: func(rawURL string) (io.ReadWriteCloser, error) {
			return link.Open(rawURL)
		},
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context, s *Session)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		sess := ShellFrom(c).Session
		if sess == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c, sess)
	}
}

// OperatorURL makes an MQTT link URL take the operator role and name
// the configured device when the URL does not.
func OperatorURL(rawURL, device string) string {
	rawURL = link.WithDevice(rawURL, device)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "mqtt" && u.Scheme != "mqtts") {
		return rawURL
	}
	query := u.Query()
	if query.Get("role") == "" {
		query.Set("role", mqtt.RoleOperator.String())
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Connect opens a link to a device console.
func (s *Shell) Connect(rawURL string) error {
	rawURL = OperatorURL(rawURL, s.Config.DeviceID)
	rw, err := s.Open(rawURL)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Session = NewSession(rawURL, rw, os.Stdout)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", rawURL))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// AttachStdin forwards the local terminal in raw mode to the device.
func (s *Shell) AttachStdin() error {
	if s.Session == nil {
		return fmt.Errorf("not connected")
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, state)
	}
	return s.Session.Attach(os.Stdin)
}

// Discover lists devices announced under the configured MQTT link.
func (s *Shell) Discover(ctx context.Context) ([]mqtt.Meta, error) {
	u, err := url.Parse(s.Config.Link)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "mqtt" && u.Scheme != "mqtts" {
		return nil, fmt.Errorf("discovery requires an mqtt link, got %q", u.Scheme)
	}
	prefix, _ := mqtt.SplitDevice(u.Path)
	u.Path, u.RawQuery = "/"+prefix, ""
	return mqtt.Discover(ctx, u, mqtt.DefaultDiscoverTimeout)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Link != "" && s.Config.Link != "stdio:" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Link)
		}
		if err := s.Connect(s.Config.Link); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Link, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		if s.Session != nil {
			time.Sleep(s.Linger)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers devices on the MQTT broker.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"devices"},
		Help:    "",
		Func: func(c *ishell.Context) {
			devices, err := ShellFrom(c).Discover(context.TODO())
			if err != nil {
				c.Err(err)
				return
			}
			if len(devices) == 0 {
				c.Println("No devices found")
				return
			}
			for _, meta := range devices {
				c.Printf("%s: %s since %s\n", meta.ID, meta.Host, meta.Started.Local().Format(time.RFC3339))
			}
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			rawURL := s.Config.Link
			if len(c.Args) > 0 {
				rawURL = c.Args[0]
			}
			if err := s.Connect(rawURL); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s := New(env.NewConfig())
	s.AutoConnect = true
	s.Run(flag.Args()...)
}
