package console

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/debugport/pkg/framework"
	"github.com/robotalks/debugport/pkg/term"
)

// Receiver provides received bytes without blocking.
type Receiver interface {
	Receive(dst []byte) int
}

// ReceiveFunc is func type of Receiver.
type ReceiveFunc func(dst []byte) int

// Receive implements Receiver.
func (f ReceiveFunc) Receive(dst []byte) int {
	return f(dst)
}

const (
	// DefaultPrompt is printed after every resolved line.
	DefaultPrompt = "Command: "
	// DefaultScratchSize is the number of bytes drained per poll.
	DefaultScratchSize = 64
)

// Console binds a Registry and a Parser to an input and an output.
// It must be owned by a single task: nothing in it is safe for
// concurrent use, and handlers must not call back into it.
type Console struct {
	Registry *Registry
	Input    Receiver
	Output   io.Writer
	Prompt   string

	parser  *Parser
	pending bytes.Buffer
	scratch []byte
}

// New creates a Console.
func New(reg *Registry, in Receiver, out io.Writer) *Console {
	if reg == nil {
		reg = NewRegistry(DefaultLimits())
	}
	return &Console{
		Registry: reg,
		Input:    in,
		Output:   out,
		Prompt:   DefaultPrompt,
		parser:   NewParser(reg.Limits().Input),
		scratch:  make([]byte, DefaultScratchSize),
	}
}

// Parser exposes the parser state.
func (c *Console) Parser() *Parser {
	return c.parser
}

// Start prints the first prompt.
func (c *Console) Start() error {
	c.prompt()
	return c.flush()
}

// Feed processes bytes in reception order.
func (c *Console) Feed(p []byte) error {
	for _, b := range p {
		c.apply(c.parser.Parse(b))
	}
	return c.flush()
}

// Poll drains the Input once and feeds what was received.
func (c *Console) Poll() (int, error) {
	if c.Input == nil {
		return 0, nil
	}
	n := c.Input.Receive(c.scratch)
	if n == 0 {
		return 0, nil
	}
	return n, c.Feed(c.scratch[:n])
}

// Control implements Controller.
func (c *Console) Control(cc fx.ControlContext) error {
	n, err := c.Poll()
	if n == len(c.scratch) {
		// more may be pending.
		cc.TriggerNext()
	}
	return err
}

// AddToLoop implements LoopAdder.
func (c *Console) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvConsole, c)
}

func (c *Console) apply(pr ParseResult) {
	w := &c.pending
	switch pr.Action {
	case ActionAppend:
		w.WriteByte(pr.Char)
		if pr.Overflowed {
			glog.V(2).Infof("console: input exceeds %d bytes", c.Registry.Limits().Input)
		}
	case ActionExecute:
		w.WriteString("\r\n")
		c.Registry.Dispatch(w, pr.Line)
	case ActionOverflow:
		w.WriteString("\r\n")
		fmt.Fprintf(w, "\r\nError Debug Console: Max command length = %d\r\n", c.Registry.Limits().Input)
	case ActionRepeat:
		w.WriteString("\r\n")
		c.Registry.Repeat(w)
	case ActionHelp:
		w.WriteString("\r\n")
		c.Registry.Help(w)
	case ActionErase:
		term.EraseBack(w)
	}
	if pr.Resets() {
		c.prompt()
	}
}

func (c *Console) prompt() {
	c.pending.WriteString("\r\n")
	c.pending.WriteString(c.Prompt)
}

func (c *Console) flush() error {
	if c.pending.Len() == 0 {
		return nil
	}
	defer c.pending.Reset()
	if c.Output == nil {
		return nil
	}
	_, err := c.Output.Write(c.pending.Bytes())
	return err
}
