package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/debugport/pkg/term"
)

// Built-in command identifiers. They take precedence over user
// commands with the same identifier.
const (
	BuiltinHelp  = "Help"
	BuiltinClear = "Clear"
)

// MatchKind indicates what a candidate line resolves to.
type MatchKind int

const (
	// MatchNone means nothing matched; the line is silently ignored.
	MatchNone MatchKind = iota
	// MatchHelp is the built-in help listing.
	MatchHelp
	// MatchClear is the built-in screen clear.
	MatchClear
	// MatchCommand is a registered command.
	MatchCommand
)

// Match is the result of Registry.Lookup.
type Match struct {
	Kind    MatchKind
	Command Descriptor
	// Arg is the captured argument of a Partial command.
	Arg string
}

// Registry is an append-only, insertion ordered table of commands.
// The zero value is usable with DefaultLimits.
type Registry struct {
	limits   Limits
	commands []Descriptor

	// last dispatched handler and the argument it received.
	last    Handler
	lastArg string
	// arg holds the argument most recently extracted for a Partial command.
	arg string
}

// NewRegistry creates an empty Registry.
// Invalid limits are replaced by DefaultLimits.
func NewRegistry(limits Limits) *Registry {
	if !limits.IsValid() {
		limits = DefaultLimits()
	}
	r := &Registry{
		limits:   limits,
		commands: make([]Descriptor, 0, limits.Commands),
	}
	r.last = NoArgument(r.Help)
	return r
}

// Limits returns the limits in effect.
func (r *Registry) Limits() Limits {
	if !r.limits.IsValid() {
		r.limits = DefaultLimits()
	}
	return r.limits
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.commands)
}

// Cap returns the capacity of the table.
func (r *Registry) Cap() int {
	return r.Limits().Commands
}

// Commands returns registered commands in registration order.
func (r *Registry) Commands() []Descriptor {
	cmds := make([]Descriptor, len(r.commands))
	copy(cmds, r.commands)
	return cmds
}

// Argument returns the argument most recently captured for a Partial command.
func (r *Registry) Argument() string {
	return r.arg
}

// Register appends a command. On error the table is unchanged.
func (r *Registry) Register(id, description string, handler Handler, convention Convention) error {
	limits := r.Limits()
	var err error
	switch {
	case len(r.commands) >= limits.Commands:
		err = ErrCapacityExceeded
	case len(id) > limits.Identifier:
		err = ErrIdentifierTooLong
	case len(description) > limits.Description:
		err = ErrDescriptionTooLong
	case handler == nil || handler.isNil():
		err = ErrNilHandler
	}
	if err != nil {
		return &RegisterError{ID: id, Err: err}
	}
	r.commands = append(r.commands, Descriptor{
		ID:          id,
		Description: description,
		Convention:  convention,
		Handler:     handler,
	})
	return nil
}

// RegisterComplete registers a Complete command.
func (r *Registry) RegisterComplete(id, description string, fn func(io.Writer)) error {
	return r.Register(id, description, NoArgument(fn), Complete)
}

// RegisterPartial registers a Partial command.
func (r *Registry) RegisterPartial(id, description string, fn func(io.Writer, string)) error {
	return r.Register(id, description, WithArgument(fn), Partial)
}

// Lookup resolves a candidate line without side effects.
// The first registered identifier which prefixes the candidate wins.
// A Complete command must match the whole candidate, and the argument
// of a Partial command must fit in Limits.Argument.
func (r *Registry) Lookup(candidate string) Match {
	switch candidate {
	case BuiltinHelp:
		return Match{Kind: MatchHelp}
	case BuiltinClear:
		return Match{Kind: MatchClear}
	}
	for _, cmd := range r.commands {
		if !strings.HasPrefix(candidate, cmd.ID) {
			continue
		}
		rest := candidate[len(cmd.ID):]
		switch cmd.Convention {
		case Complete:
			if rest != "" {
				return Match{}
			}
			return Match{Kind: MatchCommand, Command: cmd}
		default:
			if len(rest) > r.Limits().Argument {
				return Match{}
			}
			return Match{Kind: MatchCommand, Command: cmd, Arg: rest}
		}
	}
	return Match{}
}

// Dispatch resolves candidate and runs what it matches.
// Only a registered command becomes the target of Repeat.
func (r *Registry) Dispatch(w io.Writer, candidate string) Match {
	m := r.Lookup(candidate)
	switch m.Kind {
	case MatchHelp:
		r.Help(w)
	case MatchClear:
		term.ClearScreen(w)
	case MatchCommand:
		var arg string
		if m.Command.Convention == Partial {
			r.arg = m.Arg
			arg = r.arg
		}
		r.last, r.lastArg = m.Command.Handler, arg
		glog.V(2).Infof("console: dispatch %q arg=%q", m.Command.ID, arg)
		m.Command.Handler.invoke(w, arg)
	default:
		glog.V(2).Infof("console: no match for %q", candidate)
	}
	return m
}

// Repeat runs the last dispatched command again with the same argument.
// Before any dispatch it prints the help listing.
func (r *Registry) Repeat(w io.Writer) {
	h := r.last
	if h == nil {
		h = NoArgument(r.Help)
	}
	h.invoke(w, r.lastArg)
}

// helpColumn is the width of the identifier column in the listing.
const helpColumn = 20

// Help lists registered commands in registration order, followed by
// the built-in operations.
func (r *Registry) Help(w io.Writer) {
	printEntry := func(id, desc string) {
		fmt.Fprintf(w, "%-*s: %s\r\n", helpColumn, id, desc)
	}
	printEntry("COMMAND", "DESCRIPTION")
	for _, cmd := range r.commands {
		printEntry(cmd.ID, cmd.Description)
	}
	printEntry(BuiltinHelp, "List all debug commands")
	printEntry(BuiltinClear, "Clears the terminal screen")
	printEntry(string(KeyRepeat), "Repeat last command")
	printEntry(string(KeyHelp), "Same as help")
}
