package console

import "io"

// Convention defines how a command receives its argument.
type Convention int

const (
	// Complete commands are triggered by the identifier alone.
	Complete Convention = iota
	// Partial commands capture the text after the identifier as argument.
	Partial
)

// String implements fmt.Stringer.
func (c Convention) String() string {
	switch c {
	case Complete:
		return "complete"
	case Partial:
		return "partial"
	}
	return "unknown"
}

// Handler is implemented by NoArgument and WithArgument only.
type Handler interface {
	invoke(w io.Writer, arg string)
	isNil() bool
}

// NoArgument is the handler shape for commands without argument.
type NoArgument func(w io.Writer)

func (h NoArgument) invoke(w io.Writer, _ string) { h(w) }

func (h NoArgument) isNil() bool { return h == nil }

// WithArgument is the handler shape for commands receiving the
// captured argument.
type WithArgument func(w io.Writer, arg string)

func (h WithArgument) invoke(w io.Writer, arg string) { h(w, arg) }

func (h WithArgument) isNil() bool { return h == nil }

// Descriptor describes a registered command.
type Descriptor struct {
	ID          string
	Description string
	Convention  Convention
	Handler     Handler
}

// Limits bounds the command table and the input line.
type Limits struct {
	// Commands is the capacity of the command table.
	Commands int
	// Identifier is the max length of a command identifier.
	Identifier int
	// Description is the max length of a command description.
	Description int
	// Argument is the max length of a Partial command argument.
	Argument int
	// Input is the max length of an input line.
	Input int
}

// DefaultLimits returns the limits used by the device firmware.
func DefaultLimits() Limits {
	return Limits{
		Commands:    22,
		Identifier:  20,
		Description: 50,
		Argument:    20,
		Input:       50,
	}
}

// IsValid indicates every bound is positive.
func (l Limits) IsValid() bool {
	return l.Commands > 0 && l.Identifier > 0 && l.Description > 0 &&
		l.Argument > 0 && l.Input > 0
}
