// Package board is the test application of the debug port: simulated
// test points, a status LED and the USB mass storage host, operated via
// console commands.
package board

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/debugport/pkg/console"
	fx "github.com/robotalks/debugport/pkg/framework"
	"github.com/robotalks/debugport/pkg/term"
)

// Test point names accepted by the Toggle command.
const (
	TP9  = "TP9"
	TP10 = "TP10"
	TP11 = "TP11"
)

// ErrCritical wraps errors reported as critical.
var ErrCritical = errors.New("critical error")

// DefaultHeartbeat is the period the status LED blinks at.
const DefaultHeartbeat = time.Second

// Level is an output pin level.
type Level bool

// Pin levels.
const (
	Low  Level = false
	High Level = true
)

// String implements fmt.Stringer.
func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// MassStorage is the USB mass storage host stack.
type MassStorage interface {
	Enable() error
	Disable() error
}

// SimulatedStorage is a MassStorage only tracking its state.
type SimulatedStorage struct {
	Enabled bool
}

// Enable implements MassStorage.
func (s *SimulatedStorage) Enable() error {
	s.Enabled = true
	return nil
}

// Disable implements MassStorage.
func (s *SimulatedStorage) Disable() error {
	s.Enabled = false
	return nil
}

// Board holds the pins. It is driven by the console task only.
type Board struct {
	DeviceID string
	Storage  MassStorage
	// Heartbeat toggles the LED periodically when positive.
	Heartbeat time.Duration
	// OnFatal is notified of errors the board can't recover from.
	OnFatal func(error)

	pins     map[string]Level
	led      Level
	lastBeat time.Time
	err      error
}

// New creates a Board with all test points low and the LED off.
func New(deviceID string) *Board {
	return &Board{
		DeviceID:  deviceID,
		Storage:   &SimulatedStorage{Enabled: true},
		Heartbeat: DefaultHeartbeat,
		pins:      map[string]Level{TP9: Low, TP10: Low, TP11: Low},
		// the LED is active low.
		led: High,
	}
}

// Pin returns the level of a test point.
func (b *Board) Pin(name string) (Level, bool) {
	l, ok := b.pins[name]
	return l, ok
}

// Pins returns the test point names.
func (b *Board) Pins() []string {
	names := make([]string, 0, len(b.pins))
	for name := range b.pins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LEDOn indicates the status LED is lit.
func (b *Board) LEDOn() bool {
	return b.led == Low
}

// Register adds the board commands to reg.
func (b *Board) Register(reg *console.Registry) error {
	errs := &fx.AggregatedError{}
	errs.Add(
		reg.RegisterPartial("Toggle ", "Toggle TP<x> (x: 9, 10, 11)", b.togglePin),
		reg.RegisterComplete("LED", "Toggle LED power", b.toggleLED),
		reg.RegisterComplete("MSC Off", "Disable MSC", b.disableStorage),
		reg.RegisterComplete("MSC On", "Enable MSC", b.enableStorage),
		reg.RegisterComplete("ID", "Show device ID", b.showID),
	)
	return errs.Aggregate()
}

// Banner clears the screen and prints the start up message.
func Banner(w io.Writer) {
	term.ResetPalette(w)
	term.ClearScreen(w)
	io.WriteString(w, "ACI Stalker\r\n")
	io.WriteString(w, "Hab testing of Azure RTOS USB Host MSC\r\n")
	io.WriteString(w, "Build Notes: Hello Hab, time to make the donuts\r\n\n")
}

// Err returns the fatal error raised by a command.
func (b *Board) Err() error {
	return b.err
}

// Control implements Controller. It blinks the LED, and stops the loop
// once a command failed fatally.
func (b *Board) Control(cc fx.ControlContext) error {
	if b.err != nil {
		return b.err
	}
	if b.Heartbeat <= 0 {
		return nil
	}
	now := cc.Time()
	if now.Sub(b.lastBeat) < b.Heartbeat {
		return nil
	}
	b.lastBeat = now
	b.led = !b.led
	return nil
}

// AddToLoop implements LoopAdder.
func (b *Board) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvApp, b)
}

func (b *Board) togglePin(w io.Writer, arg string) {
	level, ok := b.pins[arg]
	if !ok {
		return
	}
	level = !level
	b.pins[arg] = level
	fmt.Fprintf(w, "%s was toggled to %s \r\n", arg, level)
}

func (b *Board) toggleLED(w io.Writer) {
	b.led = !b.led
	if b.led == High {
		io.WriteString(w, "LED is off\r\n")
	} else {
		io.WriteString(w, "LED is on\r\n")
	}
}

func (b *Board) disableStorage(w io.Writer) {
	if err := b.Storage.Disable(); err != nil {
		glog.Warningf("board: disable mass storage: %v", err)
	}
	io.WriteString(w, "USB MSC Turned off\r\n")
}

func (b *Board) enableStorage(w io.Writer) {
	if err := b.Storage.Enable(); err != nil {
		b.fatal(w, fmt.Errorf("enable mass storage: %w", err))
		return
	}
	io.WriteString(w, "USB MSC Turned on\r\n")
}

func (b *Board) showID(w io.Writer) {
	fmt.Fprintf(w, "Device ID: %s\r\n", b.DeviceID)
}

func (b *Board) fatal(w io.Writer, err error) {
	term.Red(w, fmt.Sprintf("***CRITICAL ERROR: %v\r\n", err))
	b.err = fx.Abort(fmt.Errorf("%w: %w", ErrCritical, err))
	glog.Error(b.err)
	if fn := b.OnFatal; fn != nil {
		fn(b.err)
	}
}
