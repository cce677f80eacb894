// Package console provides shell commands driving a device console.
package console

import (
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/debugport/pkg/cli/sh"
)

var (
	// SendCmd sends a command line.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT...",
		Func: sh.MustBeConnected(func(c *ishell.Context, s *sh.Session) {
			if err := s.Send(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
			}
		}),
	}

	// RepeatCmd repeats the last command on the device.
	RepeatCmd = ishell.Cmd{
		Name:    "repeat",
		Aliases: []string{"r"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context, s *sh.Session) {
			if err := s.Repeat(); err != nil {
				c.Err(err)
			}
		}),
	}

	// ListCmd prints the device command listing.
	ListCmd = ishell.Cmd{
		Name:    "list",
		Aliases: []string{"l"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context, s *sh.Session) {
			if err := s.List(); err != nil {
				c.Err(err)
			}
		}),
	}

	// ClearCmd clears the device terminal.
	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context, s *sh.Session) {
			if err := s.Clear(); err != nil {
				c.Err(err)
			}
		}),
	}

	// AttachCmd forwards keystrokes until Ctrl-].
	AttachCmd = ishell.Cmd{
		Name:    "attach",
		Aliases: []string{"a"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context, s *sh.Session) {
			c.Println("Attached, Ctrl-] to detach.")
			if err := sh.ShellFrom(c).AttachStdin(); err != nil {
				c.Err(err)
			}
			c.Println()
		}),
	}
)

func init() {
	sh.AddCmds(
		&SendCmd,
		&RepeatCmd,
		&ListCmd,
		&ClearCmd,
		&AttachCmd,
	)
}
