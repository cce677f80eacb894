// Package term provides ANSI escape primitives for terminal emulators
// attached to the debug port.
package term

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Escape sequences.
const (
	EraseDisplay    = "\033[2J\033[H"
	CursorBackSpace = "\b"
	ResetColors     = "\033[39;49m"
)

// Color is an index into the 256 color palette.
type Color int

// Palette entries that render consistently across emulators.
const (
	ColorBlack        Color = 0
	ColorGreen        Color = 2
	ColorPurple       Color = 5
	ColorLightGray    Color = 7
	ColorDarkGray     Color = 8
	ColorRed          Color = 9
	ColorBrightGreen  Color = 10
	ColorYellow       Color = 11
	ColorBlue         Color = 12
	ColorMagenta      Color = 13
	ColorWhite        Color = 15
	ColorBrightBlue   Color = 21
	ColorBrightRed    Color = 196
	ColorBrightYellow Color = 228
	// ColorDefault keeps the emulator's current color.
	ColorDefault      Color = -1
)

// ClearScreen erases the display and homes the cursor.
func ClearScreen(w io.Writer) {
	io.WriteString(w, EraseDisplay)
}

// BackSpace moves the cursor back one column.
func BackSpace(w io.Writer) {
	io.WriteString(w, CursorBackSpace)
}

// EraseBack visually erases the column left of the cursor.
func EraseBack(w io.Writer) {
	io.WriteString(w, CursorBackSpace+" "+CursorBackSpace)
}

// ResetPalette restores default fore and background colors.
func ResetPalette(w io.Writer) {
	io.WriteString(w, ResetColors)
}

// Style builds a fatih/color Color using 256 color palette indexes.
// The result always emits escapes, since the peer is a remote
// emulator rather than the local stdout.
func Style(fg, bg Color) *color.Color {
	var attrs []color.Attribute
	if fg != ColorDefault {
		attrs = append(attrs, 38, 5, color.Attribute(fg))
	}
	if bg != ColorDefault {
		attrs = append(attrs, 48, 5, color.Attribute(bg))
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// PrintColor prints formatted text in the desired colors, then
// resumes the default palette.
func PrintColor(w io.Writer, fg, bg Color, format string, args ...interface{}) {
	if fg == ColorDefault && bg == ColorDefault {
		fmt.Fprintf(w, format, args...)
		return
	}
	io.WriteString(w, Style(fg, bg).Sprintf(format, args...))
	ResetPalette(w)
}

// Red prints s in red.
func Red(w io.Writer, s string) {
	PrintColor(w, ColorRed, ColorDefault, "%s", s)
}
