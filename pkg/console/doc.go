// Package console implements the interactive debug console of a device.
package console

// A console consumes the raw keystroke stream of an operator attached to
// the debug port, echoes it back, and dispatches complete lines to
// commands registered in a Registry.
//
// Control bytes:
//
//	'\r' execute the accumulated line
//	'\b' erase the last typed character
//	'`'  repeat the last dispatched command with its argument
//	'?'  print the command listing
//
// Any other byte is literal command text.
//
// Producer: operator terminal
// Consumer: device
