// Package uart is the ring-buffer transport of the debug port.
//
// An Engine fills a fixed-size receive ring asynchronously and reports
// how many bytes of the ring are still to be written in the current lap.
// The UART consumes the ring from its tail cursor, and sends at most one
// transmit request at a time.
//
// On a transfer error the UART resets its tail cursor, clears the busy
// flag and restarts reception. The error is logged and never surfaced.
package uart
