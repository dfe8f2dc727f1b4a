// Package console is the line-oriented serial protocol front-end of
// spec.md §6: it pulls bytes off a hal.Serial one at a time, folds
// single-character runtime commands straight into system.State
// without waiting for a line terminator, and dispatches complete
// lines to either the G-code interpreter or the settings store,
// responding with "ok" or "error: <message>". Grounded on
// comboat.go's serviceUART/processUART pair — a byte-accumulating
// buffer with a line-terminator scan — adapted from AT-command
// framing to grbl's G-code framing.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/csdexter/grbl/gcode"
	"github.com/csdexter/grbl/hal"
	"github.com/csdexter/grbl/nvsettings"
	"github.com/csdexter/grbl/planner"
	"github.com/csdexter/grbl/runtime"
	"github.com/csdexter/grbl/system"
)

// lineBufferSize bounds one accumulated line, matching the original's
// LINE_BUFFER_SIZE guard against a runaway unterminated stream.
const lineBufferSize = 80

// Console owns one serial line's worth of protocol state: the partial
// line being accumulated, the interpreter it feeds, and the settings
// store '$' lines edit directly.
type Console struct {
	Serial   hal.Serial
	Sys      *system.State
	Disp     *runtime.Dispatcher
	Interp   *gcode.Interpreter
	Settings *nvsettings.Settings
	Out      io.Writer

	buf [lineBufferSize]byte
	pos int
}

// New returns a Console wired to its collaborators.
func New(serial hal.Serial, sys *system.State, disp *runtime.Dispatcher, interp *gcode.Interpreter, settings *nvsettings.Settings, out io.Writer) *Console {
	return &Console{Serial: serial, Sys: sys, Disp: disp, Interp: interp, Settings: settings, Out: out}
}

// Service drains every byte currently available from Serial, handling
// runtime commands immediately and complete lines as they close.
// Intended to be called repeatedly from the main loop, the way
// comboat.serviceUART polls its UART in a loop.
func (c *Console) Service() {
	for {
		b, ok := c.Serial.ReadByte()
		if !ok {
			return
		}
		c.processByte(b)
	}
}

func (c *Console) processByte(b byte) {
	switch b {
	case '?':
		c.Sys.Execute(system.ExecStatusReport)
		return
	case '!':
		c.Sys.Execute(system.ExecFeedHold)
		return
	case '~':
		c.Sys.Execute(system.ExecCycleStart)
		return
	case 0x18:
		c.Sys.Execute(system.ExecReset)
		c.pos = 0 // discard whatever line was being accumulated
		return
	}

	if b == '\n' || b == '\r' {
		if c.pos == 0 {
			return
		}
		line := string(c.buf[:c.pos])
		c.pos = 0
		c.dispatchLine(line)
		return
	}

	if c.pos >= len(c.buf) {
		// Runaway unterminated line: discard what's buffered rather
		// than overrun, and report it the way a bad line would be.
		c.pos = 0
		fmt.Fprintf(c.Out, "error: line too long\r\n")
		return
	}
	c.buf[c.pos] = upper(b)
	c.pos++
}

// dispatchLine runs one complete, untrimmed line: a line that is empty
// after trimming and block-delete stripping (whitespace only, or a lone
// "/") produces a bare "ok", '$' lines go to the settings store,
// everything else goes to the G-code interpreter. A terminator with
// nothing accumulated before it never reaches here: processByte skips
// it without a response.
func (c *Console) dispatchLine(line string) {
	c.Disp.Dispatch()
	if c.Sys.Abort() {
		// A RESET just ran its full cancel sequence; this line is the
		// one it discards. Un-latch here, exactly once, so the console
		// re-arms for the next line instead of swallowing every line
		// that follows.
		c.Sys.SetAbort(false)
		fmt.Fprintf(c.Out, "ok\r\n")
		return
	}

	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "/") {
		line = line[1:]
	}
	if line == "" {
		fmt.Fprintf(c.Out, "ok\r\n")
		return
	}

	if strings.HasPrefix(line, "$") {
		out, err := nvsettings.ExecuteLine(c.Settings, line)
		if err != nil {
			fmt.Fprintf(c.Out, "error: %s\r\n", err)
			return
		}
		for _, l := range out {
			fmt.Fprintf(c.Out, "%s\r\n", l)
		}
		fmt.Fprintf(c.Out, "ok\r\n")
		return
	}

	if err := c.Interp.Execute(line); err != nil {
		if errors.Is(err, planner.ErrAborted) {
			// A RESET landed while this line was blocked mid-execute
			// (e.g. waiting on a full buffer); per spec.md, RESET is
			// never reported as an error.
			c.Sys.SetAbort(false)
			fmt.Fprintf(c.Out, "ok\r\n")
			return
		}
		fmt.Fprintf(c.Out, "error: %s\r\n", err)
		return
	}
	fmt.Fprintf(c.Out, "ok\r\n")
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
