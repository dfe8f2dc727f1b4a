// Command cncd wires the motion-control core to the hal.Sim*
// in-memory fakes and drives it from stdin, the way
// examples/tmc5160's main.go wires a concrete board's pins to the
// tmc5160 driver — here the "board" is an off-target simulation
// rather than real silicon. Lines typed at the terminal go straight
// into the serial console's byte stream; runtime commands ('?', '!',
// '~') and G-code lines both go through the same path.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/csdexter/grbl/block"
	"github.com/csdexter/grbl/console"
	"github.com/csdexter/grbl/gcode"
	"github.com/csdexter/grbl/hal"
	"github.com/csdexter/grbl/motion"
	"github.com/csdexter/grbl/nvsettings"
	"github.com/csdexter/grbl/planner"
	"github.com/csdexter/grbl/runtime"
	"github.com/csdexter/grbl/stepgen"
	"github.com/csdexter/grbl/system"
)

const (
	pinStepX hal.Pin = iota
	pinStepY
	pinStepZ
	pinDirX
	pinDirY
	pinDirZ
	pinLimitX
	pinLimitY
	pinLimitZ
	pinMist
	pinFlood
	pinSpindleEnable
	pinSpindleDirection
	pinChargePump
	pinStepperEnable
)

func main() {
	sys := system.New()
	settings := nvsettings.Default()
	buf := block.NewBuffer(16)
	disp := runtime.NewDispatcher(sys)
	disp.Buffer = buf
	pl := planner.New(planner.DefaultConfig(), buf, sys, disp)
	disp.Planner = pl

	gpio := hal.NewSimGPIO()
	timer := hal.NewSimTimer(16_000_000)
	clock := &hal.SimClock{Speedup: 1000}
	pump := &hal.SimChargePump{}
	serial := hal.NewSimSerial(256)

	enablePin := hal.Pin(pinStepperEnable)
	stCfg := stepgen.Config{
		StepPins:                  [3]hal.Pin{pinStepX, pinStepY, pinStepZ},
		DirPins:                   [3]hal.Pin{pinDirX, pinDirY, pinDirZ},
		FOSC:                      16_000_000,
		PulseMicroseconds:         settings.PulseMicroseconds,
		CyclesPerAccelerationTick: 16_000_000 / 50,
		MinimumStepsPerMinute:     60,
		StepperIdleLockMS:         25,
		EnablePin:                 &enablePin,
	}
	gen := stepgen.New(stCfg, gpio, timer, clock, buf, sys, pl)
	gen.Init()
	disp.StepGen = gen

	pins := motion.Pins{
		LimitX: pinLimitX, LimitY: pinLimitY, LimitZ: pinLimitZ,
		StepX: pinStepX, StepY: pinStepY, StepZ: pinStepZ,
		DirX: pinDirX, DirY: pinDirY, DirZ: pinDirZ,
		Mist: pinMist, Flood: pinFlood,
		SpindleEnable: pinSpindleEnable, SpindleDirection: pinSpindleDirection,
		ChargePump: pinChargePump,
	}
	front := motion.NewFront(pl, sys, &settings, motion.Limits{}, gpio, clock, pump, pins)
	front.StartChargePump()

	interp := gcode.New(front, sys)
	disp.Interp = interp

	out := os.Stdout
	status := &console.StatusReport{Sys: sys, Settings: &settings, Out: out}
	disp.Reporter = status

	con := console.New(serial, sys, disp, interp, &settings, out)

	fmt.Fprintln(out, "cncd ready")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			runDebugCommand(out, serial, con, line[1:])
			continue
		}
		serial.Feed(append(scanner.Bytes(), '\n'))
		con.Service()
	}
}

// runDebugCommand handles the operator console's own commands — never
// part of the wire protocol itself, so they get a shell-like tokenizer
// (shlex) rather than the G-code tokenizer, letting an argument carry
// quoted text (e.g. a repeated line with spaces in a comment).
func runDebugCommand(out *os.File, serial *hal.SimSerial, con *console.Console, line string) {
	words, err := shlex.Split(line)
	if err != nil || len(words) == 0 {
		fmt.Fprintf(out, "error: bad debug command\r\n")
		return
	}

	switch strings.ToUpper(words[0]) {
	case "DUMP":
		serial.Feed([]byte("$\n"))
		con.Service()
	case "BURST":
		if len(words) < 3 {
			fmt.Fprintf(out, "error: usage: #BURST <count> <gcode line>\r\n")
			return
		}
		count, err := strconv.Atoi(words[1])
		if err != nil || count <= 0 {
			fmt.Fprintf(out, "error: bad repeat count\r\n")
			return
		}
		gline := strings.Join(words[2:], " ")
		for i := 0; i < count; i++ {
			serial.Feed([]byte(gline + "\n"))
			con.Service()
		}
	default:
		fmt.Fprintf(out, "error: unknown debug command %q\r\n", words[0])
	}
}
