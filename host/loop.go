package host

import (
	"context"
	"fmt"
	"time"

	"github.com/massung/chip8vm/chip8"
	"github.com/retroenv/retrogolib/log"
)

/// RefreshRate is how many times per second the frontend is redrawn.
///
const RefreshRate = 60

/// Frontend presents a running machine.
///
type Frontend interface {
	/// ProcessEvents handles pending input and returns false once the user
	/// wants to quit. It must never block.
	///
	ProcessEvents() bool

	/// Refresh redraws the display.
	///
	Refresh()

	/// Beep turns the tone on or off.
	///
	Beep(on bool)
}

/// Loop executes instructions at a fixed rate and refreshes a frontend.
///
type Loop struct {
	VM       *chip8.VM
	Frontend Frontend
	Logger   *log.Logger

	/// CyclesPerSecond is the instruction rate.
	///
	CyclesPerSecond int

	/// Paused stops execution while the frontend keeps refreshing.
	///
	Paused bool

	beeping bool
}

/// New returns a loop running vm at cps instructions per second.
///
func New(vm *chip8.VM, frontend Frontend, logger *log.Logger, cps int) *Loop {
	return &Loop{
		VM:              vm,
		Frontend:        frontend,
		Logger:          logger,
		CyclesPerSecond: cps,
	}
}

/// Run executes the machine until the context is cancelled, the frontend
/// quits, or the machine halts. Quitting returns nil; a halt returns the
/// interpreter error for the caller to report.
///
func (l *Loop) Run(ctx context.Context) error {
	if l.CyclesPerSecond <= 0 {
		return fmt.Errorf("invalid instruction rate %d", l.CyclesPerSecond)
	}

	// nothing to run until the machine is reset
	if err := l.VM.Halted(); err != nil {
		return fmt.Errorf("%w: %w", chip8.ErrHalted, err)
	}

	// set processor speed and refresh rate
	clock := time.NewTicker(time.Second / time.Duration(l.CyclesPerSecond))
	defer clock.Stop()

	video := time.NewTicker(time.Second / RefreshRate)
	defer video.Stop()

	l.Logger.Debug("Starting machine", log.Int("cycles_per_second", l.CyclesPerSecond))

	// silence the tone however the loop ends
	defer l.beep(false)

	// loop until window closed or user quit
	for l.Frontend.ProcessEvents() {
		select {
		case <-ctx.Done():
			l.Logger.Debug("Machine stopped", log.Int("cycles", int(l.VM.Cycles)))
			return ctx.Err()

		case <-video.C:
			l.beep(l.VM.Sound() && !l.Paused)
			l.Frontend.Refresh()

		case <-clock.C:
			if l.Paused {
				continue
			}

			if err := l.VM.Step(); err != nil {
				l.Frontend.Refresh()
				l.Logger.Debug("Program halted", log.Err(err), log.Int("cycles", int(l.VM.Cycles)))
				return err
			}
		}
	}

	l.Logger.Debug("Frontend quit", log.Int("cycles", int(l.VM.Cycles)))

	return nil
}

/// only tell the frontend about changes
///
func (l *Loop) beep(on bool) {
	if on != l.beeping {
		l.beeping = on
		l.Frontend.Beep(on)
	}
}
