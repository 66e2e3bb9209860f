package terminal

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell"
	"github.com/massung/chip8vm/chip8"
	"github.com/massung/chip8vm/config"
)

/// HoldTime is how long a key stays down after the terminal reports it.
/// Terminals only send presses, so keys are released once they stop
/// repeating.
///
const HoldTime = 150 * time.Millisecond

/// lines of the message log shown below the display
///
const logLines = 5

/// Terminal is a host frontend drawing the display with half-block
/// characters, two pixels per cell.
///
type Terminal struct {
	screen tcell.Screen
	vm     *chip8.VM
	keypad *chip8.Keypad
	config config.Config

	/// Log is shown below the display.
	///
	Log *MessageLog

	events chan tcell.Event
	quit   chan struct{}

	// when each pad key was last reported
	held [16]time.Time

	beeping bool
	now     func() time.Time

	// the halt already written to the log
	halt error
}

/// New initializes screen and returns a frontend for vm reading keys
/// into keypad. Close must be called to restore the terminal.
///
func New(screen tcell.Screen, vm *chip8.VM, keypad *chip8.Keypad, cfg config.Config) (*Terminal, error) {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)

	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}

	screen.HideCursor()
	screen.DisableMouse()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		vm:     vm,
		keypad: keypad,
		config: cfg,
		Log:    NewMessageLog(200),
		events: make(chan tcell.Event, 64),
		quit:   make(chan struct{}),
		now:    time.Now,
	}

	go t.pollEvents()

	t.Log.Log("Esc quits, Backspace resets, Up/Down/Home/End scroll this log")

	return t, nil
}

/// Close restores the terminal.
///
func (t *Terminal) Close() {
	close(t.quit)
	t.screen.Fini()
}

/// tcell only offers a blocking poll
///
func (t *Terminal) pollEvents() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}

		select {
		case t.events <- ev:
		case <-t.quit:
			return
		}
	}
}

/// ProcessEvents maps pending terminal events to the keypad. It returns
/// false once the user quits.
///
func (t *Terminal) ProcessEvents() bool {
	for {
		select {
		case ev := <-t.events:
			if !t.handle(ev) {
				return false
			}
		default:
			t.releaseKeys()
			return true
		}
	}
}

func (t *Terminal) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			t.vm.Reset()
			t.keypad.Reset()
			t.held = [16]time.Time{}
			t.halt = nil
			t.Log.Log("Reset")
		case tcell.KeyUp, tcell.KeyPgUp:
			t.Log.ScrollUp()
		case tcell.KeyDown, tcell.KeyPgDn:
			t.Log.ScrollDown(logLines)
		case tcell.KeyHome:
			t.Log.Home()
		case tcell.KeyEnd:
			t.Log.End()
		case tcell.KeyRune:
			if key, ok := t.config.Key(ev.Rune()); ok {
				t.keypad.PressKey(key)
				t.held[key] = t.now()
			}
		}
	}

	return true
}

/// release keys that are no longer repeating
///
func (t *Terminal) releaseKeys() {
	now := t.now()

	for key, at := range t.held {
		if !at.IsZero() && now.Sub(at) > HoldTime {
			t.keypad.ReleaseKey(byte(key))
			t.held[key] = time.Time{}
		}
	}
}

/// Refresh draws the display, a status line and the message log.
///
func (t *Terminal) Refresh() {
	fg, bg := t.config.Colors()

	on := tcell.NewRGBColor(int32(fg.R), int32(fg.G), int32(fg.B))
	off := tcell.NewRGBColor(int32(bg.R), int32(bg.G), int32(bg.B))

	// each cell is the upper pixel in the foreground and the lower one in
	// the background
	for y := 0; y < chip8.Height; y += 2 {
		for x := 0; x < chip8.Width; x++ {
			top, bottom := off, off

			if t.vm.Display.Pixel(x, y) {
				top = on
			}
			if t.vm.Display.Pixel(x, y+1) {
				bottom = on
			}

			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}

	row := chip8.Height / 2

	// machine status
	status := fmt.Sprintf("PC %04X  I %04X  DT %02X  ST %02X  cycles %d", t.vm.PC, t.vm.I, t.vm.DT, t.vm.ST, t.vm.Cycles)
	if t.beeping {
		status += "  BEEP"
	}
	if err := t.vm.Halted(); err != nil {
		status += "  HALTED"

		if err != t.halt {
			t.halt = err
			t.Log.Logf("Halted: %v", err)
		}
	}
	t.drawText(0, row, status, tcell.StyleDefault.Reverse(true))

	// message log
	lines := t.Log.Window(logLines)
	for i := 0; i < logLines; i++ {
		s := ""
		if i < len(lines) {
			s = lines[i]
		}
		t.drawText(0, row+1+i, s, tcell.StyleDefault)
	}

	t.screen.Show()
}

/// Beep shows the sound state, terminals have no tone to play.
///
func (t *Terminal) Beep(on bool) {
	t.beeping = on
}

/// draw a line of text, padded to the display width
///
func (t *Terminal) drawText(x, y int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		t.screen.SetContent(x+i, y, r, nil, style)
		i++
	}

	for ; i < chip8.Width; i++ {
		t.screen.SetContent(x+i, y, ' ', nil, style)
	}
}
