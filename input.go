package main

import (
	"errors"

	"github.com/retroenv/retrogolib/log"
	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
)

/// ProcessEvents from SDL and map keys to the CHIP-8 keypad.
///
func (w *Window) ProcessEvents() bool {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.KeyboardEvent:
			key, mapped := w.opts.Config.Key(rune(ev.Keysym.Sym))

			if ev.Type == sdl.KEYUP {
				if mapped {
					w.Keypad.ReleaseKey(key)
				}
				continue
			}

			if mapped {
				w.Keypad.PressKey(key)
				continue
			}

			switch ev.Keysym.Scancode {
			case sdl.SCANCODE_ESCAPE:
				return false
			case sdl.SCANCODE_BACKSPACE:
				w.VM.Reset()
				w.Keypad.Reset()

				// holding control during reset will reboot paused
				w.Loop.Paused = ev.Keysym.Mod&uint16(sdl.KMOD_CTRL) != 0

				w.opts.Logger.Info("Reset")
			case sdl.SCANCODE_F3:
				w.LoadDialog()
			case sdl.SCANCODE_F5, sdl.SCANCODE_SPACE:
				w.Loop.Paused = !w.Loop.Paused
			}
		}
	}

	return true
}

/// LoadDialog asks for another program to run.
///
func (w *Window) LoadDialog() {
	file, err := dialog.File().
		Title("Load CHIP-8 program").
		Filter("CHIP-8 programs", "ch8", "asm", "s", "c8s").
		Filter("All files", "*").
		Load()

	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			w.opts.Logger.Error("Open dialog failed", log.Err(err))
		}
		return
	}

	w.Load(file)
}
