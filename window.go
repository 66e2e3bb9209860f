package main

import (
	"context"
	"fmt"
	"image/color"

	"github.com/massung/chip8vm/chip8"
	"github.com/massung/chip8vm/cli"
	"github.com/massung/chip8vm/host"
	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/sdl"
)

/// Window is the SDL frontend: the display, keyboard and tone.
///
type Window struct {
	opts *cli.Options

	/// The SDL Window and Renderer.
	///
	Window   *sdl.Window
	Renderer *sdl.Renderer

	/// Screen is the render target holding the CHIP-8 display.
	///
	Screen *sdl.Texture

	/// Audio is the device the tone is queued to.
	///
	Audio sdl.AudioDeviceID

	/// The machine, the surfaces it uses and the loop running it.
	///
	VM      *chip8.VM
	Display *chip8.Screen
	Keypad  *chip8.Keypad
	Loop    *host.Loop

	// pixel colors
	fg, bg color.RGBA

	beeping bool
}

/// Run a program in a window until it is closed or the program halts.
///
func Run(ctx context.Context, opts *cli.Options, file string) error {
	display := chip8.NewScreen()
	keypad := chip8.NewKeypad()

	vm, err := opts.Machine(file, display, keypad)
	if err != nil {
		return err
	}

	// initialize SDL
	if err = sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("initializing sdl: %w", err)
	}
	defer sdl.Quit()

	w, err := NewWindow(opts, vm, display, keypad)
	if err != nil {
		return err
	}
	defer w.Destroy()

	w.SetTitle(file)

	w.Loop = host.New(vm, w, opts.Logger, opts.Config.CyclesPerSecond)

	return w.Loop.Run(ctx)
}

/// NewWindow creates the window, renderer, screen texture and audio
/// device for a machine.
///
func NewWindow(opts *cli.Options, vm *chip8.VM, display *chip8.Screen, keypad *chip8.Keypad) (*Window, error) {
	var err error

	w := &Window{
		opts:    opts,
		VM:      vm,
		Display: display,
		Keypad:  keypad,
	}

	w.fg, w.bg = opts.Config.Colors()

	// create the main window and renderer
	scale := int32(opts.Config.Scale)
	if w.Window, w.Renderer, err = sdl.CreateWindowAndRenderer(chip8.Width*scale, chip8.Height*scale, sdl.WINDOW_OPENGL); err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	if err = w.InitScreen(); err != nil {
		w.Destroy()
		return nil, err
	}

	// a machine without sound is still playable
	if err = w.InitAudio(); err != nil {
		opts.Logger.Warn("Audio unavailable", log.Err(err))
	}

	return w, nil
}

/// SetTitle shows the running program in the title bar.
///
func (w *Window) SetTitle(file string) {
	w.Window.SetTitle("CHIP-8 - " + file)
}

/// Destroy releases every SDL resource.
///
func (w *Window) Destroy() {
	w.CloseAudio()

	if w.Screen != nil {
		w.Screen.Destroy()
	}
	if w.Renderer != nil {
		w.Renderer.Destroy()
	}
	if w.Window != nil {
		w.Window.Destroy()
	}
}

/// Refresh redraws the window.
///
func (w *Window) Refresh() {
	w.Renderer.SetDrawColor(0, 0, 0, 255)
	w.Renderer.Clear()

	// update the video screen and stretch it over the window
	w.RefreshScreen()
	w.CopyScreen()

	// keep the tone playing
	w.QueueTone()

	// show the new frame
	w.Renderer.Present()
}

/// Load another program into the machine.
///
func (w *Window) Load(file string) {
	program, err := chip8.LoadFile(w.opts.Fs, file)
	if err == nil {
		err = w.VM.Load(program)
	}

	if err != nil {
		w.opts.Logger.Error("Loading program failed", log.String("file", file), log.Err(err))
		return
	}

	w.Keypad.Reset()
	w.SetTitle(file)

	w.opts.Logger.Info("Program loaded", log.String("file", file), log.Int("bytes", len(program)))
}
