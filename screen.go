package main

import (
	"fmt"

	"github.com/massung/chip8vm/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

/// InitScreen creates the render target for the CHIP-8 display.
///
func (w *Window) InitScreen() error {
	var err error

	// create a render target for the display
	w.Screen, err = w.Renderer.CreateTexture(uint32(sdl.PIXELFORMAT_RGB888), sdl.TEXTUREACCESS_TARGET, chip8.Width, chip8.Height)
	if err != nil {
		return fmt.Errorf("creating screen texture: %w", err)
	}

	return nil
}

/// RefreshScreen with the CHIP-8 display.
///
func (w *Window) RefreshScreen() {
	if err := w.Renderer.SetRenderTarget(w.Screen); err != nil {
		return
	}

	// the background color for the screen
	w.Renderer.SetDrawColor(w.bg.R, w.bg.G, w.bg.B, 255)
	w.Renderer.Clear()

	// set the pixel color
	w.Renderer.SetDrawColor(w.fg.R, w.fg.G, w.fg.B, 255)

	// draw all the lit pixels
	for y := 0; y < chip8.Height; y++ {
		for x := 0; x < chip8.Width; x++ {
			if w.Display.Pixel(x, y) {
				w.Renderer.DrawPoint(int32(x), int32(y))
			}
		}
	}

	// restore the render target
	w.Renderer.SetRenderTarget(nil)
}

/// CopyScreen to the window, stretched to fit.
///
func (w *Window) CopyScreen() {
	src := sdl.Rect{W: chip8.Width, H: chip8.Height}

	ww, wh := w.Window.GetSize()

	w.Renderer.Copy(w.Screen, &src, &sdl.Rect{W: ww, H: wh})
}
