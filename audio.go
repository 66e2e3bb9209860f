package main

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	// tone sample rate and pitch
	sampleRate = 22050
	toneHz     = 441
)

/// Tone is a few whole periods of a square wave, queued back to back
/// while the sound timer runs.
///
var Tone = func() []byte {
	period := sampleRate / toneHz
	buf := make([]byte, period*8)

	for i := range buf {
		if i%period < period/2 {
			buf[i] = 0xA0
		} else {
			buf[i] = 0x60
		}
	}

	return buf
}()

/// InitAudio opens an audio device for the tone.
///
func (w *Window) InitAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  512,
	}

	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}

	w.Audio = dev

	// start playing, silence until something is queued
	sdl.PauseAudioDevice(w.Audio, false)

	return nil
}

/// CloseAudio stops the tone and releases the device.
///
func (w *Window) CloseAudio() {
	if w.Audio != 0 {
		sdl.CloseAudioDevice(w.Audio)
		w.Audio = 0
	}
}

/// Beep turns the tone on or off.
///
func (w *Window) Beep(on bool) {
	w.beeping = on

	if !on && w.Audio != 0 {
		sdl.ClearQueuedAudio(w.Audio)
	}

	w.QueueTone()
}

/// QueueTone keeps a couple of tone buffers queued while beeping.
///
func (w *Window) QueueTone() {
	if !w.beeping || w.Audio == 0 {
		return
	}

	for sdl.GetQueuedAudioSize(w.Audio) < uint32(2*len(Tone)) {
		if err := sdl.QueueAudio(w.Audio, Tone); err != nil {
			return
		}
	}
}
