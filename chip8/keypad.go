package chip8

/// Keypad is an Input for the 16-key hex pad. Hosts press and release
/// keys from the same loop that steps the machine.
///
type Keypad struct {
	/// Keys hold the current state for the 16-key pad keys.
	///
	Keys [16]bool

	// key presses made while a key wait is pending
	pressed []byte

	// set while the machine waits for a key
	waiting bool
}

/// NewKeypad returns a keypad with no keys held.
///
func NewKeypad() *Keypad {
	return &Keypad{}
}

/// PressKey emulates a CHIP-8 key being pressed. Keys outside the pad
/// are ignored. A press is only remembered for PollKey while the
/// machine is waiting for one.
///
func (k *Keypad) PressKey(key byte) {
	if key >= 16 {
		return
	}

	// auto-repeat doesn't produce another press
	if !k.Keys[key] && k.waiting {
		k.pressed = append(k.pressed, key)
	}

	k.Keys[key] = true
}

/// ReleaseKey emulates a CHIP-8 key being released.
///
func (k *Keypad) ReleaseKey(key byte) {
	if key >= 16 {
		return
	}

	k.Keys[key] = false
}

/// KeyDown returns true while key is held.
///
func (k *Keypad) KeyDown(key byte) bool {
	if key >= 16 {
		return false
	}

	return k.Keys[key]
}

/// PollKey returns the first key pressed since the wait began and ends
/// the wait. Finding none starts a wait.
///
func (k *Keypad) PollKey() (byte, bool) {
	if len(k.pressed) == 0 {
		k.waiting = true
		return 0, false
	}

	key := k.pressed[0]

	// the wait is over, drop any other presses made during it
	k.pressed = k.pressed[:0]
	k.waiting = false

	return key, true
}

/// Reset releases every key and ends any wait.
///
func (k *Keypad) Reset() {
	k.Keys = [16]bool{}
	k.pressed = nil
	k.waiting = false
}
