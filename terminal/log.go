/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

package terminal

import (
	"fmt"
	"strings"
)

/// MessageLog is an output log shown below the display that can be
/// scrolled.
///
type MessageLog struct {
	// buf contains each line of logged text.
	buf []string

	// pos is the current user read position within the log.
	pos int

	// limit is the most lines kept, older lines are dropped.
	limit int
}

/// NewMessageLog creates a log holding at most limit lines.
///
func NewMessageLog(limit int) *MessageLog {
	return &MessageLog{
		buf:   make([]string, 0, 100),
		limit: limit,
	}
}

/// Log outputs a new line to the log.
///
func (log *MessageLog) Log(s ...string) {
	scroll := log.pos == len(log.buf)

	// add the new line
	log.buf = append(log.buf, strings.Join(s, " "))

	// drop the oldest lines
	if n := len(log.buf) - log.limit; log.limit > 0 && n > 0 {
		log.buf = log.buf[n:]
		log.pos -= n

		if log.pos < 0 {
			log.pos = 0
		}
	}

	if scroll {
		log.pos = len(log.buf)
	}
}

/// Logf outputs a formatted line to the log.
///
func (log *MessageLog) Logf(format string, args ...interface{}) {
	log.Log(fmt.Sprintf(format, args...))
}

/// Window returns the n lines ending at the read position.
///
func (log *MessageLog) Window(n int) []string {
	start := log.pos - n

	// don't scroll past the beginning
	if start < 0 {
		start = 0
	}

	if start+n >= len(log.buf) {
		return log.buf[start:]
	}

	return log.buf[start : start+n]
}

/// Home scrolls the log to the beginning.
///
func (log *MessageLog) Home() {
	log.pos = 0
}

/// End scrolls the log to the end.
///
func (log *MessageLog) End() {
	log.pos = len(log.buf)
}

/// ScrollUp scrolls the log back one position.
///
func (log *MessageLog) ScrollUp() {
	log.pos--

	// clamp to home
	if log.pos < 0 {
		log.Home()
	}
}

/// ScrollDown scrolls the log forward one position.
///
func (log *MessageLog) ScrollDown(windowSize int) {
	log.pos++

	// a full window is always shown
	if log.pos < windowSize {
		log.pos = windowSize
	}

	// clamp to end
	if log.pos >= len(log.buf) {
		log.End()
	}
}
