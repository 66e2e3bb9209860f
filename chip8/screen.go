package chip8

/// Display resolution in pixels.
///
const (
	Width  = 64
	Height = 32
)

/// Screen is a monochrome Display backed by packed video memory. Each
/// bit is a single pixel, stored MSB first: pixel <0,0> is bit 0x80 of
/// byte 0.
///
type Screen struct {
	Video [Width * Height / 8]byte
}

/// NewScreen returns a cleared screen.
///
func NewScreen() *Screen {
	return &Screen{}
}

/// Clear turns every pixel off.
///
func (s *Screen) Clear() {
	s.Video = [Width * Height / 8]byte{}
}

/// Pixel returns true if the pixel at x, y is lit.
///
func (s *Screen) Pixel(x, y int) bool {
	i, bit := s.locate(x, y)

	return s.Video[i]&bit != 0
}

/// SetPixel lights or clears the pixel at x, y.
///
func (s *Screen) SetPixel(x, y int, on bool) {
	i, bit := s.locate(x, y)

	if on {
		s.Video[i] |= bit
	} else {
		s.Video[i] &^= bit
	}
}

/// Lit returns how many pixels are on.
///
func (s *Screen) Lit() int {
	n := 0

	for _, b := range s.Video {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}

	return n
}

/// String renders the screen as text, one line per scan line.
///
func (s *Screen) String() string {
	buf := make([]byte, 0, (Width+1)*Height)

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if s.Pixel(x, y) {
				buf = append(buf, '#')
			} else {
				buf = append(buf, '.')
			}
		}

		buf = append(buf, '\n')
	}

	return string(buf)
}

// video byte and bit of a pixel
func (s *Screen) locate(x, y int) (int, byte) {
	x = (x%Width + Width) % Width
	y = (y%Height + Height) % Height

	return y*Width/8 + x>>3, 0x80 >> uint(x&7)
}
