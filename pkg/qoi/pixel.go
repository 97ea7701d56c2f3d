package qoi

// Pixel is a single RGBA value as seen by the encoder and decoder.
type Pixel struct {
	R, G, B, A uint8
}

// startPixel is the previous pixel before the first pixel of every image.
var startPixel = Pixel{A: 255}

// hash returns the colour cache slot of the pixel. It is a number between 0 and 63.
func (p Pixel) hash() byte {
	return (p.R ^ p.G ^ p.B ^ p.A) % 64
}

// add applies a signed channel delta with 8-bit wraparound.
func add(v uint8, d int8) uint8 {
	return v + uint8(d)
}

// colorCache remembers the last pixel written to each hash slot.
// Collisions overwrite the slot.
type colorCache [64]Pixel

func (c *colorCache) lookup(p Pixel) (byte, bool) {
	h := p.hash()
	return h, c[h] == p
}

func (c *colorCache) store(p Pixel) {
	c[p.hash()] = p
}
