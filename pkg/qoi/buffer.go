package qoi

// reader is a read-only view on the encoded stream. Reads past the end
// fail with ErrInputSize.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) read() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrInputSize
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// writer is a mutable view on the destination buffer. Writes past the end
// fail with ErrOutputTooSmall.
type writer struct {
	data []byte
	pos  int
}

func (w *writer) write(b byte) error {
	if w.pos >= len(w.data) {
		return ErrOutputTooSmall
	}
	w.data[w.pos] = b
	w.pos++
	return nil
}

func (w *writer) writeSlice(b []byte) error {
	if len(w.data)-w.pos < len(b) {
		return ErrOutputTooSmall
	}
	w.pos += copy(w.data[w.pos:], b)
	return nil
}

// reserve skips one byte which is filled in later with writeAt.
func (w *writer) reserve() (int, error) {
	if w.pos >= len(w.data) {
		return 0, ErrOutputTooSmall
	}
	w.pos++
	return w.pos - 1, nil
}

func (w *writer) writeAt(pos int, b byte) {
	w.data[pos] = b
}
