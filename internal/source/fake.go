package source

import "github.com/mystery-melody-machine/melodeck/internal/conditioning"

// FakeReader is a test double that returns scripted frames. Each call
// to Read consumes the next frame; once the script is exhausted the
// last frame repeats, which models a surface nobody is touching.
type FakeReader struct {
	// Frames contains the scripted scans to return.
	Frames []conditioning.Frame

	// ReadError, if set, is returned by Read.
	ReadError error

	// Closed tracks whether Close was called.
	Closed bool

	index int
}

// NewFakeReader creates a FakeReader with the given script.
func NewFakeReader(frames ...conditioning.Frame) *FakeReader {
	return &FakeReader{Frames: frames}
}

// Read returns the next scripted frame.
func (f *FakeReader) Read() (conditioning.Frame, error) {
	if f.ReadError != nil {
		return conditioning.Frame{}, f.ReadError
	}
	if len(f.Frames) == 0 {
		return conditioning.Frame{}, nil
	}

	frame := f.Frames[f.index]
	if f.index < len(f.Frames)-1 {
		f.index++
	}
	return frame, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
