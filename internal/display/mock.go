package display

import "gocv.io/x/gocv"

// MockSurface records shown frames and replays scripted key presses.
type MockSurface struct {
	keys   []int
	shown  int
	sizes  [][2]int
	closes int
}

// NewMockSurface returns a surface whose successive WaitKey calls yield keys,
// then NoKey once they run out.
func NewMockSurface(keys ...int) *MockSurface {
	return &MockSurface{keys: keys}
}

// Show counts the frame and remembers its size.
func (m *MockSurface) Show(frame *gocv.Mat) {
	m.shown++
	m.sizes = append(m.sizes, [2]int{frame.Cols(), frame.Rows()})
}

// WaitKey pops the next scripted key.
func (m *MockSurface) WaitKey(delayMs int) int {
	if len(m.keys) == 0 {
		return NoKey
	}
	k := m.keys[0]
	m.keys = m.keys[1:]
	return k
}

// Close counts the call.
func (m *MockSurface) Close() error {
	m.closes++
	return nil
}

// Shown returns how many frames were shown.
func (m *MockSurface) Shown() int { return m.shown }

// Closes returns how many times Close was called.
func (m *MockSurface) Closes() int { return m.closes }
