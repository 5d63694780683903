package history

import (
	"sync"
	"time"
)

type Turn struct {
	Question    string
	Answer      string
	SourceCount int
	CreatedAt   time.Time
}

type Summary struct {
	Turns  int
	Window int
}

// Window is a bounded FIFO of conversation turns scoped to one session.
// Nothing here is persisted.
type Window struct {
	size  int
	turns []Turn
	mtx   sync.Mutex
}

func (w *Window) Append(turn Turn) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	w.turns = append(w.turns, turn)

	if len(w.turns) > w.size {
		w.turns = w.turns[len(w.turns)-w.size:]
	}
}

// Recent returns up to n turns, oldest first.
func (w *Window) Recent(n int) []Turn {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if n > len(w.turns) {
		n = len(w.turns)
	}
	if n <= 0 {
		return nil
	}

	cpy := make([]Turn, n)
	copy(cpy, w.turns[len(w.turns)-n:])

	return cpy
}

func (w *Window) Len() int {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	return len(w.turns)
}

func (w *Window) Size() int {
	return w.size
}

func (w *Window) Summary() Summary {
	return Summary{
		Turns:  w.Len(),
		Window: w.size,
	}
}

func (w *Window) Clear() {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	w.turns = nil
}

func NewWindow(size int) *Window {
	if size <= 0 {
		size = 10
	}

	w := &Window{
		size: size,
	}

	return w
}
