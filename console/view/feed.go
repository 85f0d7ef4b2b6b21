package view

import "sync"

// feed fans values out to subscribers. Slow subscribers miss values
// instead of blocking the publisher.
type feed[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]chan T
}

func (f *feed[T]) subscribe(buf int) (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]chan T)
	}
	id := f.next
	f.next++
	c := make(chan T, buf)
	f.subs[id] = c

	var once sync.Once
	return c, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(c)
		})
	}
}

func (f *feed[T]) publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.subs {
		select {
		case c <- v:
		default:
		}
	}
}
