package job

import "sync"

const subscriberBuffer = 16

// subscribers fans snapshots out to read-only listeners. Publishing never
// blocks: a full buffer loses its oldest snapshot so the newest always lands.
type subscribers struct {
	mu     sync.Mutex
	chans  map[chan ViewState]struct{}
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{chans: make(map[chan ViewState]struct{})}
}

func (s *subscribers) add(initial ViewState) chan ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ViewState, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch
	}
	ch <- initial
	s.chans[ch] = struct{}{}
	return ch
}

func (s *subscribers) remove(ch chan ViewState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chans[ch]; ok {
		delete(s.chans, ch)
		close(ch)
	}
}

func (s *subscribers) publish(state ViewState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.chans {
		snap := state.Clone()
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.chans {
		close(ch)
	}
	s.chans = make(map[chan ViewState]struct{})
	s.closed = true
}

func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chans)
}
