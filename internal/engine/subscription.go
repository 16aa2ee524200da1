package engine

import "sync"

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StatusChanged   <-chan StatusChange
	TrackChanged    <-chan TrackChange
	ProgressChanged <-chan ProgressChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	// Internal write channels
	statusCh   chan StatusChange
	trackCh    chan TrackChange
	progressCh chan ProgressChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		statusCh:   make(chan StatusChange, eventBufferSize),
		trackCh:    make(chan TrackChange, eventBufferSize),
		progressCh: make(chan ProgressChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StatusChanged = s.statusCh
	s.TrackChanged = s.trackCh
	s.ProgressChanged = s.progressCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendStatus sends a status change event (non-blocking).
func (s *Subscription) sendStatus(e StatusChange) {
	select {
	case s.statusCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendTrack sends a track change event (non-blocking).
func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

// sendProgress sends a progress event (non-blocking).
func (s *Subscription) sendProgress(e ProgressChange) {
	select {
	case s.progressCh <- e:
	default:
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}

// subscribers fans events out to all registered subscriptions.
type subscribers struct {
	mu   sync.RWMutex
	subs []*Subscription
}

func (l *subscribers) add() *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	sub := newSubscription()
	l.subs = append(l.subs, sub)
	return sub
}

// remove drops one subscription and closes its done channel.
func (l *subscribers) remove(sub *Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.subs {
		if s == sub {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			sub.close()
			return
		}
	}
}

func (l *subscribers) closeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, sub := range l.subs {
		sub.close()
	}
	l.subs = nil
}

func (l *subscribers) broadcastStatus(e StatusChange) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, sub := range l.subs {
		sub.sendStatus(e)
	}
}

func (l *subscribers) broadcastTrack(e TrackChange) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, sub := range l.subs {
		sub.sendTrack(e)
	}
}

func (l *subscribers) broadcastProgress(e ProgressChange) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, sub := range l.subs {
		sub.sendProgress(e)
	}
}

func (l *subscribers) broadcastError(e ErrorEvent) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, sub := range l.subs {
		sub.sendError(e)
	}
}
