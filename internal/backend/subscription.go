package backend

import (
	"sync"

	"github.com/charla-im/charla/internal/store"
)

// localSubscription is the MessageSubscription handle for Local streams.
// Snapshot delivery blocks until the consumer reads or the subscription is
// cancelled, so the final window state is never silently dropped.
type localSubscription struct {
	snapshots chan []store.Message
	errs      chan error
	stop      chan struct{}
	once      sync.Once
	unsubBus  func()
}

func newLocalSubscription(unsubBus func()) *localSubscription {
	return &localSubscription{
		snapshots: make(chan []store.Message),
		errs:      make(chan error, 1),
		stop:      make(chan struct{}),
		unsubBus:  unsubBus,
	}
}

func (s *localSubscription) Snapshots() <-chan []store.Message {
	return s.snapshots
}

func (s *localSubscription) Errors() <-chan error {
	return s.errs
}

// Unsubscribe cancels the stream. Safe to call more than once.
func (s *localSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.stop)
		s.unsubBus()
	})
}
