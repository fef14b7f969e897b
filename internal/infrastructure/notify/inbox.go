// Package notify collects transient user notices until the presentation layer drains them.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

const DefaultCapacity = 32

var _ ports.Notifier = (*Inbox)(nil)

// Inbox is a bounded FIFO of notices; when full the oldest is dropped.
type Inbox struct {
	log      zerolog.Logger
	capacity int

	mu      sync.Mutex
	notices []domain.Notice
}

func NewInbox(capacity int, log zerolog.Logger) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inbox{capacity: capacity, log: log}
}

func (i *Inbox) Notify(n domain.Notice) {
	i.log.Info().Str("source", n.Source).Str("level", string(n.Level)).Msg(n.Message)

	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.notices) == i.capacity {
		i.notices = i.notices[1:]
	}
	i.notices = append(i.notices, n)
}

// Drain returns the pending notices, oldest first, and empties the inbox.
func (i *Inbox) Drain() []domain.Notice {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.notices
	i.notices = nil
	if out == nil {
		return []domain.Notice{}
	}
	return out
}

// Len returns the number of pending notices.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.notices)
}
