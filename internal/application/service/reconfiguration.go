package service

import (
	"sync"

	"notifier/internal/application/dto"
)

// ReconfigurationChannel is a single-consumer mailbox holding at most one message.
// A message posted before the previous one was drained replaces it.
type ReconfigurationChannel struct {
	mu sync.Mutex
	ch chan dto.ReconfigurationMessage
}

// NewReconfigurationChannel creates an empty mailbox.
func NewReconfigurationChannel() *ReconfigurationChannel {
	return &ReconfigurationChannel{ch: make(chan dto.ReconfigurationMessage, 1)}
}

// Post never blocks.
func (c *ReconfigurationChannel) Post(msg dto.ReconfigurationMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case c.ch <- msg:
		return
	default:
	}
	// Full: drop the undrained message, the newest one wins.
	select {
	case <-c.ch:
	default:
	}
	c.ch <- msg
}

// C is drained by the consumer.
func (c *ReconfigurationChannel) C() <-chan dto.ReconfigurationMessage {
	return c.ch
}
