// Package notify collects the transient messages shown to a shopper after
// an operation. Producers push; the HTTP layer drains them into responses.
package notify

import (
	"errors"
	"strings"
	"sync"

	"github.com/example/brownie-shop/internal/shop"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

type Notification struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Icon    string `json:"icon,omitempty"`
}

// Sink receives notifications.
type Sink interface {
	Push(n Notification)
}

func Success(message, icon string) Notification {
	return Notification{Kind: KindSuccess, Message: message, Icon: icon}
}

func Info(message, icon string) Notification {
	return Notification{Kind: KindInfo, Message: message, Icon: icon}
}

func Error(message string) Notification {
	return Notification{Kind: KindError, Message: message}
}

// Failure reports err to the shopper. Validation errors show their own
// message; anything else shows fallback.
func Failure(err error, fallback string) Notification {
	var ve *shop.ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return Error(strings.ToUpper(ve.Message[:1]) + ve.Message[1:])
	}
	return Error(fallback)
}

// Queue is a Sink that buffers notifications until drained.
type Queue struct {
	mu    sync.Mutex
	items []Notification
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
}

// Drain returns all buffered notifications in push order and empties the
// queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Push(Notification) {}
