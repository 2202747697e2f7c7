package utils

import (
	"sync"
)

type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// EventBus fans events out to in-process subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type EventBus struct {
	subscribers []chan Event
	mu          sync.RWMutex
	bufferSize  int
}

func NewEventBus() *EventBus {
	return &EventBus{
		bufferSize: 100,
	}
}

func (eb *EventBus) Publish(event string, data interface{}) {
	e := Event{Event: event, Data: data}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// SubscribeCh returns a buffered channel receiving every published event.
func (eb *EventBus) SubscribeCh() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	ch := make(chan Event, eb.bufferSize)
	eb.subscribers = append(eb.subscribers, ch)
	return ch
}
