package api

import (
	"sync"

	"github.com/the-lightning-land/netconfig/session"
)

const clientBuffer = 16

// check Broadcaster compliance to its interface during compile time
var _ session.Sink = (*Broadcaster)(nil)

// Broadcaster fans session updates and connectivity changes out to
// subscribed clients as JSON-ready events. Slow clients miss events instead
// of blocking the session.
type Broadcaster struct {
	mu           sync.Mutex
	clients      map[uint32]*EventsClient
	nextClientID uint32
}

type EventsClient struct {
	Events      chan interface{}
	Id          uint32
	broadcaster *Broadcaster
	cancelOnce  sync.Once
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[uint32]*EventsClient),
	}
}

func (b *Broadcaster) Subscribe() *EventsClient {
	b.mu.Lock()
	defer b.mu.Unlock()

	client := &EventsClient{
		Events:      make(chan interface{}, clientBuffer),
		Id:          b.nextClientID,
		broadcaster: b,
	}

	b.nextClientID++
	b.clients[client.Id] = client

	return client
}

func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.clients)
}

func (b *Broadcaster) Update(update *session.Update) {
	event := newNetworkEvent(update)
	event.Type = sessionEventType

	b.publish(&event)
}

func (b *Broadcaster) publish(event interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, client := range b.clients {
		select {
		case client.Events <- event:
		default:
		}
	}
}

// Cancel unsubscribes the client and closes its Events channel.
func (c *EventsClient) Cancel() {
	c.cancelOnce.Do(func() {
		c.broadcaster.mu.Lock()
		defer c.broadcaster.mu.Unlock()

		delete(c.broadcaster.clients, c.Id)
		close(c.Events)
	})
}
