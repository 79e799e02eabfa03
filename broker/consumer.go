package broker

import (
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Message is a broker message delivered to consumers.
type Message struct {
	Subject string
	Key     string
	Data    []byte
}

// Consumer wraps a NATS subscription set and delivers messages on a channel.
type Consumer struct {
	conn    *nats.Conn
	subs    []*nats.Subscription
	msgChan chan Message

	mu     sync.RWMutex
	closed bool
}

var (
	consumersMu sync.Mutex
	consumers   []*Consumer
)

// InitConsumer connects to NATS and subscribes to the given subjects as part
// of a queue group, so multiple instances share the message load.
func InitConsumer(url string, subjects []string, queueGroup string) (*Consumer, error) {
	conn, err := nats.Connect(url,
		nats.Name("pinpoint-"+queueGroup),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		conn:    conn,
		msgChan: make(chan Message, 256),
	}

	for _, subject := range subjects {
		sub, err := conn.QueueSubscribe(subject, queueGroup, func(m *nats.Msg) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			if c.closed {
				return
			}
			select {
			case c.msgChan <- Message{Subject: m.Subject, Key: m.Header.Get("Event-Key"), Data: m.Data}:
			default:
				log.Printf("Consumer channel full, dropping message on %s", m.Subject)
			}
		})
		if err != nil {
			conn.Close()
			return nil, err
		}
		c.subs = append(c.subs, sub)
	}

	log.Printf("NATS consumer started, listening on subjects: %v", subjects)

	consumersMu.Lock()
	consumers = append(consumers, c)
	consumersMu.Unlock()

	return c, nil
}

// Messages returns the channel the consumer delivers on. The channel is
// closed when the consumer is closed.
func (c *Consumer) Messages() <-chan Message {
	return c.msgChan
}

func (c *Consumer) Close() {
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.msgChan)
}

// CloseAllConsumers shuts down every consumer created through InitConsumer.
func CloseAllConsumers() {
	consumersMu.Lock()
	defer consumersMu.Unlock()
	for _, c := range consumers {
		c.Close()
	}
	consumers = nil
}
