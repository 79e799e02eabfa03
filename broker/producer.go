package broker

import (
	"errors"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrProducerNotInitialized = errors.New("nats producer is not initialized")

var producerConn *nats.Conn

// InitProducer connects to the NATS server used for event fan-out.
func InitProducer(url string) error {
	conn, err := nats.Connect(url,
		nats.Name("pinpoint-producer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return err
	}
	producerConn = conn
	log.Printf("NATS producer connected to %s", conn.ConnectedUrl())
	return nil
}

// PublishMessage publishes an event to the given subject. The key travels
// as a message header so consumers can route without decoding the payload.
func PublishMessage(subject string, key string, value string) error {
	if producerConn == nil {
		log.Println("NATS producer is not initialized")
		return ErrProducerNotInitialized
	}

	msg := nats.NewMsg(subject)
	msg.Header.Set("Event-Key", key)
	msg.Data = []byte(value)

	if err := producerConn.PublishMsg(msg); err != nil {
		log.Printf("Failed to publish message to %s: %v", subject, err)
		return err
	}
	return nil
}

func CloseProducer() {
	if producerConn != nil {
		producerConn.Close()
		producerConn = nil
	}
}
