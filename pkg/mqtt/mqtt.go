// Package mqtt publishes received messages to a mqtt broker.
package mqtt

import (
	"context"
	"sync/atomic"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/womat/debug"
)

const (
	// quiesce is the specified number of milliseconds to wait for existing work to be completed.
	quiesce = 250

	// queueSize is the number of messages buffered while the broker is slow or reconnecting.
	queueSize = 64
)

// client is the part of the paho client the handler uses.
type client interface {
	IsConnected() bool
	Connect() mqttlib.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqttlib.Token
	Disconnect(quiesce uint)
}

// Handler contains the handler of the mqtt broker.
type Handler struct {
	client client
	// C is the channel to service the mqtt message
	// sending a message to channel C will send the message.
	C chan Message

	published atomic.Uint64
	dropped   atomic.Uint64
}

// Message contains the properties of the mqtt message.
type Message struct {
	Topic    string
	Payload  []byte
	Qos      byte
	Retained bool
}

// New generate a new mqtt broker client.
func New() *Handler {
	return &Handler{
		C: make(chan Message, queueSize),
	}
}

// Connect connects to the mqtt broker.
//  If no broker is defined, no mqtt message are send.
func (m *Handler) Connect(broker, clientID string) error {
	if broker == "" {
		return nil
	}

	opts := mqttlib.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	m.client = mqttlib.NewClient(opts)
	return m.ReConnect()
}

// ReConnect reconnects to the defined mqtt broker.
func (m *Handler) ReConnect() error {
	t := m.client.Connect()
	<-t.Done()
	return t.Error()
}

// Disconnect will end the connection to the broker.
func (m *Handler) Disconnect() error {
	if m.client == nil {
		return nil
	}

	m.client.Disconnect(quiesce)
	return nil
}

// Publish queues msg without blocking. The message is dropped when the queue is full.
func (m *Handler) Publish(msg Message) {
	select {
	case m.C <- msg:
	default:
		m.dropped.Add(1)
		debug.ErrorLog.Printf("mqtt queue is full, drop message for topic %v", msg.Topic)
	}
}

// Published returns the number of messages the broker accepted and the number of dropped messages.
func (m *Handler) Published() (published, dropped uint64) {
	return m.published.Load(), m.dropped.Load()
}

// Service listen to a message on the channel C and send the message to mqtt until ctx is done.
//  If no client or topic is defined, the message will be ignored.
func (m *Handler) Service(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-m.C:
			if m.client == nil || msg.Topic == "" {
				continue
			}
			m.send(ctx, msg)
		}
	}
}

func (m *Handler) send(ctx context.Context, msg Message) {
	if !m.client.IsConnected() {
		debug.DebugLog.Printf("mqtt broker isn't connected, reconnect it")

		if err := m.ReConnect(); err != nil {
			m.dropped.Add(1)
			debug.ErrorLog.Printf("can't reconnect to mqtt broker %v", err)
			return
		}
	}

	debug.DebugLog.Printf("publishing %v bytes to topic %v", len(msg.Payload), msg.Topic)
	t := m.client.Publish(msg.Topic, msg.Qos, msg.Retained, msg.Payload)

	select {
	case <-ctx.Done():
		return
	case <-t.Done():
	}

	if err := t.Error(); err != nil {
		m.dropped.Add(1)
		debug.ErrorLog.Printf("publishing topic %v: %v", msg.Topic, err)
		return
	}
	m.published.Add(1)
}
