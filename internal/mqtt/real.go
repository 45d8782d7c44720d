package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/mailbox-sensor/internal/logic"
)

// DefaultBufferSize is the number of messages held while disconnected.
const DefaultBufferSize = 100

const publishTimeout = 5 * time.Second

var errPublishTimeout = errors.New("publish timeout")

// client is the part of paho.Client the publisher uses.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an MQTT broker. Messages published while the
// connection is down are buffered and replayed, oldest first, on reconnect.
type RealPublisher struct {
	client client
	logger *slog.Logger

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher starts connecting to broker in the background and returns
// immediately. The broker keeps an OFFLINE message as last will.
func NewRealPublisher(broker, clientID string, logger *slog.Logger) (*RealPublisher, error) {
	will, err := FormatSystemPayload(SystemEvent{Event: SystemOffline})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	p := &RealPublisher{logger: logger, buf: newRingBuffer(DefaultBufferSize)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "err", err)
		})

	c := paho.NewClient(opts)
	p.client = c
	c.Connect()
	return p, nil
}

func newPublisher(c client, logger *slog.Logger, bufSize int) *RealPublisher {
	return &RealPublisher{client: c, logger: logger, buf: newRingBuffer(bufSize)}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends a mailbox event (QoS 1, not retained).
func (p *RealPublisher) Publish(id string, event logic.Event) error {
	payload, err := FormatPayload(id, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: Topic, payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	if p.client.IsConnectionOpen() {
		p.mu.Unlock()
		return p.send(msg)
	}
	firstDrop := p.buf.push(msg)
	p.mu.Unlock()
	if firstDrop {
		p.logger.Warn("mqtt buffer full, dropping oldest", "capacity", len(p.buf.buf))
	}

	// The connection may have come up after the check, with onConnect
	// already past its drain.
	if p.client.IsConnectionOpen() {
		p.replay()
	}
	return nil
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%s: %w", msg.topic, errPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// onConnect replays everything buffered during the outage.
func (p *RealPublisher) onConnect() {
	if n := p.replay(); n == 0 {
		p.logger.Info("mqtt connected")
	}
}

// replay sends and clears the buffer, returning how many messages it held.
func (p *RealPublisher) replay() int {
	p.mu.Lock()
	pending := p.buf.drain()
	p.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}
	p.logger.Info("mqtt connected, replaying buffered messages", "count", len(pending))
	for _, msg := range pending {
		if err := p.send(msg); err != nil {
			p.logger.Warn("mqtt replay failed", "err", err)
		}
	}
	return len(pending)
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
