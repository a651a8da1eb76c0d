package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/hems/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// Message is a payload recorded by MockPublisher.
type Message struct {
	Topic   string
	Payload []byte
}

// MockPublisher is an in-memory publisher used in tests.
type MockPublisher struct {
	Messages  []Message
	FailTopic map[string]bool
	commands  chan coremqtt.Command
	mu        sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		FailTopic: make(map[string]bool),
		commands:  make(chan coremqtt.Command, 8),
	}
}

// Publish records the message or returns an error if configured to fail.
func (m *MockPublisher) Publish(topic string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTopic[topic] {
		return fmt.Errorf("%w: %s", coremqtt.ErrPublishFailed, topic)
	}
	data, ok := payload.([]byte)
	if !ok {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: data})
	return nil
}

// Send queues a command as if it had been received from the broker.
func (m *MockPublisher) Send(cmd coremqtt.Command) { m.commands <- cmd }

// Commands returns queued commands.
func (m *MockPublisher) Commands() <-chan coremqtt.Command { return m.commands }

// Topics returns the topics published so far.
func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Messages))
	for i, msg := range m.Messages {
		out[i] = msg.Topic
	}
	return out
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}
