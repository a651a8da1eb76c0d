package mqtt

// Command is a run control message received from the broker.
type Command struct {
	CommandID string `json:"command_id"`
	Command   string `json:"command"`
}

// CommandStop asks a running simulation to stop after the current step.
const CommandStop = "stop"

// Publisher publishes simulation snapshots and delivers run control
// commands.
type Publisher interface {
	// Publish sends payload to topic. Payloads other than []byte are JSON
	// encoded.
	Publish(topic string, payload any) error

	// Commands returns the channel of control commands. It is never closed
	// before Disconnect.
	Commands() <-chan Command

	Disconnect()
}
