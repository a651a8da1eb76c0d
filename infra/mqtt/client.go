package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/hems/core/monitoring"
	coremqtt "github.com/kilianp07/hems/core/mqtt"
	"github.com/kilianp07/hems/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker       string          `json:"broker" yaml:"broker"`
	ClientID     string          `json:"client_id" yaml:"client_id"`
	Username     string          `json:"username" yaml:"username"`
	Password     string          `json:"password" yaml:"password"`
	TopicPrefix  string          `json:"topic_prefix" yaml:"topic_prefix"`
	ControlTopic string          `json:"control_topic" yaml:"control_topic"`
	Retain       bool            `json:"retain" yaml:"retain"`
	UseTLS       bool            `json:"use_tls" yaml:"use_tls"`
	ClientCert   string          `json:"client_cert" yaml:"client_cert"`
	ClientKey    string          `json:"client_key" yaml:"client_key"`
	CABundle     string          `json:"ca_bundle" yaml:"ca_bundle"`
	AuthMethod   string          `json:"auth_method" yaml:"auth_method"`
	QoS          map[string]byte `json:"qos" yaml:"qos"`
	LWTTopic     string          `json:"lwt_topic" yaml:"lwt_topic"`
	LWTPayload   string          `json:"lwt_payload" yaml:"lwt_payload"`
	LWTQoS       byte            `json:"lwt_qos" yaml:"lwt_qos"`
	LWTRetain    bool            `json:"lwt_retain" yaml:"lwt_retain"`
	MaxRetries   int             `json:"max_retries" yaml:"max_retries"`
	BackoffMS    int             `json:"backoff_ms" yaml:"backoff_ms"`
	TLSConfig    *tls.Config     `json:"-" yaml:"-"`
}

// Topic joins the configured prefix with the given parts.
func (c Config) Topic(parts ...string) string {
	prefix := c.TopicPrefix
	if prefix == "" {
		prefix = "hems"
	}
	return strings.Join(append([]string{strings.TrimSuffix(prefix, "/")}, parts...), "/")
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements the core Publisher interface using Eclipse Paho.
type PahoClient struct {
	cli          pahoClient
	controlTopic string
	qos          map[string]byte
	retain       bool

	commands   chan coremqtt.Command
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the control
// topic when one is configured.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "hems-" + uuid.NewString()
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	logger := logger.New("mqtt_client")
	pc := &PahoClient{
		controlTopic: cfg.ControlTopic,
		qos:          cfg.QoS,
		retain:       cfg.Retain,
		commands:     make(chan coremqtt.Command, 8),
		logger:       logger,
		maxRetries:   cfg.MaxRetries,
		backoff:      time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if pc.maxRetries <= 0 {
		pc.maxRetries = 3
	}
	if pc.backoff <= 0 {
		pc.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(c paho.Client) {
		logger.Infof("MQTT connected")
		if pc.controlTopic == "" {
			return
		}
		if token := c.Subscribe(pc.controlTopic, pc.qosFor("control"), pc.onControl); token.Wait() && token.Error() != nil {
			logger.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoClient) onControl(_ paho.Client, msg paho.Message) {
	var cmd coremqtt.Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		p.logger.Errorf("failed to decode command: %v", err)
		return
	}
	select {
	case p.commands <- cmd:
		p.logger.Infof("received command %s (%s)", cmd.Command, cmd.CommandID)
	default:
		p.logger.Warnf("command %s dropped, queue full", cmd.CommandID)
	}
}

// Commands returns received control commands.
func (p *PahoClient) Commands() <-chan coremqtt.Command { return p.commands }

// Publish sends payload to topic, retrying with exponential backoff. The QoS
// is looked up by the last topic segment.
func (p *PahoClient) Publish(topic string, payload any) error {
	data, ok := payload.([]byte)
	if !ok {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	qos := p.qosFor(topic[strings.LastIndex(topic, "/")+1:])
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, p.retain, data)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(data), topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	err := fmt.Errorf("%w: %s: %v", coremqtt.ErrPublishFailed, topic, publishErr)
	coremon.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
	return err
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
