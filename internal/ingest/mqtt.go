package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/sensorapi"
)

// Defaults for MQTTOptions.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultQoS            = byte(1)
	clientIDPrefix        = "ecodetect-"
	updateBuffer          = 16
	disconnectQuiesceMs   = 250
)

// MQTTOptions configures the device subscription.
type MQTTOptions struct {
	Broker         string
	Topic          string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
}

// MQTTFeed keeps the most recent reading published on the device topic.
type MQTTFeed struct {
	opts    MQTTOptions
	client  mqtt.Client
	updates chan sensorapi.SensorReading

	mu       sync.RWMutex
	latest   *sensorapi.SensorReading
	received time.Time
	dropped  int
}

// NewMQTTFeed builds an unconnected feed. A random client ID is generated
// when none is configured.
func NewMQTTFeed(opts MQTTOptions) (*MQTTFeed, error) {
	if opts.Broker == "" || opts.Topic == "" {
		return nil, ErrNotConfigured
	}
	if opts.ClientID == "" {
		opts.ClientID = clientIDPrefix + uuid.NewString()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.QoS > 2 {
		opts.QoS = DefaultQoS
	}

	f := &MQTTFeed{
		opts:    opts,
		updates: make(chan sensorapi.SensorReading, updateBuffer),
	}

	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(opts.ConnectTimeout).
		SetCleanSession(true)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	f.client = mqtt.NewClient(co)
	return f, nil
}

// ClientID returns the MQTT client identifier in use.
func (f *MQTTFeed) ClientID() string { return f.opts.ClientID }

// Start connects, subscribes and blocks until ctx is done, then disconnects.
func (f *MQTTFeed) Start(ctx context.Context) error {
	log := logging.FromContext(ctx)

	token := f.client.Connect()
	if !token.WaitTimeout(f.opts.ConnectTimeout) {
		return fmt.Errorf("%w: %s: timed out after %s", ErrMQTTConnect, f.opts.Broker, f.opts.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMQTTConnect, f.opts.Broker, err)
	}
	defer f.client.Disconnect(disconnectQuiesceMs)

	sub := f.client.Subscribe(f.opts.Topic, f.opts.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		f.handle(ctx, msg)
	})
	if !sub.WaitTimeout(f.opts.ConnectTimeout) || sub.Error() != nil {
		return fmt.Errorf("%w: %s: %v", ErrMQTTSubscribe, f.opts.Topic, sub.Error())
	}

	log.Info().Ctx(ctx).
		Str("component", "ingest").
		Str("broker", f.opts.Broker).
		Str("topic", f.opts.Topic).
		Str("client_id", f.opts.ClientID).
		Msg("subscribed to device topic")

	<-ctx.Done()
	log.Info().Ctx(ctx).
		Str("component", "ingest").
		Str("topic", f.opts.Topic).
		Int("dropped", f.Dropped()).
		Msg("device feed stopped")
	return nil
}

// Latest returns the most recent reading and when it arrived.
func (f *MQTTFeed) Latest() (*sensorapi.SensorReading, time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.latest == nil {
		return nil, time.Time{}, false
	}
	r := *f.latest
	return &r, f.received, true
}

// Updates delivers decoded readings to the monitor. Readings are dropped when
// the consumer falls behind; Latest always holds the newest one.
func (f *MQTTFeed) Updates() <-chan sensorapi.SensorReading { return f.updates }

// Dropped returns how many readings were not delivered on Updates.
func (f *MQTTFeed) Dropped() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func (f *MQTTFeed) handle(ctx context.Context, msg mqtt.Message) {
	log := logging.FromContext(ctx)

	reading, err := DecodePayload(msg.Payload())
	if err != nil {
		log.Warn().Ctx(ctx).
			Str("component", "ingest").
			Str("topic", msg.Topic()).
			Err(err).
			Msg("discarding device message")
		return
	}

	f.mu.Lock()
	f.latest = &reading
	f.received = time.Now()
	f.mu.Unlock()

	select {
	case f.updates <- reading:
	default:
		f.mu.Lock()
		f.dropped++
		f.mu.Unlock()
	}
}
