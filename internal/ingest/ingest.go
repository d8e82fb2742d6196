// Package ingest subscribes to device telemetry published over MQTT and
// records each reading as sensor data.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/config"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
	"github.com/robowatch/hub/internal/monitoring"
)

// Recorder stores a validated reading.
type Recorder interface {
	RecordSensorData(ctx context.Context, in models.SensorDataInput) (*models.SensorData, error)
}

// Metrics counts handled messages by result.
type Metrics interface {
	RecordIngest(result string)
}

// Subscriber owns the MQTT client.
type Subscriber struct {
	config   config.MQTTConfig
	recorder Recorder
	metrics  Metrics
	client   mqtt.Client
	ctx      context.Context
}

func New(cfg config.MQTTConfig, recorder Recorder, metrics Metrics) *Subscriber {
	return &Subscriber{
		config:   cfg,
		recorder: recorder,
		metrics:  metrics,
		ctx:      context.Background(),
	}
}

// Start connects to the broker and subscribes on every (re)connect.
// Readings are recorded with ctx until Stop is called.
func (s *Subscriber) Start(ctx context.Context) error {
	s.ctx = ctx

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.config.Broker)
	opts.SetClientID(fmt.Sprintf("%s-%s", s.config.ClientID, time.Now().Format("20060102150405")))
	if s.config.Username != "" {
		opts.SetUsername(s.config.Username)
		opts.SetPassword(s.config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(s.config.Topic, s.config.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			s.handleMessage(msg.Topic(), msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			nuts.L.Errorf("[Ingest] Subscribe to %s failed: %v", s.config.Topic, token.Error())
			return
		}
		nuts.L.Infof("[Ingest] Subscribed to %s", s.config.Topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		nuts.L.Warnf("[Ingest] MQTT connection lost: %v", err)
	}

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		nuts.L.Warnf("[Ingest] Broker %s not reachable yet, retrying in background", s.config.Broker)
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	nuts.L.Infof("[Ingest] Connected to %s", s.config.Broker)
	return nil
}

// Stop disconnects, waiting briefly for in-flight work.
func (s *Subscriber) Stop() {
	if s.client != nil && s.client.IsConnectionOpen() {
		s.client.Disconnect(250)
	}
	nuts.L.Infof("[Ingest] Stopped")
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	in, err := parsePayload(topic, payload)
	if err != nil {
		s.metrics.RecordIngest(monitoring.ResultRejected)
		nuts.L.Warnf("[Ingest] Dropped message on %s: %v", topic, err)
		return
	}

	if _, err := s.recorder.RecordSensorData(s.ctx, in); err != nil {
		if errors.IsValidation(err) {
			s.metrics.RecordIngest(monitoring.ResultRejected)
			nuts.L.Warnf("[Ingest] Dropped message on %s: %v", topic, err)
			return
		}
		s.metrics.RecordIngest(monitoring.ResultFailed)
		nuts.L.Errorf("[Ingest] Failed to store reading from %s: %v", topic, err)
		return
	}
	s.metrics.RecordIngest(monitoring.ResultStored)
}

// parsePayload decodes a telemetry message. The sensor type defaults to
// the last topic segment, so robowatch/sensors/temperature needs none.
func parsePayload(topic string, payload []byte) (models.SensorDataInput, error) {
	var in models.SensorDataInput
	if err := json.Unmarshal(payload, &in); err != nil {
		return in, fmt.Errorf("invalid payload: %w", err)
	}
	if strings.TrimSpace(in.SensorType) == "" {
		if i := strings.LastIndex(topic, "/"); i >= 0 && i < len(topic)-1 {
			in.SensorType = topic[i+1:]
		}
	}
	return in, nil
}
