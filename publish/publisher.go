// Package publish sends segmentation results to an MQTT broker.
package publish

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/swatdrc/doorpcl/config"
	"github.com/swatdrc/doorpcl/logging"
	"github.com/swatdrc/doorpcl/vision/segmentation"
)

const defaultPublishTimeout = 2 * time.Second

// Client is the part of an MQTT client a LinePublisher uses. mqtt.Client satisfies it.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
}

// LineMessage is a 3D segment in camera space, in meters.
type LineMessage struct {
	Start [3]float64 `json:"start"`
	End   [3]float64 `json:"end"`
}

// PlaneMessage describes one plane of a frame.
type PlaneMessage struct {
	Equation [4]float64    `json:"equation"`
	Inliers  int           `json:"inliers"`
	Lines    []LineMessage `json:"lines"`
	Dropped  int           `json:"dropped"`
}

// FrameMessage is the payload published for every segmented frame.
type FrameMessage struct {
	Sequence  int            `json:"sequence"`
	Timestamp int64          `json:"timestamp"`
	Planes    []PlaneMessage `json:"planes"`
}

// NewFrameMessage converts segmentation results into a FrameMessage.
func NewFrameMessage(seq int, ts time.Time, planes []segmentation.PlaneLines) FrameMessage {
	msg := FrameMessage{Sequence: seq, Timestamp: ts.Unix(), Planes: make([]PlaneMessage, 0, len(planes))}
	for _, p := range planes {
		lines := make([]LineMessage, 0, len(p.Lines))
		for _, l := range p.Lines {
			lines = append(lines, LineMessage{
				Start: [3]float64{l.Start.X, l.Start.Y, l.Start.Z},
				End:   [3]float64{l.End.X, l.End.Y, l.End.Z},
			})
		}
		msg.Planes = append(msg.Planes, PlaneMessage{
			Equation: p.Plane.Equation(),
			Inliers:  len(p.Inliers),
			Lines:    lines,
			Dropped:  p.Dropped,
		})
	}
	return msg
}

// LinePublisher publishes the 3D lines of each frame to <prefix>/lines.
type LinePublisher struct {
	client  Client
	prefix  string
	qos     byte
	retain  bool
	timeout time.Duration
	now     func() time.Time
	logger  logging.Logger
}

// NewLinePublisher returns a publisher for the given client.
// If client is nil, publishing is disabled and PublishFrame does nothing.
func NewLinePublisher(client Client, cfg config.MQTTConfig, logger logging.Logger) *LinePublisher {
	if logger == nil {
		logger = logging.NewBlankLogger("publish")
	}
	return &LinePublisher{
		client:  client,
		prefix:  cfg.TopicPrefix,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: defaultPublishTimeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Enabled reports whether the publisher has a client.
func (p *LinePublisher) Enabled() bool {
	return p.client != nil
}

// Topic returns the topic frames are published to.
func (p *LinePublisher) Topic() string {
	return fmt.Sprintf("%s/lines", p.prefix)
}

// PublishFrame publishes the lines found in frame seq.
func (p *LinePublisher) PublishFrame(seq int, planes []segmentation.PlaneLines) error {
	if p.client == nil {
		return nil
	}
	if !p.client.IsConnected() {
		return errors.New("MQTT client not connected")
	}

	payload, err := json.Marshal(NewFrameMessage(seq, p.now(), planes))
	if err != nil {
		return errors.Wrap(err, "marshaling frame message")
	}

	topic := p.Topic()
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(p.timeout) {
		return errors.Errorf("publishing to %s timed out after %v", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publishing to %s", topic)
	}
	p.logger.Debugw("published frame", "topic", topic, "sequence", seq, "planes", len(planes))
	return nil
}
