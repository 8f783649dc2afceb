// Package config defines the structures to configure a door finder run.
package config

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/swatdrc/doorpcl/rimage"
	"github.com/swatdrc/doorpcl/rimage/transform"
	"github.com/swatdrc/doorpcl/vision/segmentation"
)

// Config is the top level configuration of a door finder.
type Config struct {
	// Camera holds the depth camera intrinsics. It may be left out when intrinsics come
	// from a separate file or the default profile.
	Camera       *transform.PinholeCameraIntrinsics `json:"camera,omitempty" yaml:"camera,omitempty"`
	Segmentation segmentation.MultiPlaneConfig      `json:"segmentation" yaml:"segmentation"`
	Lines        rimage.HoughConfig                 `json:"lines" yaml:"lines"`
	MQTT         MQTTConfig                         `json:"mqtt" yaml:"mqtt"`
	Frames       FramesConfig                       `json:"frames" yaml:"frames"`
}

// MQTTConfig describes where line results are published. An empty Broker disables publishing.
type MQTTConfig struct {
	Broker      string `json:"broker" yaml:"broker"`
	ClientID    string `json:"client_id" yaml:"client_id"`
	Username    string `json:"username,omitempty" yaml:"username,omitempty"`
	Password    string `json:"password,omitempty" yaml:"password,omitempty"`
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`
	QoS         byte   `json:"qos" yaml:"qos"`
	Retain      bool   `json:"retain" yaml:"retain"`
}

// Enabled reports whether a broker is configured.
func (cfg *MQTTConfig) Enabled() bool {
	return cfg.Broker != ""
}

// CheckValid checks the MQTT fields. A disabled config is always valid.
func (cfg *MQTTConfig) CheckValid() error {
	if !cfg.Enabled() {
		return nil
	}
	if cfg.TopicPrefix == "" {
		return errors.New("topic_prefix is required when a broker is set")
	}
	if cfg.QoS > 2 {
		return errors.Errorf("qos must be 0, 1 or 2, got %d", cfg.QoS)
	}
	return nil
}

// FramesConfig locates the recorded frames. Frame n is read from Prefix followed by n and ".pcd".
type FramesConfig struct {
	Prefix string `json:"prefix" yaml:"prefix"`
	Start  int    `json:"start" yaml:"start"`
}

// CheckValid checks the frame fields.
func (cfg *FramesConfig) CheckValid() error {
	if cfg.Start < 0 {
		return errors.Errorf("start cannot be less than 0, got %d", cfg.Start)
	}
	return nil
}

// Default returns the configuration used for any field a config file leaves out.
func Default() Config {
	return Config{
		Segmentation: segmentation.DefaultMultiPlaneConfig(),
		Lines:        rimage.DefaultHoughConfig(),
		MQTT: MQTTConfig{
			ClientID:    "doorfinder",
			TopicPrefix: "door",
		},
		Frames: FramesConfig{Prefix: "pcd_frames/sample"},
	}
}

// CheckValid checks every section and reports all of the problems found.
func (c *Config) CheckValid() error {
	var allErrs error
	if c.Camera != nil {
		if err := c.Camera.CheckValid(); err != nil {
			allErrs = multierr.Append(allErrs, errors.Wrap(err, "camera"))
		}
	}
	if err := c.Segmentation.CheckValid(); err != nil {
		allErrs = multierr.Append(allErrs, errors.Wrap(err, "segmentation"))
	}
	if err := c.Lines.CheckValid(); err != nil {
		allErrs = multierr.Append(allErrs, errors.Wrap(err, "lines"))
	}
	if err := c.MQTT.CheckValid(); err != nil {
		allErrs = multierr.Append(allErrs, errors.Wrap(err, "mqtt"))
	}
	if err := c.Frames.CheckValid(); err != nil {
		allErrs = multierr.Append(allErrs, errors.Wrap(err, "frames"))
	}
	return allErrs
}
