package publish

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/swatdrc/doorpcl/config"
	"github.com/swatdrc/doorpcl/logging"
)

const connectTimeout = 10 * time.Second

// NewClientOptions returns the paho options for the configured broker.
func NewClientOptions(cfg config.MQTTConfig, logger logging.Logger) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warnw("MQTT connection interrupted, auto-reconnect will retry", "error", err)
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		logger.Info("MQTT reconnecting")
	})
	return opts
}

// Connect connects to the configured broker. It returns nil and no error when MQTT is not
// configured.
func Connect(cfg config.MQTTConfig, logger logging.Logger) (mqtt.Client, error) {
	if !cfg.Enabled() {
		logger.Info("MQTT disabled: no broker configured")
		return nil, nil
	}
	client := mqtt.NewClient(NewClientOptions(cfg, logger))
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.Errorf("connecting to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", cfg.Broker)
	}
	logger.Infow("connected to MQTT broker", "broker", cfg.Broker)
	return client, nil
}
