package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "serena.cfg.json"

// ErrNotFound is returned by Load when no configuration file exists. Defaults
// are still in effect.
var ErrNotFound = errors.New("config file not found")

// HTTPConfig holds listener settings
type HTTPConfig struct {
	Port      int
	StaticDir string
}

// Addr returns the listen address for all interfaces.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// HubConfig holds viewer connection settings
type HubConfig struct {
	SendBuffer int
	WriteWait  time.Duration
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// GraylogConfig holds GELF output settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// MQTTConfig holds broker settings
type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	TopicPrefix string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A missing file is
// reported as ErrNotFound; any other read error is returned as is.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("dev", true)

	viper.SetDefault("http.port", 3000)
	viper.SetDefault("http.staticDir", "./public")

	viper.SetDefault("broadcast.interval", "1s")

	viper.SetDefault("hub.sendBuffer", 16)
	viper.SetDefault("hub.writeWait", "10s")

	viper.SetDefault("track.size", 100)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "serena")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.clientId", "serena")
	viper.SetDefault("mqtt.topicPrefix", "serena")

	if err := viper.BindEnv("http.port", "PORT"); err != nil {
		return fmt.Errorf("binding PORT: %w", err)
	}

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w in %s", ErrNotFound, configDir)
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetHTTPConfig returns the listener settings.
func GetHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Port:      viper.GetInt("http.port"),
		StaticDir: viper.GetString("http.staticDir"),
	}
}

// GetHubConfig returns the viewer connection settings.
func GetHubConfig() HubConfig {
	return HubConfig{
		SendBuffer: viper.GetInt("hub.sendBuffer"),
		WriteWait:  viper.GetDuration("hub.writeWait"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns the GELF output settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetMQTTConfig returns the broker settings.
func GetMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Enabled:     viper.GetBool("mqtt.enabled"),
		Broker:      viper.GetString("mqtt.broker"),
		ClientID:    viper.GetString("mqtt.clientId"),
		TopicPrefix: viper.GetString("mqtt.topicPrefix"),
	}
}
