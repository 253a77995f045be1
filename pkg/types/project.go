package types

// ProjectConfig is the top-level tripwire.yaml configuration.
type ProjectConfig struct {
	Defaults  SensorDefaults   `yaml:"defaults,omitempty"`
	Sensors   []SensorConfig   `yaml:"sensors"`
	Events    EventsConfig     `yaml:"events,omitempty"`
	Telemetry TelemetryConfig  `yaml:"telemetry,omitempty"`
	Breaker   *BreakerSettings `yaml:"breaker,omitempty"`
}

// SensorDefaults fills fields a sensor leaves empty.
type SensorDefaults struct {
	ConnID       string `yaml:"connId,omitempty"`
	Region       string `yaml:"region,omitempty"`
	PokeInterval string `yaml:"pokeInterval,omitempty"`
	Timeout      string `yaml:"timeout,omitempty"`
}

// EventsConfig selects where terminal sensor outcomes are published.
type EventsConfig struct {
	EventBus string `yaml:"eventBus,omitempty"`
	QueueURL string `yaml:"queueUrl,omitempty"`
	Console  bool   `yaml:"console,omitempty"`
}

// TelemetryConfig configures OTLP export. An empty Endpoint disables it.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	Insecure    bool   `yaml:"insecure,omitempty"`
	ServiceName string `yaml:"serviceName,omitempty"`
}

// BreakerSettings enables a circuit breaker around every sensor's provider.
type BreakerSettings struct {
	FailThreshold uint32 `yaml:"failThreshold,omitempty"`
	Cooldown      string `yaml:"cooldown,omitempty"`
}
