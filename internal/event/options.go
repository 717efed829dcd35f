package event

// Config contains the settings of one listener.
type Config struct {
	// Name labels the listener in logs and errors.
	Name string

	// Order sorts listeners within a registry, lower first. Equal orders
	// fall back to registration sequence.
	Order int64

	// AllowLoop exempts the listener from loop detection.
	AllowLoop bool

	// SkipHistory suppresses replay on subscribe.
	SkipHistory bool
}

// DefaultConfig returns the default listener configuration.
func DefaultConfig() Config {
	return Config{}
}

// Option configures a listener.
type Option func(*Config)

// WithName sets the listener name.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithOrder sets the listener order.
func WithOrder(order int64) Option {
	return func(c *Config) {
		c.Order = order
	}
}

// WithAllowLoop sets whether the listener may re-trigger itself.
func WithAllowLoop(allow bool) Option {
	return func(c *Config) {
		c.AllowLoop = allow
	}
}

// WithSkipHistory sets whether replay on subscribe is suppressed.
func WithSkipHistory(skip bool) Option {
	return func(c *Config) {
		c.SkipHistory = skip
	}
}

// HubOption configures a Hub.
type HubOption func(*hubConfig)

type hubConfig struct {
	name string
}

// WithHubName labels the hub in logs.
func WithHubName(name string) HubOption {
	return func(c *hubConfig) {
		c.name = name
	}
}
