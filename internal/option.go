package internal

// Option is a functional option for configuring the gitfolio application
// before Run or RunMCP starts it.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
