package httpserver

import "time"

// Config holds server settings. Fields map to environment variables for
// loading via pkg/config.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`
	// ReadTimeout bounds reading the entire request.
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	// WriteTimeout bounds response writes. Zero disables it, which the
	// status stream endpoint requires; see the package documentation.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0"`
	// IdleTimeout bounds keep-alive waits between requests.
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}
