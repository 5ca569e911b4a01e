package server

// Config holds configuration for the admin HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the admin API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Enabled controls whether the admin HTTP surface is started at all.
	Enabled bool `mapstructure:"enabled" default:"true"`
}
