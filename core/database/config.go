package database

// Driver names accepted by Connect.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds configuration for the database connection.
type Config struct {
	// Driver is the database driver (mysql, sqlite).
	Driver string `mapstructure:"driver" default:"mysql"`
	// Host is the database host (mysql only).
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port (mysql only).
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user (mysql only).
	User string `mapstructure:"user" default:"root"`
	// Password is the database password (mysql only).
	Password string `mapstructure:"password" default:""`
	// Name is the database name (mysql only).
	Name string `mapstructure:"name" default:"backpacks"`
	// Path is the database file path (sqlite only).
	Path string `mapstructure:"path" default:"backpacks.db"`
	// TimeoutSeconds is the connect / read / write timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxOpenConns caps the connection pool size.
	MaxOpenConns int `mapstructure:"max_open_conns" default:"100"`
	// MaxIdleConns caps the idle connections kept in the pool.
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"10"`
	// CloseGraceSeconds is how long Close waits for in-flight asynchronous
	// operations before tearing down the pool.
	CloseGraceSeconds int `mapstructure:"close_grace_seconds" default:"1"`
}

// IsValidDriver checks if the configured driver is supported.
func (c Config) IsValidDriver() bool {
	switch c.Driver {
	case DriverMySQL, DriverSQLite:
		return true
	default:
		return false
	}
}
