package extension

// Config holds the RentHouse extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.renthouse" or "renthouse" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for renthouse routes (default: "/renthouse").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Driver selects the store backend when no store is provided
	// programmatically: "memory", "sqlite", "postgres" or "mongo"
	// (default: "memory").
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// DatabaseURL is the connection string for the postgres and mongo
	// drivers, or the database file path for sqlite.
	DatabaseURL string `json:"database_url" mapstructure:"database_url" yaml:"database_url"`

	// MongoDatabase is the database name used by the mongo driver
	// (default: "renthouse").
	MongoDatabase string `json:"mongo_database" mapstructure:"mongo_database" yaml:"mongo_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:      "/renthouse",
		Driver:        "memory",
		MongoDatabase: "renthouse",
	}
}
