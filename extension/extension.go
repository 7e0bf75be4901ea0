// Package extension provides the Forge extension adapter for RentHouse.
//
// It implements the forge.Extension interface to integrate the rental
// ledger into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.renthouse" or
// "renthouse" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/memory"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/mongo"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/postgres"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "renthouse"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Rental-booking ledger with escrow accounting"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts RentHouse as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *renthouse.RentHouse
	store      store.Store
	engineOpts []renthouse.Option
}

// New creates a new RentHouse Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying RentHouse instance.
// This is nil until Register is called.
func (e *Extension) Engine() *renthouse.RentHouse { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Build a store from config when none was provided programmatically.
	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	e.engine = renthouse.New(e.store, e.engineOpts...)

	return vessel.Provide(fapp.Container(), func() (*renthouse.RentHouse, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("renthouse: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("renthouse: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore constructs the store backend named by config.Driver.
func (e *Extension) buildStore() (store.Store, error) {
	switch e.config.Driver {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.New(e.config.DatabaseURL)
	case "postgres":
		return postgres.New(context.Background(), e.config.DatabaseURL)
	case "mongo":
		return mongo.New(context.Background(), e.config.DatabaseURL, e.config.MongoDatabase)
	default:
		return nil, fmt.Errorf("renthouse: unknown store driver %q", e.config.Driver)
	}
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("renthouse: configuration is required but not found in config files; " +
				"ensure 'extensions.renthouse' or 'renthouse' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("renthouse: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("driver", e.config.Driver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.renthouse" first (namespaced pattern).
	if cm.IsSet("extensions.renthouse") {
		if err := cm.Bind("extensions.renthouse", &cfg); err == nil {
			e.Logger().Debug("renthouse: loaded config from file",
				forge.F("key", "extensions.renthouse"),
			)
			return cfg, true
		}
		e.Logger().Warn("renthouse: failed to bind extensions.renthouse config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "renthouse" key.
	if cm.IsSet("renthouse") {
		if err := cm.Bind("renthouse", &cfg); err == nil {
			e.Logger().Debug("renthouse: loaded config from file",
				forge.F("key", "renthouse"),
			)
			return cfg, true
		}
		e.Logger().Warn("renthouse: failed to bind renthouse config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = defaults.MongoDatabase
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.Driver == "" && programmaticConfig.Driver != "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.DatabaseURL == "" && programmaticConfig.DatabaseURL != "" {
		yamlConfig.DatabaseURL = programmaticConfig.DatabaseURL
	}
	if yamlConfig.MongoDatabase == "" && programmaticConfig.MongoDatabase != "" {
		yamlConfig.MongoDatabase = programmaticConfig.MongoDatabase
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
