package extension

import (
	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/plugin"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store"
)

// Option configures the RentHouse Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a renthouse.Option through to the underlying engine.
func WithEngineOption(opt renthouse.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a renthouse plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, renthouse.WithPlugin(p))
	}
}

// WithTransferer sets the payout rail used for withdrawals.
func WithTransferer(t escrow.Transferer) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, renthouse.WithTransferer(t))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for renthouse routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithDriver selects the store backend built at Register time.
func WithDriver(driver string) Option {
	return func(e *Extension) { e.config.Driver = driver }
}

// WithDatabaseURL sets the store connection string.
func WithDatabaseURL(url string) Option {
	return func(e *Extension) { e.config.DatabaseURL = url }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
