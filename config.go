package xmlsig

import (
	"github.com/philiph/xmlsig/internal/adapters/driven/config"
)

// Re-export the configuration file loader
type Settings = config.Settings
type ResolverSettings = config.ResolverSettings

var (
	LoadSettings    = config.Load
	DefaultSettings = config.DefaultSettings
)
