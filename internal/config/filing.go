package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FilingConfig carries customs filing defaults that operators tune without a redeploy.
type FilingConfig struct {
	EntryNumberPrefix string        `mapstructure:"entryNumberPrefix"`
	DefaultZoneStatus string        `mapstructure:"defaultZoneStatus"`
	EntryType         string        `mapstructure:"entryType"`
	LockTTL           time.Duration `mapstructure:"lockTTL"`
}

func DefaultFilingConfig() FilingConfig {
	return FilingConfig{
		EntryNumberPrefix: "FTZ",
		DefaultZoneStatus: "P",
		EntryType:         "06",
		LockTTL:           30 * time.Second,
	}
}

type FilingConfigHolder struct {
	current atomic.Value // holds FilingConfig
}

// NewStaticFilingConfig returns a holder that never reloads.
func NewStaticFilingConfig(cfg FilingConfig) *FilingConfigHolder {
	holder := &FilingConfigHolder{}
	holder.current.Store(withDefaults(cfg))
	return holder
}

func NewFilingConfigHolder() (*FilingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("filing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/ftzflow/config")
	v.AddConfigPath("/etc/ftzflow")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FTZFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultFilingConfig()
	v.SetDefault("filing.entryNumberPrefix", defaults.EntryNumberPrefix)
	v.SetDefault("filing.defaultZoneStatus", defaults.DefaultZoneStatus)
	v.SetDefault("filing.entryType", defaults.EntryType)
	v.SetDefault("filing.lockTTL", defaults.LockTTL)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg FilingConfig
	if err := v.UnmarshalKey("filing", &cfg); err != nil {
		return nil, err
	}
	cfg = withDefaults(cfg)
	if err := validateFilingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &FilingConfigHolder{}
	holder.current.Store(cfg)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated FilingConfig
			if err := v.UnmarshalKey("filing", &updated); err != nil {
				log.Printf("[filing-config] reload failed: %v", err)
				return
			}
			updated = withDefaults(updated)
			if err := validateFilingConfig(updated); err != nil {
				log.Printf("[filing-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[filing-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *FilingConfigHolder) Get() FilingConfig {
	if h == nil {
		return DefaultFilingConfig()
	}
	cfg, ok := h.current.Load().(FilingConfig)
	if !ok {
		return DefaultFilingConfig()
	}
	return cfg
}

func withDefaults(cfg FilingConfig) FilingConfig {
	defaults := DefaultFilingConfig()
	if strings.TrimSpace(cfg.EntryNumberPrefix) == "" {
		cfg.EntryNumberPrefix = defaults.EntryNumberPrefix
	}
	if strings.TrimSpace(cfg.DefaultZoneStatus) == "" {
		cfg.DefaultZoneStatus = defaults.DefaultZoneStatus
	}
	if strings.TrimSpace(cfg.EntryType) == "" {
		cfg.EntryType = defaults.EntryType
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	cfg.EntryNumberPrefix = strings.ToUpper(strings.TrimSpace(cfg.EntryNumberPrefix))
	cfg.DefaultZoneStatus = strings.ToUpper(strings.TrimSpace(cfg.DefaultZoneStatus))
	return cfg
}

func validateFilingConfig(cfg FilingConfig) error {
	if len(cfg.EntryNumberPrefix) > 4 {
		return errors.New("filing.entryNumberPrefix must be at most 4 characters")
	}
	switch cfg.DefaultZoneStatus {
	case "P", "N", "D", "Z":
	default:
		return errors.New("filing.defaultZoneStatus must be one of P, N, D, Z")
	}
	return nil
}
