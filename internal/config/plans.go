package config

import (
	"errors"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PlanOverride is a partial plan definition read from the plans file.
// Zero values leave the default untouched.
type PlanOverride struct {
	Name          string           `mapstructure:"name"`
	Price         *float64         `mapstructure:"price"`
	Currency      string           `mapstructure:"currency"`
	BillingPeriod string           `mapstructure:"billingperiod"`
	Features      map[string]any   `mapstructure:"features"`
	Limits        map[string]int64 `mapstructure:"limits"`
}

// PlanOverrides is keyed by category, then plan id.
type PlanOverrides map[string]map[string]PlanOverride

// LoadPlanOverrides reads plans.yml. A missing file yields empty overrides.
// Viper lowercases map keys, so consumers must match feature and limit
// keys case-insensitively.
func LoadPlanOverrides(cfg Config, log *zap.Logger) (PlanOverrides, error) {
	v := viper.New()

	if cfg.PlansFile != "" {
		v.SetConfigFile(cfg.PlansFile)
	} else {
		v.SetConfigName("plans")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/factorylicense")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FACTORYLICENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return PlanOverrides{}, nil
		}
		return nil, err
	}

	overrides := PlanOverrides{}
	if err := v.UnmarshalKey("plans", &overrides); err != nil {
		return nil, err
	}
	if err := validatePlanOverrides(overrides); err != nil {
		return nil, err
	}

	// The catalog is merged once at startup; edits only take effect on restart.
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		if log != nil {
			log.Warn("plans file changed, restart required to apply", zap.String("file", e.Name))
		}
	})

	return overrides, nil
}

func validatePlanOverrides(overrides PlanOverrides) error {
	for category, plans := range overrides {
		if strings.TrimSpace(category) == "" {
			return errors.New("plans: empty category key")
		}
		for id, p := range plans {
			if strings.TrimSpace(id) == "" {
				return errors.New("plans: empty plan id in " + category)
			}
			if p.Price != nil && *p.Price < 0 {
				return errors.New("plans: negative price for " + category + "." + id)
			}
			for key, limit := range p.Limits {
				if limit < -1 {
					return errors.New("plans: invalid limit " + key + " for " + category + "." + id)
				}
			}
		}
	}
	return nil
}
