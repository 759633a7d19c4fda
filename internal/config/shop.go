package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PriceCalculatorGross = "gross"
	PriceCalculatorNet   = "net"
)

// ShopSettings are shop-wide defaults consumed by the price calculator.
type ShopSettings struct {
	PriceCalculator string `mapstructure:"priceCalculator"`
	Currency        string `mapstructure:"currency"`
	CurrencySymbol  string `mapstructure:"currencySymbol"`
	DecimalPlaces   int32  `mapstructure:"decimalPlaces"`
	DefaultCountry  string `mapstructure:"defaultCountry"`
}

func DefaultShopSettings() ShopSettings {
	return ShopSettings{
		PriceCalculator: PriceCalculatorGross,
		Currency:        "EUR",
		CurrencySymbol:  "€",
		DecimalPlaces:   2,
		DefaultCountry:  "DE",
	}
}

type ShopSettingsHolder struct {
	current atomic.Value // holds ShopSettings
}

// NewStaticShopSettings returns a holder that never reloads.
func NewStaticShopSettings(settings ShopSettings) *ShopSettingsHolder {
	holder := &ShopSettingsHolder{}
	holder.current.Store(settings)
	return holder
}

func NewShopSettingsHolder(cfg Config, log *zap.Logger) (*ShopSettingsHolder, error) {
	v := viper.New()

	if path := strings.TrimSpace(cfg.ShopSettingsPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("shop")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/storefront")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultShopSettings()
	v.SetDefault("shop.priceCalculator", defaults.PriceCalculator)
	v.SetDefault("shop.currency", defaults.Currency)
	v.SetDefault("shop.currencySymbol", defaults.CurrencySymbol)
	v.SetDefault("shop.decimalPlaces", defaults.DecimalPlaces)
	v.SetDefault("shop.defaultCountry", defaults.DefaultCountry)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	settings := DefaultShopSettings()
	if err := v.UnmarshalKey("shop", &settings); err != nil {
		return nil, err
	}
	settings = normalizeShopSettings(settings)
	if err := validateShopSettings(settings); err != nil {
		return nil, err
	}

	holder := NewStaticShopSettings(settings)
	if !fileLoaded {
		return holder, nil
	}

	log = log.Named("shop.settings")
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultShopSettings()
		if err := v.UnmarshalKey("shop", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		updated = normalizeShopSettings(updated)
		if err := validateShopSettings(updated); err != nil {
			log.Warn("invalid settings ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *ShopSettingsHolder) Get() ShopSettings {
	return h.current.Load().(ShopSettings)
}

func normalizeShopSettings(s ShopSettings) ShopSettings {
	s.PriceCalculator = strings.ToLower(strings.TrimSpace(s.PriceCalculator))
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	s.DefaultCountry = strings.ToUpper(strings.TrimSpace(s.DefaultCountry))
	return s
}

func validateShopSettings(s ShopSettings) error {
	if s.PriceCalculator != PriceCalculatorGross && s.PriceCalculator != PriceCalculatorNet {
		return errors.New("shop.priceCalculator must be gross or net")
	}
	if s.DecimalPlaces < 0 || s.DecimalPlaces > 6 {
		return errors.New("shop.decimalPlaces must be between 0 and 6")
	}
	return nil
}
