package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig carries the fixed biller/client identity printed on every
// invoice. The service bills a single client, so these are configuration,
// not request input.
type BillingConfig struct {
	ClientName    string   `mapstructure:"clientName"`
	ClientAddress []string `mapstructure:"clientAddress"`
	Currency      string   `mapstructure:"currency"`

	SenderName    string `mapstructure:"senderName"`
	SenderAddress string `mapstructure:"senderAddress"`
	PayeeName     string `mapstructure:"payeeName"`

	BankName    string `mapstructure:"bankName"`
	BankAccount string `mapstructure:"bankAccount"`
	BankBranch  string `mapstructure:"bankBranch"`
	RoutingCode string `mapstructure:"routingCode"`
	SwiftCode   string `mapstructure:"swiftCode"`

	FooterNote string `mapstructure:"footerNote"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		ClientName: "Infarsight FZ LLC",
		ClientAddress: []string{
			"CWEP0325 Compass Building, Al Shohada Road,",
			"AL Hamra Industrial Zone-FZ,",
			"Ras Al Khaimah, 10055, Ras Al Khaimah",
		},
		Currency:      "USD",
		SenderName:    "Minhazur Rahman Rafi",
		SenderAddress: "183/56 Kazi Villa, 12 no Road, Bagbari, Sylhet, Bangladesh.",
		PayeeName:     "Md Minhazur Rahman Rafi",
		BankName:      "The City Bank",
		BankAccount:   "2933502880001",
		BankBranch:    "Ambarkhana, Sylhet, Bangladesh.",
		RoutingCode:   "225910041",
		SwiftCode:     "CIBLBDDH",
		FooterNote:    "183/56 Kazi Villa, 12 no Road, Bagbari, Sylhet, Bangladesh.",
	}
}

// BillingConfigHolder keeps the current billing config and swaps it
// atomically when the config file changes on disk.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/invoicer/config") // Volume-mounted config
	v.AddConfigPath("/etc/invoicer")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("INVOICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	holder := &BillingConfigHolder{}
	cfg, err := unmarshalBilling(v)
	if err != nil {
		return nil, err
	}
	holder.Store(cfg)

	if fileFound {
		v.OnConfigChange(func(_ fsnotify.Event) {
			next, err := unmarshalBilling(v)
			if err != nil {
				log.Printf("billing config reload failed: %v", err)
				return
			}
			holder.Store(next)
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticBillingConfigHolder returns a holder pinned to cfg with no file
// watching behind it. Used where the watcher has nothing to watch (tests).
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.Store(cfg)
	return holder
}

// Store atomically replaces the current billing config; readers pick the
// new value up on their next Current call.
func (h *BillingConfigHolder) Store(cfg BillingConfig) {
	h.current.Store(cfg)
}

func (h *BillingConfigHolder) Current() BillingConfig {
	cfg, ok := h.current.Load().(BillingConfig)
	if !ok {
		return DefaultBillingConfig()
	}
	return cfg
}

func unmarshalBilling(v *viper.Viper) (BillingConfig, error) {
	cfg := DefaultBillingConfig()
	if v == nil {
		return cfg, errors.New("nil viper instance")
	}
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return BillingConfig{}, err
	}
	if strings.TrimSpace(cfg.ClientName) == "" {
		cfg.ClientName = DefaultBillingConfig().ClientName
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = DefaultBillingConfig().Currency
	}
	return cfg, nil
}
