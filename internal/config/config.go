package config

import (
	"fmt"
	"time"

	coreconfig "github.com/go-core-fx/config"
)

type Config struct {
	BaseURL             string        `koanf:"pos_base_url"`
	Token               string        `koanf:"pos_token"`
	Username            string        `koanf:"pos_username"`
	Password            string        `koanf:"pos_password"`
	CompanyEmail        string        `koanf:"pos_company_email"`
	Timeout             time.Duration `koanf:"timeout"`
	LogFile             string        `koanf:"log_file"`
	Debug               bool          `koanf:"debug"`
	ServiceChargeRate   float64       `koanf:"service_charge_rate"`
	ChargedPaymentTypes []int         `koanf:"charged_payment_types"`
}

func New() (Config, error) {
	cfg := Config{
		BaseURL:             "https://api.cloudpkerp.com:8081/api",
		Timeout:             10 * time.Second,
		LogFile:             "./cloudpos.log",
		Debug:               false,
		ServiceChargeRate:   0.07,
		ChargedPaymentTypes: []int{1, 3},
	}

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}
