package config

import (
	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gitlab.com/sfr-tokyo/economy_api/conv"
	"gitlab.com/sfr-tokyo/economy_api/monitor"
	"gitlab.com/sfr-tokyo/economy_api/net/kafka"
	"gitlab.com/sfr-tokyo/economy_api/net/redis"
)

// Config structure
type Config struct {
	Server          ServerConfig
	Kafka           kafka.Config          `mapstructure:"kafka"`
	DatabaseCluster DatabaseClusterConfig `mapstructure:"database_cluster"`
	Redis           redis.Config
	Economy         EconomyConfig `mapstructure:"economy"`
	Crons           Crons         `mapstructure:"crons"`
}

// ServerConfig structure
type ServerConfig struct {
	Monitoring monitor.Config `mapstructure:"monitoring"`
	API        APIConfig      `mapstructure:"api"`
}

// APIConfig structure
type APIConfig struct {
	Port      int
	KeepAlive bool `mapstructure:"keep_alive"`
	Domain    string
}

// Crons - mapping of ids to execution frequency
type Crons map[string]string

// DatabaseClusterConfig structure
type DatabaseClusterConfig struct {
	Writer DatabaseConfig `mapstructure:"writer"`
	Reader DatabaseConfig `mapstructure:"reader"`
}

// DatabaseConfig structure
type DatabaseConfig struct {
	Type            string // postgres
	Host            string
	Username        string
	Password        string
	Name            string
	SSLmode         string `mapstructure:"sslmode"`
	ApplicationName string `mapstructure:"application_name"`
	Port            int
}

// EconomyConfig groups the tunable policy knobs of the token economy
type EconomyConfig struct {
	Collection CollectionConfig `mapstructure:"collection"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Rewards    RewardsConfig    `mapstructure:"rewards"`
	Purchase   PurchaseConfig   `mapstructure:"purchase"`
}

// CollectionConfig structure
type CollectionConfig struct {
	DefaultThreshold  float64 `mapstructure:"default_threshold"`
	DefaultRate       float64 `mapstructure:"default_rate"`
	GracePeriodHours  int     `mapstructure:"grace_period_hours"`
	AppealWindowHours int     `mapstructure:"appeal_window_hours"`
}

func (cfg *CollectionConfig) GetDefaultThreshold() *decimal.Big {
	return conv.NewFromFloat(cfg.DefaultThreshold)
}

func (cfg *CollectionConfig) GetDefaultRate() *decimal.Big {
	return conv.NewFromFloat(cfg.DefaultRate)
}

// GovernanceConfig structure
type GovernanceConfig struct {
	MinimumQuorum       int `mapstructure:"minimum_quorum"`
	VotingDurationHours int `mapstructure:"voting_duration_hours"`
	BurnVotingHours     int `mapstructure:"burn_voting_hours"`
}

// RewardsConfig structure
type RewardsConfig struct {
	ExpiryDays        int     `mapstructure:"expiry_days"`
	DefaultMultiplier float64 `mapstructure:"default_multiplier"`
}

// PurchaseConfig converts yen amounts into points at a fixed rate
type PurchaseConfig struct {
	YenPerPoint float64 `mapstructure:"yen_per_point"`
	MinimumYen  float64 `mapstructure:"minimum_yen"`
}

func (cfg *PurchaseConfig) GetYenPerPoint() *decimal.Big {
	if cfg.YenPerPoint <= 0 {
		return conv.NewFromFloat(1)
	}
	return conv.NewFromFloat(cfg.YenPerPoint)
}

func (cfg *PurchaseConfig) GetMinimumYen() *decimal.Big {
	return conv.NewFromFloat(cfg.MinimumYen)
}

// LoadConfig Load server configuration from the yaml file
func LoadConfig(viperConf *viper.Viper) Config {
	var config Config

	err := viperConf.Unmarshal(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config into struct")
	}
	return config
}

// OpenConfig godoc
func OpenConfig(file string) {
	// Don't forget to read config either from cfgFile, from current directory or from home directory!
	if file != "" {
		// Use config file from the flag.
		viper.SetConfigFile(file)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigName(".config")
	viper.AddConfigPath(".")               // First try to load the config from the current directory
	viper.AddConfigPath("$HOME")           // Then try to load it from the HOME directory
	viper.AddConfigPath("/etc/economy_api/") // As a last resort try to load it from /etc/
	viper.SetEnvPrefix("CFG")
	viper.AutomaticEnv()
	setDefaultVariables()

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		log.Fatal().Err(err).Msg("Unable to read configuration file")
	}
}

func setDefaultVariables() {
	viper.SetDefault("economy.collection.grace_period_hours", 48)
	viper.SetDefault("economy.governance.minimum_quorum", 100)
	viper.SetDefault("economy.governance.voting_duration_hours", 168)
	viper.SetDefault("economy.governance.burn_voting_hours", 72)
	viper.SetDefault("economy.rewards.expiry_days", 30)
	viper.SetDefault("economy.purchase.yen_per_point", 1)
}
