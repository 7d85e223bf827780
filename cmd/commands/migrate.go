package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	cfg "gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/model"
)

// Migrate the current database schema to the new version
func Migrate(config cfg.Config) {
	dbConf := config.DatabaseCluster.Writer
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		dbConf.Host, dbConf.Port, dbConf.Username, dbConf.Password, dbConf.Name, dbConf.SSLmode, dbConf.ApplicationName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		log.Fatal().Err(err).Str("section", "migrate").Msg("Unable to connect to database [WRITER]")
		return
	}

	err = db.AutoMigrate(
		&model.TokenPool{},
		&model.UserBalance{},
		&model.BalanceHistory{},
		&model.TokenTransaction{},
		&model.CollectionHistory{},
		&model.BurnDecision{},
		&model.GovernanceProposal{},
		&model.GovernanceVote{},
		&model.RewardDistribution{},
		&model.AiDecision{},
	)
	if err != nil {
		log.Fatal().Err(err).Str("section", "migrate").Msg("Unable to execute migration")
		return
	}

	sqlDB, err := db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Str("section", "migrate").Msg("Migrations executed successfully")
}
