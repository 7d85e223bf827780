package queries

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repo holds the database cluster connections. Writes always go through
// Conn; read only listing queries use ConnReader.
type Repo struct {
	Conn       *gorm.DB
	ConnReader *gorm.DB
}

var repo *Repo

func connect(cfg config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLmode, cfg.ApplicationName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Str("section", "queries").Str("host", cfg.Host).Msg("Unable to connect to database")
	}
	return db
}

// NewRepo connects to the writer and reader databases
func NewRepo(writer, reader config.DatabaseConfig) *Repo {
	repo = &Repo{
		Conn:       connect(writer),
		ConnReader: connect(reader),
	}
	return repo
}

// NewRepoFromConns builds a repo around already opened connections. Used by
// tests with a mocked driver.
func NewRepoFromConns(writer, reader *gorm.DB) *Repo {
	repo = &Repo{
		Conn:       writer,
		ConnReader: reader,
	}
	return repo
}

// GetRepo returns the connected repo instance
func GetRepo() *Repo {
	return repo
}

// Close the database connections
func Close() {
	if repo == nil {
		return
	}
	if db, err := repo.Conn.DB(); err == nil {
		_ = db.Close()
	}
	if repo.ConnReader != repo.Conn {
		if db, err := repo.ConnReader.DB(); err == nil {
			_ = db.Close()
		}
	}
}
