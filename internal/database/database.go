package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openballot/backend/internal/models"
)

// Service represents a service that interacts with the database.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	// Close terminates the database connection.
	Close() error

	GetDB() *gorm.DB
}

type service struct {
	db *gorm.DB
}

// New opens the database, migrates the schema, and installs the
// constraints that the application depends on for correctness.
func New(dsn string) (Service, error) {
	gormLogger := logger.New(
		log.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Election{},
		&models.Option{},
		&models.Vote{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := installConstraints(db); err != nil {
		return nil, fmt.Errorf("failed to install constraints: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("database connected and migrated")

	return &service{db: db}, nil
}

// installConstraints adds the rules AutoMigrate cannot express. These are
// the authoritative enforcement of the voting invariants: a vote may only
// reference an option of its own election, and inserts are refused once
// the election is closed. The unique (election_id, user_id) index comes
// from the Vote model tags.
//
// Safe to run repeatedly.
func installConstraints(db *gorm.DB) error {
	stmts := []string{
		// An option's id is only meaningful together with its election,
		// so votes can carry a composite foreign key.
		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'uq_options_id_election') THEN
				ALTER TABLE options ADD CONSTRAINT uq_options_id_election UNIQUE (id, election_id);
			END IF;
		END $$;`,
		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_votes_option_election') THEN
				ALTER TABLE votes ADD CONSTRAINT fk_votes_option_election
					FOREIGN KEY (option_id, election_id)
					REFERENCES options (id, election_id);
			END IF;
		END $$;`,
		// Votes are only accepted while the election is open. Raising
		// check_violation (23514) from a trigger keeps the rule inside
		// the storage tier: an insert that arrives after the election
		// closes loses even if the client's view was stale.
		`CREATE OR REPLACE FUNCTION enforce_election_open() RETURNS trigger AS $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM elections WHERE id = NEW.election_id AND is_open) THEN
				RAISE EXCEPTION 'election % is not open for voting', NEW.election_id
					USING ERRCODE = '23514';
			END IF;
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;`,
		`DROP TRIGGER IF EXISTS votes_election_open ON votes;`,
		`CREATE TRIGGER votes_election_open
			BEFORE INSERT ON votes
			FOR EACH ROW EXECUTE FUNCTION enforce_election_open();`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
