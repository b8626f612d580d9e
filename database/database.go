package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store owns the gorm connection pool.
type Store struct {
	db *gorm.DB
}

// Open connects, enables pgcrypto (uuid defaults) and migrates every model.
func Open(dsn string, log logrus.FieldLogger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return nil, fmt.Errorf("enable pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&users.User{},

		&courses.Course{},
		&courses.Chapter{},
		&courses.Lecture{},
		&courses.Enrollment{},
		&courses.CourseProgress{},

		&billing.Purchase{},
		&billing.Refund{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	log.Info("connected and migrated")
	return &Store{db: db}, nil
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
