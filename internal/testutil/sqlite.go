// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns an isolated in-memory database with the assessment schema
// and a subscriber_ras_view listing live subscribers without an assessment.
// A single connection is used, so callers must not issue queries on the pool
// while holding a transaction open.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Subscriber{},
		&models.SubscriberAssessment{},
		&models.BorrowableAmount{},
		&models.Setting{},
	))
	require.NoError(t, db.Exec(`CREATE VIEW subscriber_ras_view AS
SELECT s.msisdn FROM subscriber s
WHERE s.deleted = 0 AND NOT EXISTS (
	SELECT 1 FROM subscriber_assessment a WHERE a.subscriber_fk = s.pk AND a.deleted = 0
)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE subscriber_eval (msisdn TEXT PRIMARY KEY)`).Error)

	return db
}

// SeedSubscribers inserts live subscribers for the given MSISDNs in order
func SeedSubscribers(t *testing.T, db *gorm.DB, msisdns ...string) []*models.Subscriber {
	t.Helper()

	subs := make([]*models.Subscriber, 0, len(msisdns))
	for _, m := range msisdns {
		s := &models.Subscriber{MSISDN: m}
		require.NoError(t, db.Create(s).Error)
		subs = append(subs, s)
	}
	return subs
}
