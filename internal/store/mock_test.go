package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockDb creates a gorm handle over sqlmock so postgres-dialect SQL
// can be asserted without a live server.
func newMockDb(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true, // avoids prepared-statement handshakes the mock does not speak
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db, mock
}

func TestMarkRemovedSQL(t *testing.T) {
	db, mock := newMockDb(t)
	st := New(db, hclog.NewNullLogger())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "people" SET "removed"=`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := st.People.MarkRemoved(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeCompanyCountsSQL(t *testing.T) {
	db, mock := newMockDb(t)
	st := New(db, hclog.NewNullLogger())

	mock.ExpectExec(`UPDATE production_companies SET movie_count = \(`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	err := st.Metrics.RecomputeCompanyCounts(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
