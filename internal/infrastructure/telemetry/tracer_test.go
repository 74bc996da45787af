package telemetry_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewTracerProviderDisabled(t *testing.T) {
	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1.0,
		ServiceName:       "invoicing-srv",
	}

	tp, err := telemetry.NewTracerProvider(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.False(t, tp.IsEnabled())

	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestRegisterGormTracingDisabledIsNoOp(t *testing.T) {
	db := newMockGorm(t)

	err := telemetry.RegisterGormTracing(db, false, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Empty(t, db.Config.Plugins)
}

func TestRegisterGormTracingInstallsPlugin(t *testing.T) {
	db := newMockGorm(t)

	err := telemetry.RegisterGormTracing(db, true, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Len(t, db.Config.Plugins, 1)
}

func newMockGorm(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, _, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}
