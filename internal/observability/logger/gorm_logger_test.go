package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("  select id from products"))
	assert.Equal(t, "SELECT", operationFromSQL("WITH ids AS (SELECT 1) SELECT * FROM ids"))
	assert.Equal(t, "UPDATE", operationFromSQL("UPDATE products SET name = ?"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestGormLoggerTraceLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(GormLoggerConfig{
		Level:                gormlogger.Warn,
		SlowThreshold:        10 * time.Millisecond,
		IgnoreRecordNotFound: true,
	}, zap.New(core))

	fc := func() (string, int64) { return "SELECT * FROM products", 3 }

	l.Trace(context.Background(), time.Now(), fc, nil)
	assert.Equal(t, 0, logs.Len(), "fast queries are not logged at warn level")

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Equal(t, 1, logs.FilterMessage("gorm.slow_query").Len())

	l.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.FilterMessage("gorm.query").Len())

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("gorm.query").Len())
}
