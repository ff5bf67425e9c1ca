package utils

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestGormLoggerFiltersIgnoredQueries(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf).Level(zerolog.DebugLevel), logger.Info, "FROM `reminders` WHERE status")

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM `reminders` WHERE status = 'pending'", 0
	}, nil)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO `reminders` ...", 1
	}, nil)
	assert.Contains(t, buf.String(), "INSERT INTO")
	assert.Contains(t, buf.String(), "caller")
}

func TestGormLoggerErrorsAndSilence(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf), logger.Error)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Empty(t, buf.String(), "successful queries are not logged at error level")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	silent := l.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	assert.Empty(t, buf.String())
}
