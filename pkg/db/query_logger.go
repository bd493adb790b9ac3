package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQueryThreshold = 2 * time.Second

// queryLogger forwards GORM statement traces to the structured logger.
// Slow statements are logged at warn. Failures go to debug since callers
// report their own errors.
type queryLogger struct {
	logg          *logger.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newQueryLogger(logg *logger.Logger, slowThreshold time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowQueryThreshold
	}
	return &queryLogger{logg: logg, level: gormlogger.Warn, slowThreshold: slowThreshold}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.logg.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.logg.Error(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := elapsed > q.slowThreshold

	sql, rows := fc()
	fields := map[string]any{
		"sql":        sql,
		"rows":       rows,
		"elapsed_ms": elapsed.Milliseconds(),
	}

	switch {
	case failed && q.level >= gormlogger.Error:
		fields["error_message"] = err.Error()
		q.logg.Debug(q.logg.WithFields(ctx, fields), "db.query_failed")
	case slow && q.level >= gormlogger.Warn:
		q.logg.Warn(q.logg.WithFields(ctx, fields), "db.slow_query")
	case q.level >= gormlogger.Info:
		q.logg.Debug(q.logg.WithFields(ctx, fields), "db.query")
	}
}
