package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger routes GORM's logging into zerolog. Failed queries log at
// error, queries slower than slow at warn, everything else at debug.
// Not-found lookups are expected (cache misses) and are not treated as errors.
type queryLogger struct {
	log   zerolog.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newQueryLogger(l zerolog.Logger, slow time.Duration) logger.Interface {
	return &queryLogger{log: l.With().Str("component", "gorm").Logger(), level: logger.Warn, slow: slow}
}

func (q *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *q
	cp.level = level
	return &cp
}

// from prefers the request-scoped logger carried by ctx.
func (q *queryLogger) from(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &q.log
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.level >= logger.Info {
		q.from(ctx).Info().Msgf(msg, args...)
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.level >= logger.Warn {
		q.from(ctx).Warn().Msgf(msg, args...)
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.level >= logger.Error {
		q.from(ctx).Error().Msgf(msg, args...)
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	l := q.from(ctx)

	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= logger.Error:
		ev = l.Error().Err(err)
	case q.slow > 0 && elapsed > q.slow && q.level >= logger.Warn:
		ev = l.Warn().Bool("slow", true)
	case q.level >= logger.Info:
		ev = l.Debug()
	default:
		return
	}
	sql, rows := fc()
	ev.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
}
