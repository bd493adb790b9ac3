package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/rs/zerolog"
)

const (
	envLogFormat  = "LOG_FORMAT"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Environment string
	// Level is a level name such as "debug" or "warn". Empty or unknown means info.
	Level     string
	WarnStack bool
	// Format is json or console. Empty falls back to LOG_FORMAT, then json.
	Format string
	Output io.Writer
}

// Logger writes zerolog entries enriched with fields carried on the context.
type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	if resolveFormat(opts.Format) == FormatConsole {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	builder := zerolog.New(output).With().Timestamp().Str("service", opts.ServiceName)
	if env := strings.TrimSpace(opts.Environment); env != "" {
		builder = builder.Str("env", env)
	}
	base := builder.Logger().Level(ParseLevel(opts.Level))

	return &Logger{base: &base, warnStack: opts.WarnStack}
}

func resolveFormat(format string) string {
	format = strings.TrimSpace(format)
	if format == "" {
		format = os.Getenv(envLogFormat)
	}
	if strings.EqualFold(strings.TrimSpace(format), FormatConsole) {
		return FormatConsole
	}
	return FormatJSON
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) fromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return entry
		}
	}
	return l.base
}

func withLogger(ctx context.Context, entry zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, &entry)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return withLogger(ctx, l.fromContext(ctx).With().Interface(key, value).Logger())
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return withLogger(ctx, l.fromContext(ctx).With().Fields(fields).Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithJob(ctx context.Context, job string) context.Context {
	return l.WithField(ctx, "job", job)
}

// WithStatDate tags the context with the statistical date a snapshot run targets.
func (l *Logger) WithStatDate(ctx context.Context, date types.StatDate) context.Context {
	return l.WithField(ctx, "stat_date", date.String())
}

func (l *Logger) WithRunID(ctx context.Context, runID string) context.Context {
	return l.WithField(ctx, "run_id", runID)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.fromContext(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.fromContext(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.fromContext(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.fromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
