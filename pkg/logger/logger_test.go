package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newBuffered(level zerolog.Level, warnStack bool) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(Options{ServiceName: "test", Level: level, Format: FormatJSON, Output: buf, WarnStack: warnStack}), buf
}

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	log, buf := newBuffered(zerolog.DebugLevel, false)

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithActor(ctx, "user-1", "user")

	log.Error(ctx, "boom", errors.New("boom"))

	for _, field := range []string{`"request_id":"req-123"`, `"actor_id":"user-1"`, `"actor_role":"user"`, `"stack"`, `"service":"test"`, `"error":"boom"`} {
		require.Contains(t, buf.String(), field)
	}
}

func TestLoggerContextFieldsDoNotLeakToParent(t *testing.T) {
	log, buf := newBuffered(zerolog.DebugLevel, false)

	parent := log.WithRequestID(context.Background(), "req-1")
	_ = log.WithField(parent, "order_id", "ord-1")
	log.Info(parent, "parent line")

	require.Contains(t, buf.String(), `"request_id":"req-1"`)
	require.NotContains(t, buf.String(), "order_id")

	buf.Reset()
	log.Info(context.Background(), "bare")
	require.NotContains(t, buf.String(), "request_id")
}

func TestLoggerWithFieldsIsOrdered(t *testing.T) {
	log, buf := newBuffered(zerolog.DebugLevel, false)
	ctx := log.WithFields(context.Background(), map[string]any{"zeta": 1, "alpha": 2, "mid": 3})
	log.Info(ctx, "ordered")

	line := buf.String()
	require.Less(t, strings.Index(line, `"alpha"`), strings.Index(line, `"mid"`))
	require.Less(t, strings.Index(line, `"mid"`), strings.Index(line, `"zeta"`))
}

func TestLoggerErrorCodesAndStacks(t *testing.T) {
	log, buf := newBuffered(zerolog.DebugLevel, false)

	log.Error(context.Background(), "rejected", pkgerrors.New(pkgerrors.CodeValidation, "bad input"))
	require.Contains(t, buf.String(), `"error_code":"VALIDATION_ERROR"`)
	require.NotContains(t, buf.String(), `"stack"`)

	buf.Reset()
	log.Error(context.Background(), "failed", pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("down"), "db"))
	require.Contains(t, buf.String(), `"error_code":"DEPENDENCY_ERROR"`)
	require.Contains(t, buf.String(), `"stack"`)
}

func TestLoggerWarnStackToggle(t *testing.T) {
	log, buf := newBuffered(zerolog.DebugLevel, true)
	log.Warn(context.Background(), "warny")
	require.Contains(t, buf.String(), `"stack"`)

	quiet, buf := newBuffered(zerolog.DebugLevel, false)
	quiet.Warn(context.Background(), "warny")
	require.NotContains(t, buf.String(), `"stack"`)
}

func TestLoggerRespectsLevel(t *testing.T) {
	log, buf := newBuffered(zerolog.WarnLevel, false)
	log.Info(context.Background(), "hidden")
	require.Zero(t, buf.Len())
}

func TestParseLevelDefaults(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	require.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	require.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
}
