package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("login_failed", "status", 401)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "login_failed", line["msg"])
	assert.EqualValues(t, 401, line["status"])
}

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	l := NewWithWriter(&bytes.Buffer{}, "info")
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
