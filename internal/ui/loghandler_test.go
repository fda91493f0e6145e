package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdrayer/unnest/internal/ui"
)

func TestMultiHandler_FansOut(t *testing.T) {
	t.Parallel()

	var textBuf, jsonBuf bytes.Buffer
	textH := slog.NewTextHandler(&textBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	jsonH := slog.NewJSONHandler(&jsonBuf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(ui.NewMultiHandler(textH, jsonH))
	logger.Info("extracted", "path", "/out/a.tar")

	assert.Contains(t, textBuf.String(), "extracted")
	assert.Contains(t, textBuf.String(), "path=/out/a.tar")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &rec))
	assert.Equal(t, "extracted", rec["msg"])
	assert.Equal(t, "/out/a.tar", rec["path"])
}

func TestMultiHandler_LevelFiltering(t *testing.T) {
	t.Parallel()

	var infoBuf, errBuf bytes.Buffer
	infoH := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	errH := slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError})

	logger := slog.New(ui.NewMultiHandler(infoH, errH))
	logger.Info("skipping special member")
	logger.Error("extraction rejected")

	assert.Contains(t, infoBuf.String(), "skipping special member")
	assert.Contains(t, infoBuf.String(), "extraction rejected")
	assert.NotContains(t, errBuf.String(), "skipping special member")
	assert.Contains(t, errBuf.String(), "extraction rejected")
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	warnH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	errH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})

	m := ui.NewMultiHandler(warnH, errH)
	assert.True(t, m.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, m.Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(ui.NewMultiHandler(h).WithAttrs(
		[]slog.Attr{slog.String("component", "extract")}))

	logger.Info("hello")
	assert.Contains(t, buf.String(), "component=extract")
}
