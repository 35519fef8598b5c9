package oas_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/i2y/oasmeta/internal/domain"
)

func loadDocument(t *testing.T) domain.Document {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", "openapi.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var root any
	require.NoError(t, json.Unmarshal(data, &root))
	return domain.Document{Source: path, RawData: data, Root: root}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
