package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/coinbag/internal/logging"
)

func TestNew(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer

		logger := logging.Component(logging.New(&buf, slog.LevelInfo, "json"), "syncstore")
		logger.Debug("hidden")
		logger.Info("refreshed", "version", 3)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

		assert.Equal(t, "refreshed", entry["msg"])
		assert.Equal(t, "syncstore", entry[logging.FieldComponent])
		assert.EqualValues(t, 3, entry["version"])
	})

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer

		logging.New(&buf, slog.LevelDebug, "text").Debug("visible")

		assert.Contains(t, buf.String(), "msg=visible")
	})
}
