package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorfCarriesCorrelationIDAndEscapesNewlines(t *testing.T) {
	var buf bytes.Buffer
	Configure("debug", "json")
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	ctx := WithCorrelationID(context.Background(), "abc-123")
	Errorf(ctx, "insert failed:\n%s", "duplicate")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc-123", entry[CorrelationID])
	assert.Equal(t, "insert failed:\\n duplicate", entry["msg"])
	assert.Equal(t, "error", entry["level"])
}

func TestCorrelationIDFromEmptyContext(t *testing.T) {
	assert.Equal(t, "", CorrelationIDFrom(context.Background()))
}
