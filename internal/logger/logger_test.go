package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup("production", &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.DebugLevel) })

	log.Info().Str("op", "place_hold").Msg("hold placed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hold placed", line["message"])
	assert.Equal(t, "place_hold", line["op"])
	assert.Equal(t, "propertyops-api", line["service"])
}

func TestSetup_TestEnvSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	Setup("test", &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.DebugLevel) })

	log.Info().Msg("quiet")
	assert.Zero(t, buf.Len())
}
