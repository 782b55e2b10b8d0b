package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.FatalLevel, ParseLevel("critical"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf})
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	log.Info().Str("stage", "breadth").Msg("done")
	log.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"stage":"breadth"`)
	assert.Contains(t, out, `"message":"done"`)
	assert.NotContains(t, out, "hidden")
}
