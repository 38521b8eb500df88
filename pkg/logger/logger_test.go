package logger

import (
	"bytes"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriter_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(&buf, "warning"))
	defer InitWriter(&bytes.Buffer{}, "ERROR")

	log := logging.MustGetLogger("log")
	log.Info("hidden")
	log.Warning("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "WARNI")
}

func TestInitWriter_InvalidLevel(t *testing.T) {
	err := InitWriter(&bytes.Buffer{}, "chatty")
	assert.Error(t, err)
}
