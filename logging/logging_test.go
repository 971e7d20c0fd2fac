package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_Levels(t *testing.T) {
	defer CloseLogger()

	var out bytes.Buffer
	require.NoError(t, SetupLogger(Options{Level: "warn", Out: &out}))

	LogInfo("hidden %d", 1)
	LogWarning("shown %d", 2)

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown 2")
}

func TestSetupLogger_QuietKeepsErrors(t *testing.T) {
	defer CloseLogger()

	var out bytes.Buffer
	require.NoError(t, SetupLogger(Options{Level: "debug", Quiet: true, Out: &out}))

	LogWarning("a warning")
	LogImageProcessed("/photos/broken.jpg", false, "cannot decode")
	LogError("an error")

	assert.NotContains(t, out.String(), "a warning")
	assert.NotContains(t, out.String(), "broken.jpg")
	assert.Contains(t, out.String(), "an error")
}

func TestSetupLogger_File(t *testing.T) {
	defer CloseLogger()

	path := filepath.Join(t.TempDir(), "imagededup.log")
	var out bytes.Buffer
	require.NoError(t, SetupLogger(Options{Level: "debug", File: path, Out: &out}))

	LogImageProcessed("/photos/a.jpg", true, "")
	LogImageProcessed("/photos/b.jpg", false, "unexpected EOF")
	CloseLogger()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path":"/photos/a.jpg"`)
	assert.Contains(t, string(data), `"error":"unexpected EOF"`)
	assert.Contains(t, out.String(), "failed to compute fingerprint")
}

func TestSetupLogger_BadFile(t *testing.T) {
	defer CloseLogger()

	err := SetupLogger(Options{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "error", parseLevel("error").String())
	assert.Equal(t, "info", parseLevel("bogus").String())
}
