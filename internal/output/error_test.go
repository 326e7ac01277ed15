package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shade/internal/output"
	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

func TestFormatErrorJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	err := shadeerr.WithDetails(shadeerr.ErrNotConnected, map[string]string{"operation": "contribute"})
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))

	var decoded output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "NOT_CONNECTED", decoded.Error.Code)
	assert.Equal(t, "contribute", decoded.Error.Details["operation"])
	assert.Equal(t, shadeerr.ExitState, decoded.Error.ExitCode)
	assert.NotEmpty(t, decoded.Error.Suggestion)
}

func TestFormatErrorJSONGeneric(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	require.NoError(t, output.FormatError(&buf, errors.New("boom"), output.FormatJSON))

	var decoded output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "GENERAL_ERROR", decoded.Error.Code)
	assert.Equal(t, "boom", decoded.Error.Message)
	assert.Equal(t, shadeerr.ExitGeneral, decoded.Error.ExitCode)
}

func TestFormatErrorText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	err := shadeerr.WithDetails(shadeerr.ErrUserRejected, map[string]string{
		"circuit": "vote",
		"attempt": "1",
	})
	require.NoError(t, output.FormatError(&buf, err, output.FormatText))

	text := buf.String()
	assert.Contains(t, text, "Error: request rejected by user")
	assert.Contains(t, text, "Suggestion:")
	// Detail keys render sorted.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("attempt")), bytes.Index(buf.Bytes(), []byte("circuit")))
}

func TestFormatErrorNil(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, nil, output.FormatText))
	assert.Empty(t, buf.String())
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, output.FormatSuccess(&buf, "disconnected", output.FormatJSON))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "success", decoded["status"])
	assert.Equal(t, "disconnected", decoded["message"])
}
