package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatterJSON(t *testing.T) {
	tests := []struct {
		name       string
		write      func(f *OutputFormatter) error
		wantStatus string
		wantCode   string
	}{
		{
			name: "success",
			write: func(f *OutputFormatter) error {
				return f.Success(CompileResult{Name: "charles_and_pauls", CTENames: []string{"charles"}})
			},
			wantStatus: "ok",
		},
		{
			name: "error",
			write: func(f *OutputFormatter) error {
				return f.Error(ErrCodeConflict, "SCHEMA_CONFLICT: already registered (name=charles)", nil)
			},
			wantStatus: "error",
			wantCode:   ErrCodeConflict,
		},
		{
			name: "error with details",
			write: func(f *OutputFormatter) error {
				return f.Error(ErrCodeInvalidType, "table.dogs.weight: invalid type", map[string]string{"file": "schema.cue"})
			},
			wantStatus: "error",
			wantCode:   ErrCodeInvalidType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, tt.write(&OutputFormatter{Format: "json", Writer: buf}))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			if tt.wantCode == "" {
				assert.Nil(t, resp.Error)
				assert.NotNil(t, resp.Data)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestOutputFormatterJSONIsIndented(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, f.Success([]string{"charles"}))
	assert.Equal(t, "{\n  \"status\": \"ok\",\n  \"data\": [\n    \"charles\"\n  ]\n}\n", buf.String())
}

func TestOutputFormatterText(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, f.Success("chain is valid"))
		assert.Equal(t, "chain is valid\n", buf.String())
	})

	t.Run("error hides details unless verbose", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, f.Error(ErrCodeMismatch, "unknown column breed", "charles"))
		assert.Equal(t, "Error [E202]: unknown column breed\n", buf.String())
	})

	t.Run("verbose error shows details", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}
		require.NoError(t, f.Error(ErrCodeMismatch, "unknown column breed", "charles"))
		assert.Contains(t, buf.String(), "Details: charles")
	})
}

func TestOutputFormatterVerboseLog(t *testing.T) {
	for _, verbose := range []bool{true, false} {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf, Verbose: verbose}

		f.VerboseLog("Loading %s", "schema.cue")

		if verbose {
			assert.Contains(t, buf.String(), "DBG Loading schema.cue")
		} else {
			assert.Empty(t, buf.String())
		}
	}
}

func TestOutputFormatterLoggerFields(t *testing.T) {
	errOut := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}, ErrWriter: errOut, Verbose: true}

	f.Logger().Debug().Str("cte", "charles").Str("code", "SCHEMA_CONFLICT").Msg("rejected")

	assert.Contains(t, errOut.String(), "rejected")
	assert.Contains(t, errOut.String(), "cte=charles")
	assert.Contains(t, errOut.String(), "code=SCHEMA_CONFLICT")
}

func TestOutputFormatterLogsGoToErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	f.VerboseLog("registering %s", "charles")
	require.NoError(t, f.Success(map[string]string{"name": "charles"}))

	assert.Contains(t, errOut.String(), "registering charles")
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "stdout must stay valid JSON")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))

	wrapped := WrapExitError(ExitCommandError, "catalog", assert.AnError)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, "catalog: "+assert.AnError.Error(), wrapped.Error())
}
