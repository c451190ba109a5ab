package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/fieldline/internal/engine"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitFailure, "phase blocked")
	assert.Equal(t, "phase blocked", err.Error())
	assert.Equal(t, ExitFailure, GetExitCode(err))

	wrapped := fmt.Errorf("running check: %w", err)
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")), "plain errors default to failure")
}

func TestOutputFormatter_ErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error("TRACKER_NOT_FOUND", "no main workflow tracker exists", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TRACKER_NOT_FOUND", resp.Error.Code)
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error("WORKFLOW_EXISTS", "already initialized", nil))
	assert.Equal(t, "Error [WORKFLOW_EXISTS]: already initialized\n", buf.String())
}

func TestOutputFormatter_Warnings(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errBuf}

	f.Warnings([]string{"emit event: emitter unavailable"})
	assert.Empty(t, out.String(), "warnings stay off stdout")
	assert.Equal(t, "warning: emit event: emitter unavailable\n", errBuf.String())
}

func TestEngineExitError_Codes(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	err := engineExitError(f, engine.NewTrackerNotFound("proj-1"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	buf.Reset()
	err = engineExitError(f, engine.NewConflict("proj-1", "item-1", errors.New("stale version")))
	assert.Equal(t, ExitFailure, GetExitCode(err), "conflicts are retryable workflow failures")
}
