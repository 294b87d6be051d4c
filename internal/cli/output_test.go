package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Fingerprint)
}

func TestOutputFormatter_SuccessFor(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.SuccessFor("abc123", []string{"x"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "abc123", resp.Fingerprint)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E203", "dangling reference", map[string]string{"field": "parentId"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E203", resp.Error.Code)
	assert.Equal(t, "dangling reference", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E001", "compilation failed", map[string]string{"file": "a.md"}))
			assert.Contains(t, buf.String(), "Error [E001]: compilation failed")
			assert.Equal(t, tt.wantDetails, bytes.Contains(buf.Bytes(), []byte("Details:")))
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Reading %s", "movement.md")

			assert.Empty(t, out.String(), "diagnostics never reach the output writer")
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Reading movement.md")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"reference", &model.ReferenceError{Collection: model.Texts, RecordID: "t1", Field: "parentId", Value: "t0"}, model.ErrCodeReference, ExitFailure},
		{"duplicate", &model.DuplicateIDError{Collection: model.Entities, ID: "e1"}, model.ErrCodeDuplicateID, ExitFailure},
		{"no records", model.ErrNoRecords, model.ErrCodeNoRecords, ExitFailure},
		{"import", &model.ImportError{Message: "bad shape"}, model.ErrCodeImport, ExitFailure},
		{"source", &model.SourceError{Op: "list", Path: "repo", Err: fs.ErrNotExist}, model.ErrCodeSource, ExitCommandError},
		{"wrapped source", fmt.Errorf("assemble: %w", &model.SourceError{Op: "read", Path: "a.md", Err: fs.ErrPermission}), model.ErrCodeSource, ExitCommandError},
		{"unknown node", fmt.Errorf("%w: ent-x", graph.ErrUnknownNode), ErrCodeNotFound, ExitCommandError},
		{"unarchived", store.ErrNotFound, ErrCodeNotFound, ExitCommandError},
		{"dangling", &graph.DanglingEdgeError{Missing: "ent-x"}, ErrCodeGeneric, ExitFailure},
		{"other", errors.New("boom"), ErrCodeGeneric, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	src := &model.SourceError{Op: "open", Path: "missing", Err: fs.ErrNotExist}
	err := formatter.Fail(src)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "Error [E205]: open missing: file does not exist\n", buf.String(), "code prefix is not repeated")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitFailure, "E203", errors.New("x")))))
}
