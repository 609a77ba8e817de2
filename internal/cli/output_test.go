package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shopq/internal/shop"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("NOT_FOUND", "customer not found", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "customer not found", resp.Error.Message)
	assert.Nil(t, resp.Data)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("✓ Deleted customer 3")
	require.NoError(t, err)
	assert.Equal(t, "✓ Deleted customer 3\n", buf.String())
}

func TestOutputFormatter_TextErrorListsFieldDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	details := map[string]string{"name": "is required", "email": "must be a valid email address"}
	err := formatter.Error("VALIDATION", "invalid input", details)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Error [VALIDATION]: invalid input")
	// Keys are sorted.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("email:")), bytes.Index(buf.Bytes(), []byte("name:")))
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error(ErrCodeCommand, "boom", []string{"a", "b"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [COMMAND]")
	assert.Contains(t, buf.String(), "Details: [a b]")
}

func TestOutputFormatter_Table(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		err := formatter.Table(nil, []string{"ID", "NAME"}, [][]string{{"1", "Ada"}, {"2", "Bob"}})
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "ID")
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "Ada")
		assert.Contains(t, out, "Bob")
		assert.NotContains(t, out, "\x1b[", "no escape codes outside a terminal")
	})

	t.Run("text empty", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		require.NoError(t, formatter.Table(nil, []string{"ID"}, nil))
		assert.Equal(t, "(no results)\n", buf.String())
	})

	t.Run("json ignores rows", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, formatter.Table(shop.NewList([]int{1, 2}), []string{"N"}, [][]string{{"1"}, {"2"}}))

		var resp struct {
			Status string         `json:"status"`
			Data   shop.List[int] `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, 2, resp.Data.Total)
		assert.Equal(t, []int{1, 2}, resp.Data.Items)
	})
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"not found", shop.NotFound("customer", 9), "NOT_FOUND", ExitFailure},
		{"wrapped validation", fmt.Errorf("product mouse: %w", shop.Invalid("invalid input", map[string]string{"price": "too many decimals"})), "VALIDATION", ExitFailure},
		{"duplicate", shop.Duplicate("order item", "product is already in the order", nil), "DUPLICATE", ExitFailure},
		{"argument", argError("order id must be a positive integer, got %q", "x"), ErrCodeArgs, ExitCommandError},
		{"other", errors.New("disk on fire"), ErrCodeCommand, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail(tt.err)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.wantExit, exitErr.Code)
			assert.True(t, exitErr.Reported())
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestOutputFormatter_FailReportsOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	first := formatter.Fail(shop.NotFound("order", 1))
	second := formatter.Fail(first)

	assert.Same(t, first, second)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Error [")))
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
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Opening %s", "shopq.db")

			assert.Empty(t, buf.String(), "verbose output never goes to the data stream")
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "Opening shopq.db")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
