package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	cause := fmt.Errorf("disk gone")
	err := NewError().
		Code(CodeIOError).
		Type(ErrTypeIO).
		Component("fileaccess").
		Messagef("read failed: %w", cause).
		Context("path", "/tmp/x").
		Build()

	assert.Equal(t, CodeIOError, err.Code)
	assert.Equal(t, "read failed: disk gone", err.Message)
	assert.Equal(t, "/tmp/x", err.Context["path"])
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "[IO_ERROR] read failed: disk gone")
	assert.Contains(t, err.Error(), "component: fileaccess")
}

func TestNewDefaults(t *testing.T) {
	err := New(CodeNetworkError, "completion", "dial failed", nil)
	assert.Equal(t, ErrTypeInternal, err.Type)
	assert.Equal(t, "[NETWORK_ERROR] dial failed (component: completion)", err.Error())
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ConfigError("bad port", nil))
	assert.Equal(t, CodeConfigurationInvalid, CodeOf(wrapped))
	assert.Equal(t, CodeInternalError, CodeOf(errors.New("plain")))
}

func TestIOError(t *testing.T) {
	cause := errors.New("permission denied")
	err := IOError("fileaccess", "a/b.go", cause)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to read a/b.go", err.Message)
	assert.Equal(t, "a/b.go", err.Context["path"])
}

func TestIOError_Codes(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  ErrorCode
	}{
		{name: "missing", cause: &fs.PathError{Op: "open", Path: "a.go", Err: fs.ErrNotExist}, want: CodeFileNotFound},
		{name: "permission", cause: &fs.PathError{Op: "open", Path: "a.go", Err: fs.ErrPermission}, want: CodePermissionDenied},
		{name: "wrapped missing", cause: fmt.Errorf("stat: %w", fs.ErrNotExist), want: CodeFileNotFound},
		{name: "other", cause: errors.New("disk gone"), want: CodeIOError},
		{name: "nil cause", cause: nil, want: CodeIOError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IOError("fileaccess", "a.go", tt.cause)
			assert.Equal(t, tt.want, err.Code)
			assert.Equal(t, ErrTypeIO, err.Type)
		})
	}
}
