package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/junk-sweeper/internal/mediaindex"
)

// =============================================================================
// Error Categorization Tests
// =============================================================================

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantReason    ErrorReason
		wantRetryable bool
	}{
		// Standard errors
		{"os.ErrNotExist", os.ErrNotExist, ErrorFileNotFound, false},
		{"os.ErrPermission", os.ErrPermission, ErrorPermissionDenied, false},
		{"os.ErrExist", os.ErrExist, ErrorUnknown, false},

		// Syscall errors - Permission
		{"EACCES", syscall.EACCES, ErrorPermissionDenied, false},
		{"EPERM", syscall.EPERM, ErrorPermissionDenied, false},

		// Syscall errors - File in use (retryable)
		{"EBUSY", syscall.EBUSY, ErrorFileInUse, true},
		{"ETXTBSY", syscall.ETXTBSY, ErrorFileInUse, true},

		// Syscall errors - File operations
		{"ENOENT", syscall.ENOENT, ErrorFileNotFound, false},
		{"EISDIR", syscall.EISDIR, ErrorIsDirectory, false},
		{"ENOTEMPTY", syscall.ENOTEMPTY, ErrorIsDirectory, false},

		// Wrapped errors
		{"path error EBUSY", &os.PathError{Op: "remove", Path: "/x", Err: syscall.EBUSY}, ErrorFileInUse, true},
		{"path error ENOENT", &os.PathError{Op: "remove", Path: "/x", Err: syscall.ENOENT}, ErrorFileNotFound, false},
		{"missing index record", fmt.Errorf("remove: %w", mediaindex.ErrRecordNotFound), ErrorIndexRecordMissing, false},

		// Unknown errors
		{"generic error", errors.New("something went wrong"), ErrorUnknown, false},
		{"EIO", syscall.EIO, ErrorUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError("/sdcard/a.tmp", tt.err)
			require.NotNil(t, result)

			assert.Equal(t, tt.wantReason, result.Reason)
			assert.Equal(t, tt.wantRetryable, result.Retryable)
			assert.Equal(t, "/sdcard/a.tmp", result.Path)
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestCategorizeErrorNil(t *testing.T) {
	assert.Nil(t, CategorizeError("/sdcard/a.tmp", nil))
}

// =============================================================================
// Message Tests
// =============================================================================

func TestErrorReasonString(t *testing.T) {
	tests := []struct {
		reason ErrorReason
		want   string
	}{
		{ErrorPermissionDenied, "Permission denied"},
		{ErrorFileInUse, "File is in use"},
		{ErrorFileNotFound, "File not found"},
		{ErrorIsDirectory, "Is a directory"},
		{ErrorInvalidPath, "Invalid path"},
		{ErrorIndexRecordMissing, "Index record missing"},
		{ErrorUnknown, "Unknown error"},
		{ErrorReason(99), "Unspecified error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.reason.String())
	}
}

func TestDeletionErrorMessages(t *testing.T) {
	err := &DeletionError{Path: "/sdcard/a.tmp", Reason: ErrorFileInUse, Original: syscall.EBUSY}

	assert.Contains(t, err.Error(), "/sdcard/a.tmp")
	assert.Contains(t, err.Error(), "File is in use")
	assert.Contains(t, err.UserMessage(), "close the application")

	missing := &DeletionError{Path: "/sdcard/b.jpg", Reason: ErrorIndexRecordMissing, Original: mediaindex.ErrRecordNotFound}
	assert.Contains(t, missing.UserMessage(), "media index")
}

// =============================================================================
// Grouping and Summary Tests
// =============================================================================

func TestGroupErrors(t *testing.T) {
	errs := []*DeletionError{
		{Path: "/a", Reason: ErrorPermissionDenied},
		{Path: "/b", Reason: ErrorPermissionDenied},
		{Path: "/c", Reason: ErrorFileNotFound},
	}

	grouped := GroupErrors(errs)
	assert.Len(t, grouped[ErrorPermissionDenied], 2)
	assert.Len(t, grouped[ErrorFileNotFound], 1)
	assert.Empty(t, grouped[ErrorFileInUse])
}

func TestFormatErrorSummary(t *testing.T) {
	assert.Empty(t, FormatErrorSummary(nil))

	summary := FormatErrorSummary([]*DeletionError{
		{Path: "/a", Reason: ErrorPermissionDenied},
		{Path: "/b", Reason: ErrorFileInUse},
		{Path: "/c", Reason: ErrorIndexRecordMissing},
		{Path: "/d", Reason: ErrorUnknown},
	})

	for _, want := range []string{
		"Permission denied: 1 files",
		"File in use: 1 files",
		"Missing from media index: 1 files",
		"sweeper index sync",
		"Other errors: 1 files",
	} {
		assert.True(t, strings.Contains(summary, want), "summary missing %q:\n%s", want, summary)
	}
	assert.NotContains(t, summary, "No longer on disk")
}

func TestBatchFault(t *testing.T) {
	fault := &BatchFault{Err: ErrEmptyBatch}
	assert.ErrorIs(t, fault, ErrEmptyBatch)
	assert.Equal(t, "invalid delete request: no entries to delete", fault.Error())

	withPath := &BatchFault{Path: "a.tmp", Err: errors.New("path must be absolute")}
	assert.Contains(t, withPath.Error(), "a.tmp")
}
