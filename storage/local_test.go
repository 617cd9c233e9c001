package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "dicom/2024/01/15/1705314600000-a1b2c3-chest-ct.dcm"

// TestLocalStorage_PathTraversal_Prevention 测试路径遍历防护
func TestLocalStorage_PathTraversal_Prevention(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	traversalAttempts := []string{
		"../../../etc/passwd",
		"..\\..\\..\\windows\\system32\\config\\sam",
		"../../.env",
		"..",
		".",
		"",
		"/etc/passwd",
		"dicom/../../../etc/passwd",
	}

	for _, attempt := range traversalAttempts {
		t.Run("save_"+attempt, func(t *testing.T) {
			_, err := storage.SaveWithContext(ctx, attempt, strings.NewReader("evil"))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid")
		})
	}

	_, err = storage.GetWithContext(ctx, "../../../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, storage.DeleteWithContext(ctx, "../../../etc/passwd"))
}

func TestLocalStorage_SaveGetDelete(t *testing.T) {
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	require.NoError(t, err)

	ctx := context.Background()

	fileURL, err := storage.SaveWithContext(ctx, testKey, strings.NewReader("DICM"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fileURL, "file://"))
	assert.True(t, strings.HasSuffix(fileURL, testKey))

	_, err = os.Stat(filepath.Join(baseDir, filepath.FromSlash(testKey)))
	require.NoError(t, err)

	key, err := storage.KeyFromURL(fileURL)
	require.NoError(t, err)
	assert.Equal(t, testKey, key)

	exists, err := storage.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := storage.GetWithContext(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "DICM", string(data))

	require.NoError(t, storage.DeleteWithContext(ctx, key))
	exists, err = storage.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	err = storage.DeleteWithContext(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = storage.GetWithContext(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_KeyFromURL_Foreign(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = storage.KeyFromURL("https://example.com/dicom/a.dcm")
	assert.Error(t, err)
	_, err = storage.KeyFromURL("file:///etc/passwd")
	assert.Error(t, err)
}

func TestLocalStorage_HealthAndName(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, storage.Health(context.Background()))
	assert.Equal(t, "local", storage.Name())
}

// TestIsValidStoragePath 测试存储路径校验
func TestIsValidStoragePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantValid bool
	}{
		{"dicom key", testKey, true},
		{"simple", "file.dcm", true},
		{"empty", "", false},
		{"dotdot", "..", false},
		{"absolute_unix", "/etc/passwd", false},
		{"absolute_windows", "C:\\file.dcm", false},
		{"traversal", "../file.dcm", false},
		{"null_byte", "file\x00.dcm", false},
		{"newline", "file\n.dcm", false},
		{"shell", "file;rm -rf.dcm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantValid, IsValidStoragePath(tt.path), "path: %q", tt.path)
		})
	}
}
