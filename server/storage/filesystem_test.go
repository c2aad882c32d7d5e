package storage

import (
	"bytes"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestStorageFS(t *testing.T) {
	fs, err := NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)

	content := []byte("hello blob")
	require.NoError(t, WriteFile(fs, "videos/abc.mp4", bytes.NewReader(content)))

	f, err := fs.ReadFile("videos/abc.mp4")
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), f.Size)
	require.False(t, f.ModifiedAt.IsZero())
	f.Reader.Close()

	back, err := ReadFile(fs, "videos/abc.mp4")
	require.NoError(t, err)
	require.Equal(t, content, back)

	// Overwrite truncates
	require.NoError(t, WriteFile(fs, "videos/abc.mp4", bytes.NewReader([]byte("x"))))
	back, err = ReadFile(fs, "videos/abc.mp4")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), back)

	require.NoError(t, fs.DeleteFile("videos/abc.mp4"))
	_, err = fs.ReadFile("videos/abc.mp4")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestStorageFSRejectsPathEscape(t *testing.T) {
	fs, err := NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)

	_, err = fs.WriteFile("../escape.txt")
	require.Error(t, err)
	_, err = fs.ReadFile("videos/../../escape.txt")
	require.Error(t, err)
	require.Error(t, fs.DeleteFile(".."))
}
