package artifact

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileSourceReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"v1"}`), 0o600))

	src := NewFileSource(path)
	require.Equal(t, path, src.Location())

	data, err := ReadAll(context.Background(), src, 1<<20)
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"v1"}`, string(data))

	capped, err := ReadAll(context.Background(), src, 4)
	require.NoError(t, err)
	require.Len(t, capped, 4)

	_, err = ReadAll(context.Background(), NewFileSource(filepath.Join(t.TempDir(), "missing.json")), 10)
	require.Error(t, err)
}

func TestWatchFileSeesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	var changes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchFile(ctx, path, func() { changes.Add(1) }, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"v2"}`), 0o600))

	require.Eventually(t, func() bool { return changes.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "acct.r2.cloudflarestorage.com", sanitizeEndpoint("https://acct.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint(" http://localhost:9000 "))
	require.Equal(t, "", sanitizeEndpoint(""))
}

func TestNewObjectSourceValidates(t *testing.T) {
	_, err := NewObjectSource(ObjectConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)

	src, err := NewObjectSource(ObjectConfig{Endpoint: "http://localhost:9000", Bucket: "models", Key: "surge/v1.json", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	require.Equal(t, "models/surge/v1.json", src.Location())
}
