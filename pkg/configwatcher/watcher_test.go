package configwatcher

import (
	"context"
	"learning_cloud_backend/internal/config"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path string, threshold int) {
	t.Helper()
	content := []byte("server:\n  mode: test\ndatabase:\n  driver: sqlite\nquiz:\n  improvement_threshold: " +
		strconv.Itoa(threshold) + "\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestWatchConfigReloadsOnChange(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, 70)

	var (
		mu       sync.Mutex
		reloaded []*config.Config
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, func(cfg *config.Config) {
			mu.Lock()
			reloaded = append(reloaded, cfg)
			mu.Unlock()
		})
	}()

	// 等待监听建立
	time.Sleep(200 * time.Millisecond)
	writeConfig(t, path, 55)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) > 0
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	last := reloaded[len(reloaded)-1]
	mu.Unlock()
	assert.Equal(t, 55.0, last.Quiz.ImprovementThreshold)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchConfigMissingDirectory(t *testing.T) {
	err := WatchConfig(context.Background(), filepath.Join(t.TempDir(), "missing", "config.yaml"), func(*config.Config) {})
	assert.Error(t, err)
}
