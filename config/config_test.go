package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsAreValid(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.Equal(t, uint(4), c.SchedulerWorkers)
	require.Equal(t, uint(256), c.QueueCapacity)
}

func TestNew_OptionsOverrideDefaults(t *testing.T) {
	c, err := New(WithSchedulerWorkers(10), WithPoolCapacity(2))
	require.NoError(t, err)
	require.Equal(t, uint(10), c.SchedulerWorkers)
	require.Equal(t, uint(2), c.PoolCapacity)
}

func TestNew_ZeroValueRejected(t *testing.T) {
	_, err := New(WithQueueCapacity(0))
	require.Error(t, err)
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dsk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler_workers: 12\npool_capacity: 5\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint(12), c.SchedulerWorkers)
	require.Equal(t, uint(5), c.PoolCapacity)
	require.Equal(t, uint(256), c.QueueCapacity, "unset fields keep their default")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, uint(4), c.SchedulerWorkers)
}

func TestLoad_OptionsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dsk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler_workers: 12\n"), 0o644))

	c, err := Load(path, WithSchedulerWorkers(99))
	require.NoError(t, err)
	require.Equal(t, uint(99), c.SchedulerWorkers)
}

func TestLoad_EnvOverridesFileAndOptions(t *testing.T) {
	t.Setenv("DSK_SCHEDULER_WORKERS", "77")
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), WithSchedulerWorkers(99))
	require.NoError(t, err)
	require.Equal(t, uint(77), c.SchedulerWorkers)
}
