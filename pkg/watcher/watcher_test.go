package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decker502/dialogue/pkg/dialogue"
)

func waitReload(t *testing.T, w *Watcher) Reload {
	t.Helper()
	select {
	case r := <-w.Reloads():
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	return Reload{}
}

func TestIsScriptFile(t *testing.T) {
	assert.True(t, IsScriptFile("scene-wood_npc-wizard-dialog1.csv"))
	assert.True(t, IsScriptFile("/tmp/manifest.yaml"))
	assert.True(t, IsScriptFile("MANIFEST.YML"))
	assert.False(t, IsScriptFile("notes.txt"))
	assert.False(t, IsScriptFile("scene.csv.swp"))
}

func TestWatcherStartMissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), 0, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start())
	assert.NoError(t, w.Stop())
}

func TestWatcherReloadsOnScriptChange(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	w, err := New(dir, 50*time.Millisecond, func() (*dialogue.Collection, error) {
		calls.Add(1)
		c := dialogue.NewCollection()
		c.Add(&dialogue.Dialogue{SceneID: "wood", SpeakerID: "wizard", ID: "d1"})
		return c, nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// 快速连续写入只触发一次加载
	path := filepath.Join(dir, "scene-wood_npc-wizard-dialog1.csv")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("header\n"), 0644))
	}

	r := waitReload(t, w)
	require.NoError(t, r.Err)
	assert.Equal(t, 1, r.Collection.Len())
	assert.Equal(t, "scene-wood_npc-wizard-dialog1.csv", filepath.Base(r.Trigger))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, 20*time.Millisecond, func() (*dialogue.Collection, error) {
		return dialogue.NewCollection(), nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case r := <-w.Reloads():
		t.Fatalf("unexpected reload triggered by %s", r.Trigger)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherReportsLoadError(t *testing.T) {
	dir := t.TempDir()
	loadErr := errors.New("bad script")

	w, err := New(dir, 20*time.Millisecond, func() (*dialogue.Collection, error) {
		return nil, loadErr
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("scripts: ["), 0644))

	r := waitReload(t, w)
	assert.ErrorIs(t, r.Err, loadErr)
	assert.Nil(t, r.Collection)
}

func TestWatcherStopClosesReloads(t *testing.T) {
	w, err := New(t.TempDir(), 0, func() (*dialogue.Collection, error) { return nil, nil })
	require.NoError(t, err)
	require.NoError(t, w.Start())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Reloads()
	assert.False(t, ok)
}
