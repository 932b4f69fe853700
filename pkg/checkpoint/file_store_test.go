package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/decker502/dialogue/pkg/config"
	"github.com/decker502/dialogue/pkg/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checkpoints.yaml")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	assert.False(t, s.HasGlobalCheckpoint("wood", "a"))

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err, "save directory should be created")
}

func TestFileStoreSaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.yaml")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	s.SetGlobalCheckpoint("wood", "metWizard")
	s.SetLocalCheckpoint("wood", "wizard", "gaveHerb")
	s.SaveDialogueProgress(dialogue.Progress{
		SceneID: "wood", SpeakerID: "wizard", DialogueID: "d1",
		LastResumeCheckpointID: "mid",
	})
	require.True(t, s.Dirty())
	require.NoError(t, s.Save())
	assert.False(t, s.Dirty())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.True(t, reopened.HasGlobalCheckpoint("wood", "metWizard"))
	assert.True(t, reopened.HasLocalCheckpoint("wood", "wizard", "gaveHerb"))
	assert.Equal(t, "mid", reopened.DialogueProgress("wood", "wizard", "d1").LastResumeCheckpointID)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte("globals: [\n"), 0644))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreFutureVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 99\n"), 0644))

	_, err := OpenFileStore(path)
	assert.ErrorContains(t, err, "unsupported checkpoint version")
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()

	mem, err := Open(config.Storage{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	file, err := Open(config.Storage{Backend: config.BackendFile, Path: filepath.Join(dir, "c.yaml")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, file)

	_, err = Open(config.Storage{Backend: "redis"})
	assert.Error(t, err)
}
