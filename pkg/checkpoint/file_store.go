package checkpoint

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// FileStore 以 YAML 文件持久化的 checkpoint 存储
//
// 修改只发生在内存中，调用 Save() 才会写入文件。
type FileStore struct {
	*MemoryStore
	path string
}

// OpenFileStore 打开（或创建）存档文件
//
// 参数：
//   - path: 存档文件路径（如 "saves/checkpoints.yaml"），所在目录不存在时会被创建
//
// 返回：
//   - *FileStore: 存储实例；文件不存在时为空存档
//   - error: 创建目录或解析文件失败
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}

	fs := &FileStore{
		MemoryStore: NewMemoryStore(),
		path:        path,
	}

	if err := fs.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// 文件不存在，使用空存档
	}

	return fs, nil
}

// Path 返回存档文件路径
func (fs *FileStore) Path() string {
	return fs.path
}

// Load 从文件重新加载
//
// 返回：
//   - error: 文件不存在时返回 os.ErrNotExist（可用 os.IsNotExist 判断）
func (fs *FileStore) Load() error {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return err
	}

	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.path, err)
	}

	fs.Restore(snap)
	log.Printf("[CheckpointStore] Loaded %d progress records from %s", len(snap.Progress), fs.path)
	return nil
}

// Save 写入文件
//
// 先写临时文件再重命名，避免写到一半时损坏存档。
func (fs *FileStore) Save() error {
	data, err := MarshalSnapshot(fs.Snapshot())
	if err != nil {
		return err
	}

	tmpPath := fs.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	if err := os.Rename(tmpPath, fs.path); err != nil {
		return fmt.Errorf("failed to replace save file: %w", err)
	}

	fs.markClean()
	return nil
}

// Close 保存并释放
func (fs *FileStore) Close() error {
	return fs.Save()
}
