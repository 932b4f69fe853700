package checkpoint

import (
	"fmt"
	"log"

	"github.com/decker502/dialogue/pkg/config"
	"github.com/decker502/dialogue/pkg/dialogue"
)

// Store 可持久化的 checkpoint 存储
//
// 修改先发生在内存中，Save() 负责写回后端；持久化失败由 Save() 返回，不会被吞掉。
type Store interface {
	dialogue.CheckpointStore

	// Save 写回后端
	Save() error

	// Close 保存并释放后端资源
	Close() error

	// Dirty 是否有尚未保存的修改
	Dirty() bool
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*GdataStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Open 按配置创建存储
//
// 参数：
//   - cfg: 存储配置，Backend 为 "memory"、"file"、"gdata" 或 "sqlite"
//
// 返回：
//   - Store: 已加载存档的存储
//   - error: 未知后端或打开失败
func Open(cfg config.Storage) (Store, error) {
	log.Printf("[CheckpointStore] Opening %s backend", cfg.Backend)

	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		store = NewMemoryStore()
	case config.BackendFile:
		store, err = OpenFileStore(cfg.Path)
	case config.BackendGdata:
		store, err = OpenGdataStore(cfg.AppName, cfg.Profile)
	case config.BackendSQLite:
		store, err = OpenSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
