package checkpoint

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
)

// gdata 存储对象名，属性名为存档档案名（profile）
const checkpointsObject = "checkpoints"

// GdataStore 以 gdata 跨平台存储持久化的 checkpoint 存储
//
// 每个存档档案（profile）对应对象 "checkpoints" 下的一个属性，内容为 YAML 快照。
// gdataManager 为 nil 时进入降级模式：只保存在内存中，Save() 不报错。
type GdataStore struct {
	*MemoryStore
	gdataManager *gdata.Manager
	profile      string
}

// NewGdataStore 创建 gdata 存储并加载已有存档
//
// 参数：
//   - gdataManager: gdata 管理器，可为 nil（降级模式）
//   - profile: 存档档案名，空字符串使用 "default"
//
// 返回：
//   - *GdataStore: 存储实例
//   - error: 存档存在但无法读取或解析
func NewGdataStore(gdataManager *gdata.Manager, profile string) (*GdataStore, error) {
	if profile == "" {
		profile = "default"
	}

	gs := &GdataStore{
		MemoryStore:  NewMemoryStore(),
		gdataManager: gdataManager,
		profile:      profile,
	}

	if err := gs.Load(); err != nil {
		return nil, err
	}
	return gs, nil
}

// OpenGdataStore 按应用名打开 gdata 并创建存储
//
// gdata 初始化失败时不是致命错误，降级为内存模式。
func OpenGdataStore(appName, profile string) (*GdataStore, error) {
	manager, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		log.Printf("[CheckpointStore] Warning: gdata unavailable: %v (checkpoints kept in memory)", err)
		manager = nil
	}
	return NewGdataStore(manager, profile)
}

// Profile 返回存档档案名
func (gs *GdataStore) Profile() string {
	return gs.profile
}

// Persistent 是否真正持久化（非降级模式）
func (gs *GdataStore) Persistent() bool {
	return gs.gdataManager != nil
}

// Load 从 gdata 重新加载；存档不存在时保持空状态
func (gs *GdataStore) Load() error {
	if gs.gdataManager == nil {
		return nil
	}

	if !gs.gdataManager.ObjectPropExists(checkpointsObject, gs.profile) {
		return nil
	}

	data, err := gs.gdataManager.LoadObjectProp(checkpointsObject, gs.profile)
	if err != nil {
		return fmt.Errorf("failed to load checkpoints for profile %s: %w", gs.profile, err)
	}

	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		return fmt.Errorf("profile %s: %w", gs.profile, err)
	}

	gs.Restore(snap)
	log.Printf("[CheckpointStore] Loaded profile %s from gdata", gs.profile)
	return nil
}

// Save 写入 gdata；降级模式下直接返回 nil
func (gs *GdataStore) Save() error {
	if gs.gdataManager == nil {
		return nil
	}

	data, err := MarshalSnapshot(gs.Snapshot())
	if err != nil {
		return err
	}

	if err := gs.gdataManager.SaveObjectProp(checkpointsObject, gs.profile, data); err != nil {
		return fmt.Errorf("failed to save checkpoints for profile %s: %w", gs.profile, err)
	}

	gs.markClean()
	return nil
}

// Close 保存并释放
func (gs *GdataStore) Close() error {
	return gs.Save()
}
