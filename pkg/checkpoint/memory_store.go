// Package checkpoint 提供 dialogue.CheckpointStore 的多种实现
//
// 所有实现都以 MemoryStore 为内存状态，持久化实现在此基础上增加 Load/Save：
//   - MemoryStore: 纯内存（测试 / 原型）
//   - FileStore: YAML 文件
//   - GdataStore: gdata 跨平台存储
//   - SQLiteStore: SQLite 数据库
package checkpoint

import (
	"sort"
	"sync"

	"github.com/decker502/dialogue/pkg/dialogue"
)

type globalKey struct {
	sceneID      string
	checkpointID string
}

type localKey struct {
	sceneID      string
	speakerID    string
	checkpointID string
}

// MemoryStore 内存中的 checkpoint 存储
//
// 读写由 RWMutex 保护，可以安全地被多个 goroutine 读取。
type MemoryStore struct {
	mu       sync.RWMutex
	globals  map[globalKey]struct{}
	locals   map[localKey]struct{}
	progress map[dialogue.Key]dialogue.Progress
	dirty    bool
}

var _ dialogue.CheckpointStore = (*MemoryStore)(nil)

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		globals:  make(map[globalKey]struct{}),
		locals:   make(map[localKey]struct{}),
		progress: make(map[dialogue.Key]dialogue.Progress),
	}
}

// HasGlobalCheckpoint 场景级 checkpoint 是否已设置
func (s *MemoryStore) HasGlobalCheckpoint(sceneID, checkpointID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.globals[globalKey{sceneID, checkpointID}]
	return ok
}

// SetGlobalCheckpoint 设置场景级 checkpoint，空ID忽略
func (s *MemoryStore) SetGlobalCheckpoint(sceneID, checkpointID string) {
	if checkpointID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := globalKey{sceneID, checkpointID}
	if _, ok := s.globals[key]; ok {
		return
	}
	s.globals[key] = struct{}{}
	s.dirty = true
}

// HasLocalCheckpoint 场景+说话者级 checkpoint 是否已设置
func (s *MemoryStore) HasLocalCheckpoint(sceneID, speakerID, checkpointID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.locals[localKey{sceneID, speakerID, checkpointID}]
	return ok
}

// SetLocalCheckpoint 设置场景+说话者级 checkpoint，空ID忽略
func (s *MemoryStore) SetLocalCheckpoint(sceneID, speakerID, checkpointID string) {
	if checkpointID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := localKey{sceneID, speakerID, checkpointID}
	if _, ok := s.locals[key]; ok {
		return
	}
	s.locals[key] = struct{}{}
	s.dirty = true
}

// DialogueProgress 读取对话进度，不存在时返回零值进度
func (s *MemoryStore) DialogueProgress(sceneID, speakerID, dialogueID string) dialogue.Progress {
	key := dialogue.Key{SceneID: sceneID, SpeakerID: speakerID, DialogueID: dialogueID}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.progress[key]; ok {
		return p
	}
	return dialogue.NewProgress(sceneID, speakerID, dialogueID)
}

// SaveDialogueProgress 写入对话进度
func (s *MemoryStore) SaveDialogueProgress(p dialogue.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.progress[p.Key()]; ok && old == p {
		return
	}
	s.progress[p.Key()] = p
	s.dirty = true
}

// Dirty 自上次加载或保存以来是否有修改
func (s *MemoryStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Reset 清空所有数据（新存档）
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals = make(map[globalKey]struct{})
	s.locals = make(map[localKey]struct{})
	s.progress = make(map[dialogue.Key]dialogue.Progress)
	s.dirty = true
}

// Snapshot 导出当前状态（排序后，输出稳定）
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Version: SnapshotVersion}

	for k := range s.globals {
		snap.Globals = append(snap.Globals, GlobalCheckpoint{Scene: k.sceneID, ID: k.checkpointID})
	}
	sort.Slice(snap.Globals, func(i, j int) bool {
		a, b := snap.Globals[i], snap.Globals[j]
		if a.Scene != b.Scene {
			return a.Scene < b.Scene
		}
		return a.ID < b.ID
	})

	for k := range s.locals {
		snap.Locals = append(snap.Locals, LocalCheckpoint{Scene: k.sceneID, Speaker: k.speakerID, ID: k.checkpointID})
	}
	sort.Slice(snap.Locals, func(i, j int) bool {
		a, b := snap.Locals[i], snap.Locals[j]
		if a.Scene != b.Scene {
			return a.Scene < b.Scene
		}
		if a.Speaker != b.Speaker {
			return a.Speaker < b.Speaker
		}
		return a.ID < b.ID
	})

	for _, p := range s.progress {
		snap.Progress = append(snap.Progress, p)
	}
	sort.Slice(snap.Progress, func(i, j int) bool {
		a, b := snap.Progress[i], snap.Progress[j]
		if a.SceneID != b.SceneID {
			return a.SceneID < b.SceneID
		}
		if a.SpeakerID != b.SpeakerID {
			return a.SpeakerID < b.SpeakerID
		}
		return a.DialogueID < b.DialogueID
	})

	return snap
}

// markClean 持久化成功后清除修改标记
func (s *MemoryStore) markClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// Restore 用快照替换当前状态，并清除修改标记
func (s *MemoryStore) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.globals = make(map[globalKey]struct{}, len(snap.Globals))
	for _, g := range snap.Globals {
		if g.ID == "" {
			continue
		}
		s.globals[globalKey{g.Scene, g.ID}] = struct{}{}
	}

	s.locals = make(map[localKey]struct{}, len(snap.Locals))
	for _, l := range snap.Locals {
		if l.ID == "" {
			continue
		}
		s.locals[localKey{l.Scene, l.Speaker, l.ID}] = struct{}{}
	}

	s.progress = make(map[dialogue.Key]dialogue.Progress, len(snap.Progress))
	for _, p := range snap.Progress {
		s.progress[p.Key()] = p
	}

	s.dirty = false
}

// Save 纯内存存储无需持久化
func (s *MemoryStore) Save() error {
	s.markClean()
	return nil
}

// Close 纯内存存储无需释放资源
func (s *MemoryStore) Close() error {
	return nil
}
