package dialogue

import "log"

// Manager 对话管理器：为场景+说话者选择对话并创建会话
//
// 职责：
//   - 按 Order 顺序检查可用性（checkpoint 要求）和完成状态
//   - 根据存档中的续接点确定起始行
//
// 返回的 Session 尚未开始：调用方应先注册回调，再调用 Session.Start()。
type Manager struct {
	collection *Collection
	store      CheckpointStore
}

// NewManager 创建对话管理器
//
// 参数：
//   - collection: 已加载的对话集合
//   - store: 存档接口，同时传给创建出的每个 Session
func NewManager(collection *Collection, store CheckpointStore) *Manager {
	if collection == nil {
		collection = NewCollection()
	}
	return &Manager{
		collection: collection,
		store:      store,
	}
}

// Collection 返回当前使用的对话集合
func (m *Manager) Collection() *Collection {
	return m.collection
}

// SetCollection 替换对话集合（脚本热重载时使用）
//
// 已创建的 Session 继续使用旧的对话数据。
func (m *Manager) SetCollection(collection *Collection) {
	if collection == nil {
		return
	}
	m.collection = collection
	log.Printf("[DialogueManager] Collection replaced: %d dialogues", collection.Len())
}

// Store 返回存档接口
func (m *Manager) Store() CheckpointStore {
	return m.store
}

// StartNext 选择下一段可播放且未完成的对话
//
// 返回：
//   - *Session: 定位到续接点的会话；没有可播放的对话时返回 nil（正常情况，不是错误）
func (m *Manager) StartNext(sceneID, speakerID string) *Session {
	for _, d := range m.collection.Dialogues(sceneID, speakerID) {
		if !m.isAvailable(d, sceneID, speakerID) {
			continue
		}

		progress := m.store.DialogueProgress(sceneID, speakerID, d.ID)
		if progress.Completed {
			// 已完成的对话不会通过此路径重播
			continue
		}

		return m.newSession(d, progress, sceneID, speakerID)
	}

	log.Printf("[DialogueManager] No dialogue available for %s/%s", sceneID, speakerID)
	return nil
}

// StartByID 直接按ID启动指定对话（用于脚本触发）
//
// 与 StartNext 不同，这里不检查完成状态：调用方可以有意重播已完成的对话。
//
// 返回：
//   - *Session: ID 不存在或不满足 checkpoint 要求时返回 nil
func (m *Manager) StartByID(sceneID, speakerID, dialogueID string) *Session {
	d := m.collection.Find(sceneID, speakerID, dialogueID)
	if d == nil {
		log.Printf("[DialogueManager] Dialogue %s/%s/%s not found", sceneID, speakerID, dialogueID)
		return nil
	}
	if !m.isAvailable(d, sceneID, speakerID) {
		return nil
	}

	progress := m.store.DialogueProgress(sceneID, speakerID, d.ID)
	return m.newSession(d, progress, sceneID, speakerID)
}

// IsAvailable 检查对话的 checkpoint 要求是否已满足
func (m *Manager) IsAvailable(d *Dialogue) bool {
	return m.isAvailable(d, d.SceneID, d.SpeakerID)
}

func (m *Manager) isAvailable(d *Dialogue, sceneID, speakerID string) bool {
	if d.RequiredGlobalCheckpoint != "" &&
		!m.store.HasGlobalCheckpoint(sceneID, d.RequiredGlobalCheckpoint) {
		return false
	}

	if d.RequiredLocalCheckpoint != "" &&
		!m.store.HasLocalCheckpoint(sceneID, speakerID, d.RequiredLocalCheckpoint) {
		return false
	}

	// Kind 目前不影响可用性
	return true
}

// newSession 根据进度确定起始行并创建会话
func (m *Manager) newSession(d *Dialogue, progress Progress, sceneID, speakerID string) *Session {
	startIndex := 0
	if idx := d.IndexOfResumeCheckpoint(progress.LastResumeCheckpointID); idx >= 0 {
		startIndex = idx
	}

	log.Printf("[DialogueManager] Selected %s/%s/%s (order %d), start line %d",
		sceneID, speakerID, d.ID, d.Order, startIndex)

	return NewSession(d, startIndex, sceneID, speakerID, m.store)
}
