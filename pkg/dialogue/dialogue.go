// Package dialogue 实现对话选择与播放的核心逻辑
//
// 组成：
//   - Dialogue / Line: 加载后不可变的对话数据
//   - Collection: 按场景+说话者查询对话
//   - CheckpointStore: 存档接口（checkpoint 标记和对话进度）
//   - Manager: 选择下一个可播放的对话并创建 Session
//   - Session: 逐行播放对话，应用存档副作用并发出生命周期事件
//
// 包内所有操作都是同步、单线程的。
package dialogue

// Key 对话的唯一标识 (场景, 说话者, 对话ID)
type Key struct {
	SceneID    string
	SpeakerID  string
	DialogueID string
}

// Dialogue 一段线性对话
//
// 由加载器在启动时创建，之后不再修改，由 Collection 独占。
type Dialogue struct {
	SceneID   string
	SpeakerID string
	ID        string // 脚本内的对话ID，如 "dialog1"、"questIntro"

	// Order 同一场景+说话者下的排序值，选择时按升序遍历
	Order int

	Kind Kind

	// RequiredGlobalCheckpoint 可用前必须已设置的场景级 checkpoint，空表示无要求
	RequiredGlobalCheckpoint string

	// RequiredLocalCheckpoint 可用前必须已设置的场景+说话者级 checkpoint，空表示无要求
	RequiredLocalCheckpoint string

	// Lines 按 Index 升序排列
	Lines []*Line
}

// Key 返回对话的唯一标识
func (d *Dialogue) Key() Key {
	return Key{SceneID: d.SceneID, SpeakerID: d.SpeakerID, DialogueID: d.ID}
}

// LineCount 返回行数
func (d *Dialogue) LineCount() int {
	return len(d.Lines)
}

// IndexOfResumeCheckpoint 查找第一个 ResumeCheckpointID 等于 id 的行位置
//
// 返回：
//   - int: 行在 Lines 中的位置，未找到或 id 为空时返回 -1
func (d *Dialogue) IndexOfResumeCheckpoint(id string) int {
	if id == "" {
		return -1
	}
	for i, line := range d.Lines {
		if line.ResumeCheckpointID == id {
			return i
		}
	}
	return -1
}

// Progress 某段对话的存档进度
//
// 只由 Session 通过 CheckpointStore 修改。
// 值类型：修改后必须调用 SaveDialogueProgress 才会生效。
type Progress struct {
	SceneID    string `yaml:"scene"`
	SpeakerID  string `yaml:"speaker"`
	DialogueID string `yaml:"dialogue"`

	// LastResumeCheckpointID 最后到达的续接点，空表示没有
	LastResumeCheckpointID string `yaml:"lastResumeCheckpoint,omitempty"`

	// Completed 对话是否已完整播放过
	Completed bool `yaml:"completed"`
}

// Key 返回进度对应的对话标识
func (p Progress) Key() Key {
	return Key{SceneID: p.SceneID, SpeakerID: p.SpeakerID, DialogueID: p.DialogueID}
}

// NewProgress 创建一个零值进度（未完成、无续接点）
func NewProgress(sceneID, speakerID, dialogueID string) Progress {
	return Progress{
		SceneID:    sceneID,
		SpeakerID:  speakerID,
		DialogueID: dialogueID,
	}
}
