package dialogue

import (
	"errors"
	"log"
)

var (
	// ErrNotStarted 在 Start() 之前访问当前行或推进
	ErrNotStarted = errors.New("dialogue session not started")

	// ErrNoCurrentLine 对话已结束（或为空），没有当前行
	ErrNoCurrentLine = errors.New("dialogue session has no current line")
)

// SessionState 会话状态
type SessionState int

const (
	// SessionNotStarted 尚未调用 Start()
	SessionNotStarted SessionState = iota

	// SessionActive 正在播放某一行
	SessionActive

	// SessionCompleted 所有行已播放完毕（或对话为空）
	SessionCompleted
)

// String 返回 SessionState 的字符串表示
func (s SessionState) String() string {
	switch s {
	case SessionNotStarted:
		return "NotStarted"
	case SessionActive:
		return "Active"
	case SessionCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Session 一段对话的播放游标
//
// 状态机：NotStarted → Active(i) → Active(i+1) → ... → Completed
//
// 事件：
//   - OnStart: Start() 时恰好一次
//   - OnLineChange: 每一行成为当前行时一次（包括第一行）
//   - OnEnd: 进入 Completed 时恰好一次
//
// 观察者按注册顺序同步调用。Session 不是并发安全的。
type Session struct {
	dialogue  *Dialogue
	store     CheckpointStore
	sceneID   string
	speakerID string

	currentIndex int
	started      bool
	completed    bool
	ended        bool // 已写入完成标记并发出 OnEnd

	onStart      []func(*Session)
	onLineChange []func(*Session, *Line)
	onEnd        []func(*Session)
}

// NewSession 创建会话
//
// 参数：
//   - d: 要播放的对话
//   - startIndex: 起始行位置，会被限制在 [0, 行数-1] 范围内
//   - sceneID, speakerID: 写入 checkpoint 时使用的场景和说话者
//   - store: 存档接口
//
// 对话没有任何行时，会话直接处于空的终止状态（但仍需 Start() 才会写入完成标记并发出事件）。
func NewSession(d *Dialogue, startIndex int, sceneID, speakerID string, store CheckpointStore) *Session {
	s := &Session{
		dialogue:  d,
		store:     store,
		sceneID:   sceneID,
		speakerID: speakerID,
	}

	lineCount := len(d.Lines)
	if lineCount == 0 {
		s.currentIndex = -1
		s.completed = true
		return s
	}

	s.currentIndex = max(0, min(startIndex, lineCount-1))
	return s
}

// OnStart 注册对话开始回调
func (s *Session) OnStart(fn func(*Session)) {
	s.onStart = append(s.onStart, fn)
}

// OnLineChange 注册当前行变化回调
func (s *Session) OnLineChange(fn func(*Session, *Line)) {
	s.onLineChange = append(s.onLineChange, fn)
}

// OnEnd 注册对话结束回调
func (s *Session) OnEnd(fn func(*Session)) {
	s.onEnd = append(s.onEnd, fn)
}

// Dialogue 返回正在播放的对话
func (s *Session) Dialogue() *Dialogue { return s.dialogue }

// SceneID 返回会话的场景ID
func (s *Session) SceneID() string { return s.sceneID }

// SpeakerID 返回会话的说话者ID
func (s *Session) SpeakerID() string { return s.speakerID }

// IsStarted 是否已调用 Start()
func (s *Session) IsStarted() bool { return s.started }

// IsCompleted 是否已结束
//
// 注意：空对话在 Start() 之前也返回 true。
func (s *Session) IsCompleted() bool { return s.completed }

// LineIndex 返回当前行在 Lines 中的位置
//
// 空对话为 -1；推进越过最后一行结束后为 len(Lines)，此时 CurrentLine 返回 ErrNoCurrentLine。
func (s *Session) LineIndex() int { return s.currentIndex }

// State 返回当前状态
func (s *Session) State() SessionState {
	switch {
	case !s.started:
		return SessionNotStarted
	case s.completed:
		return SessionCompleted
	default:
		return SessionActive
	}
}

// Start 开始播放
//
// 重复调用无效果。依次：发出 OnStart；空对话则写入完成标记并发出 OnEnd；
// 否则应用当前行的副作用并发出 OnLineChange。
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true

	log.Printf("[DialogueSession] %s/%s/%s: started at line %d/%d",
		s.sceneID, s.speakerID, s.dialogue.ID, s.currentIndex+1, len(s.dialogue.Lines))

	for _, fn := range s.onStart {
		fn(s)
	}

	if len(s.dialogue.Lines) == 0 {
		// 空对话：直接结束
		s.finish()
		return
	}

	s.enterCurrentLine()
}

// CurrentLine 返回当前行
//
// 返回：
//   - *Line: 当前行
//   - error: 未开始返回 ErrNotStarted，已结束返回 ErrNoCurrentLine
func (s *Session) CurrentLine() (*Line, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.completed || s.currentIndex < 0 || s.currentIndex >= len(s.dialogue.Lines) {
		return nil, ErrNoCurrentLine
	}
	return s.dialogue.Lines[s.currentIndex], nil
}

// Advance 推进到下一行
//
// 返回：
//   - bool: true 表示有新的当前行；false 表示对话已结束
//   - error: 未开始时返回 ErrNotStarted
//
// 已结束后再调用返回 (false, nil)，没有任何副作用。
func (s *Session) Advance() (bool, error) {
	if !s.started {
		return false, ErrNotStarted
	}
	if s.completed {
		return false, nil
	}

	s.currentIndex++
	if s.currentIndex >= len(s.dialogue.Lines) {
		s.finish()
		return false, nil
	}

	s.enterCurrentLine()
	return true, nil
}

// enterCurrentLine 应用当前行的副作用并通知观察者
func (s *Session) enterCurrentLine() {
	line := s.dialogue.Lines[s.currentIndex]
	s.applyLineSideEffects(line)

	for _, fn := range s.onLineChange {
		fn(s, line)
	}
}

// applyLineSideEffects 应用行的 checkpoint 副作用
//
// 顺序：全局 checkpoint → 局部 checkpoint → 读取进度 → 更新续接点 → 写回进度。
// 即使续接点没有变化也会写回。
func (s *Session) applyLineSideEffects(line *Line) {
	if line.GlobalCheckpointToSet != "" {
		s.store.SetGlobalCheckpoint(s.sceneID, line.GlobalCheckpointToSet)
	}

	if line.LocalCheckpointToSet != "" {
		s.store.SetLocalCheckpoint(s.sceneID, s.speakerID, line.LocalCheckpointToSet)
	}

	progress := s.store.DialogueProgress(s.sceneID, s.speakerID, s.dialogue.ID)
	if line.ResumeCheckpointID != "" {
		progress.LastResumeCheckpointID = line.ResumeCheckpointID
	}
	s.store.SaveDialogueProgress(progress)
}

// finish 进入 Completed 状态，写入完成标记并发出 OnEnd（只会发生一次）
func (s *Session) finish() {
	if s.ended {
		return
	}
	s.ended = true
	s.completed = true
	s.markCompleted()

	log.Printf("[DialogueSession] %s/%s/%s: completed", s.sceneID, s.speakerID, s.dialogue.ID)

	for _, fn := range s.onEnd {
		fn(s)
	}
}

// markCompleted 在存档中写入完成标记
//
// 已经标记过的进度不会重复写入。
func (s *Session) markCompleted() {
	progress := s.store.DialogueProgress(s.sceneID, s.speakerID, s.dialogue.ID)
	if progress.Completed {
		return
	}
	progress.Completed = true
	s.store.SaveDialogueProgress(progress)
}
