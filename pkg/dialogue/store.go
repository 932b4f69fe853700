package dialogue

// CheckpointStore 存档接口
//
// 由 Manager 和 Session 共同使用。checkpoint 是单调的：只能设置，不能取消。
// 具体的持久化方式（内存、YAML 文件、gdata、SQLite）见 pkg/checkpoint。
type CheckpointStore interface {
	// HasGlobalCheckpoint 场景级 checkpoint 是否已设置
	HasGlobalCheckpoint(sceneID, checkpointID string) bool

	// SetGlobalCheckpoint 设置场景级 checkpoint，checkpointID 为空时不做任何事
	SetGlobalCheckpoint(sceneID, checkpointID string)

	// HasLocalCheckpoint 场景+说话者级 checkpoint 是否已设置
	HasLocalCheckpoint(sceneID, speakerID, checkpointID string) bool

	// SetLocalCheckpoint 设置场景+说话者级 checkpoint，checkpointID 为空时不做任何事
	SetLocalCheckpoint(sceneID, speakerID, checkpointID string)

	// DialogueProgress 读取对话进度；不存在时返回零值进度，不会失败
	DialogueProgress(sceneID, speakerID, dialogueID string) Progress

	// SaveDialogueProgress 按标识写入（覆盖）对话进度
	SaveDialogueProgress(progress Progress)
}
