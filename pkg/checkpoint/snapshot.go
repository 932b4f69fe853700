package checkpoint

import (
	"fmt"

	"github.com/decker502/dialogue/pkg/dialogue"
	"gopkg.in/yaml.v3"
)

// SnapshotVersion 当前快照格式版本
const SnapshotVersion = 1

// GlobalCheckpoint 场景级 checkpoint
type GlobalCheckpoint struct {
	Scene string `yaml:"scene"`
	ID    string `yaml:"id"`
}

// LocalCheckpoint 场景+说话者级 checkpoint
type LocalCheckpoint struct {
	Scene   string `yaml:"scene"`
	Speaker string `yaml:"speaker"`
	ID      string `yaml:"id"`
}

// Snapshot 存档的完整内容
//
// 各持久化实现都以此结构读写（YAML 文件、gdata 对象属性直接序列化；SQLite 按表拆分）。
type Snapshot struct {
	Version  int                 `yaml:"version"`
	Globals  []GlobalCheckpoint  `yaml:"globals"`
	Locals   []LocalCheckpoint   `yaml:"locals"`
	Progress []dialogue.Progress `yaml:"progress"`
}

// MarshalSnapshot 将快照序列化为 YAML（格式化输出，便于人工阅读和调试）
func MarshalSnapshot(snap Snapshot) ([]byte, error) {
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoints: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot 解析 YAML 快照
//
// 未知的更高版本返回错误，避免用旧程序覆盖新存档。
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse checkpoints: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported checkpoint version %d (max %d)", snap.Version, SnapshotVersion)
	}
	return snap, nil
}
