package dialogue

import "sort"

// Collection 内存中的对话集合
//
// 不做唯一性校验：重复的对话标识会全部保留，查询时一并返回。
type Collection struct {
	dialogues []*Dialogue
}

// NewCollection 创建空集合
func NewCollection() *Collection {
	return &Collection{}
}

// Add 追加一段对话
func (c *Collection) Add(d *Dialogue) {
	c.dialogues = append(c.dialogues, d)
}

// Merge 将另一个集合的对话按顺序追加进来
func (c *Collection) Merge(other *Collection) {
	if other == nil {
		return
	}
	c.dialogues = append(c.dialogues, other.dialogues...)
}

// Len 返回对话总数
func (c *Collection) Len() int {
	return len(c.dialogues)
}

// Dialogues 返回指定场景+说话者的所有对话，按 Order 升序
//
// Order 相同时保持插入顺序。每次调用返回新的切片，调用方可以自由遍历。
func (c *Collection) Dialogues(sceneID, speakerID string) []*Dialogue {
	var result []*Dialogue
	for _, d := range c.dialogues {
		if d.SceneID == sceneID && d.SpeakerID == speakerID {
			result = append(result, d)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Order < result[j].Order
	})
	return result
}

// Find 查找指定ID的对话（按 Order 顺序取第一个匹配）
//
// 返回：
//   - *Dialogue: 找到的对话，不存在时返回 nil
func (c *Collection) Find(sceneID, speakerID, dialogueID string) *Dialogue {
	for _, d := range c.Dialogues(sceneID, speakerID) {
		if d.ID == dialogueID {
			return d
		}
	}
	return nil
}

// Speakers 返回集合中出现过的 (场景, 说话者) 组合，按首次出现顺序
func (c *Collection) Speakers() []Key {
	seen := make(map[Key]bool)
	var keys []Key
	for _, d := range c.dialogues {
		k := Key{SceneID: d.SceneID, SpeakerID: d.SpeakerID}
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}
