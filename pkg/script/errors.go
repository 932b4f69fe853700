package script

import "fmt"

// MismatchError 同一对话的不同行给出了不一致的对话级字段（仅在 Strict 模式下返回）
type MismatchError struct {
	DialogueID string
	Field      string
	Line       int // 出现冲突的源文件行号（1 开始）
	Want       string
	Got        string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("dialogue %q line %d: %s is %q, first row declared %q",
		e.DialogueID, e.Line, e.Field, e.Got, e.Want)
}
