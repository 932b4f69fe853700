// Package script 将分隔符文本格式的对话脚本解析为 dialogue.Dialogue 记录
//
// 脚本格式：首行为表头，其后每行描述一句台词：
//
//	dialogueId;dialogueOrder;lineIndex;kind;requiredGlobal;requiredLocal;resumeCheckpoint;setGlobal;setLocal;speaker;ru;en;fr;es
//
// speaker 之后的列均为语言列，列名即语言代码。
package script

// 固定列位置
const (
	colDialogueID = iota
	colDialogueOrder
	colLineIndex
	colKind
	colRequiredGlobal
	colRequiredLocal
	colResumeCheckpoint
	colSetGlobal
	colSetLocal
	colSpeaker
	colFirstLanguage
)

// DefaultSeparator 默认列分隔符
const DefaultSeparator = ';'

// DefaultLanguages 表头未给出语言列名时使用的语言顺序
var DefaultLanguages = []string{"ru", "en", "fr", "es"}

// Options 解析选项
type Options struct {
	// Separator 列分隔符，0 表示 DefaultSeparator
	Separator rune

	// Strict 为 true 时，同一对话的多行在 order/kind/前置条件上不一致会返回 *MismatchError；
	// 为 false 时以首次出现的行为准
	Strict bool

	// Languages 覆盖语言列的语言代码；为空时读取表头
	Languages []string
}

func (o Options) separator() rune {
	if o.Separator == 0 {
		return DefaultSeparator
	}
	return o.Separator
}
