package dialogue

import (
	"sort"
	"strings"
)

// DefaultFallbackLanguage 默认的回退语言代码
const DefaultFallbackLanguage = "en"

// Kind 对话类型枚举
//
// 目前仅作为脚本数据保留，不影响选择逻辑。
type Kind int

const (
	// KindStory 剧情对话
	KindStory Kind = iota

	// KindIdle 常驻闲聊对话（解析失败时的默认值）
	KindIdle
)

// String 返回 Kind 的字符串表示
func (k Kind) String() string {
	switch k {
	case KindStory:
		return "Story"
	case KindIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// ParseKind 宽松地解析对话类型（不区分大小写）
//
// 无法识别的值（包括空字符串）一律视为 KindIdle，不返回错误。
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "story":
		return KindStory
	default:
		return KindIdle
	}
}

// Line 对话中的一行
//
// 加载完成后不可修改，由所属的 Dialogue 独占。
type Line struct {
	Index   int    // 行索引（0 开始）
	Speaker string // 显示用的说话者名称，可为空

	// Texts 语言代码 -> 本地化文本，允许稀疏
	Texts map[string]string

	// ResumeCheckpointID 到达此行时记录的续接点，空表示不记录
	ResumeCheckpointID string

	// GlobalCheckpointToSet 到达此行时设置的场景级 checkpoint
	GlobalCheckpointToSet string

	// LocalCheckpointToSet 到达此行时设置的场景+说话者级 checkpoint
	LocalCheckpointToSet string
}

// Text 获取指定语言的文本，回退到 DefaultFallbackLanguage
func (l *Line) Text(languageCode string) string {
	return l.TextWithFallback(languageCode, DefaultFallbackLanguage)
}

// TextWithFallback 获取指定语言的文本
//
// 查找顺序：
//  1. languageCode 对应的非空文本
//  2. fallbackLanguageCode 对应的非空文本
//  3. 任意可用语言（按语言代码排序取第一个，保证结果稳定）
//  4. 空字符串
func (l *Line) TextWithFallback(languageCode, fallbackLanguageCode string) string {
	if languageCode != "" {
		if text := l.Texts[languageCode]; text != "" {
			return text
		}
	}

	if fallbackLanguageCode != "" {
		if text := l.Texts[fallbackLanguageCode]; text != "" {
			return text
		}
	}

	if len(l.Texts) == 0 {
		return ""
	}

	codes := make([]string, 0, len(l.Texts))
	for code := range l.Texts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if text := l.Texts[code]; text != "" {
			return text
		}
	}
	return ""
}

// Languages 返回此行提供的语言代码（已排序）
func (l *Line) Languages() []string {
	codes := make([]string, 0, len(l.Texts))
	for code := range l.Texts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
