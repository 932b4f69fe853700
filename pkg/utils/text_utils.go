// Package utils 提供对话展示用的通用工具函数
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DebugGlyphWidth ebitenutil.DebugPrint 位图字体单个字符的宽度（像素）
const DebugGlyphWidth = 6

// DebugLineHeight ebitenutil.DebugPrint 的行高（像素）
const DebugLineHeight = 16

// MeasureFunc 测量文本宽度（像素）
type MeasureFunc func(s string) int

// DebugTextWidth 按调试字体测量文本宽度
func DebugTextWidth(s string) int {
	return utf8.RuneCountInString(s) * DebugGlyphWidth
}

// WrapText 将文本按指定宽度自动换行
// 参数:
//   - textStr: 要换行的文本
//   - maxWidth: 最大宽度（像素）
//   - measure: 宽度测量函数，nil 时使用 DebugTextWidth
//
// 返回:
//   - []string: 换行后的文本数组（每个元素为一行）
//
// 换行规则:
//   - 优先在空格处断行
//   - 如果单词太长超过最大宽度，强制断行
//   - 原文中的换行符保留
func WrapText(textStr string, maxWidth int, measure MeasureFunc) []string {
	if measure == nil {
		measure = DebugTextWidth
	}
	if textStr == "" || maxWidth <= 0 {
		return []string{textStr}
	}

	var lines []string
	for _, paragraph := range strings.Split(textStr, "\n") {
		lines = append(lines, wrapParagraph(paragraph, maxWidth, measure)...)
	}
	return lines
}

func wrapParagraph(paragraph string, maxWidth int, measure MeasureFunc) []string {
	// 如果文本宽度小于最大宽度，直接返回
	if measure(paragraph) <= maxWidth {
		return []string{strings.TrimRightFunc(paragraph, unicode.IsSpace)}
	}

	var lines []string
	currentLine := ""

	for _, word := range strings.Fields(paragraph) {
		testLine := word
		if currentLine != "" {
			testLine = currentLine + " " + word
		}
		if measure(testLine) <= maxWidth {
			currentLine = testLine
			continue
		}

		if currentLine != "" {
			lines = append(lines, currentLine)
			currentLine = ""
		}

		// 单词本身超宽，按字符强制断行
		for measure(word) > maxWidth {
			cut := splitAt(word, maxWidth, measure)
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		currentLine = word
	}

	// 添加最后一行
	if currentLine != "" {
		lines = append(lines, currentLine)
	}
	return lines
}

// splitAt 返回不超过 maxWidth 的最长前缀的字节长度，至少包含一个字符
func splitAt(word string, maxWidth int, measure MeasureFunc) int {
	_, first := utf8.DecodeRuneInString(word)
	cut := first
	for cut < len(word) {
		_, size := utf8.DecodeRuneInString(word[cut:])
		if measure(word[:cut+size]) > maxWidth {
			break
		}
		cut += size
	}
	return cut
}
