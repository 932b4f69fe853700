package script

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/decker502/dialogue/pkg/config"
	"github.com/decker502/dialogue/pkg/dialogue"
)

const (
	// maxLineSize 单行最大字节数
	maxLineSize = 1024 * 1024

	utf8BOM = "\ufeff"
)

// row 脚本中的一行记录
type row struct {
	line           int
	dialogueID     string
	order          int
	lineIndex      int
	kind           dialogue.Kind
	requiredGlobal string
	requiredLocal  string
	resumeID       string
	setGlobal      string
	setLocal       string
	speaker        string
	texts          map[string]string
}

// group 同一 dialogueId 的行集合
type group struct {
	first *row
	lines map[int]*dialogue.Line
}

// Parse 解析一份脚本
//
// 每个物理行是一条记录，按分隔符逐列切分，引号没有特殊含义，文本中不能包含分隔符。
// 解析是宽松的：缺失的列视为空，无法解析的整数视为 0，无法识别的 kind 视为 Idle，
// 空白行被跳过，空文本不会存入。
//
// 参数：
//   - r: 脚本内容
//   - sceneID, speakerID: 脚本所属的场景与说话者，写入每条对话
//   - opts: 解析选项
//
// 返回：
//   - []*dialogue.Dialogue: 按首次出现顺序排列的对话，台词按索引升序
//   - error: 读取失败，或 Strict 模式下的 *MismatchError
func Parse(r io.Reader, sceneID, speakerID string, opts Options) ([]*dialogue.Dialogue, error) {
	sep := string(opts.separator())
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		languages []string
		order     []string
		lineNo    int
	)
	groups := make(map[string]*group)

	for scanner.Scan() {
		lineNo++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if lineNo == 1 {
			text = strings.TrimPrefix(text, utf8BOM)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		record := strings.Split(text, sep)
		if languages == nil {
			languages = languageColumns(record, opts.Languages)
			continue
		}

		rw := parseRow(record, languages, lineNo)

		g, ok := groups[rw.dialogueID]
		if !ok {
			g = &group{first: rw, lines: make(map[int]*dialogue.Line)}
			groups[rw.dialogueID] = g
			order = append(order, rw.dialogueID)
		} else if opts.Strict {
			if err := checkConsistent(g.first, rw); err != nil {
				return nil, err
			}
		}

		// 重复的行索引以最后一次出现为准
		g.lines[rw.lineIndex] = &dialogue.Line{
			Index:                 rw.lineIndex,
			Speaker:               rw.speaker,
			Texts:                 rw.texts,
			ResumeCheckpointID:    rw.resumeID,
			GlobalCheckpointToSet: rw.setGlobal,
			LocalCheckpointToSet:  rw.setLocal,
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script line %d: %w", lineNo+1, err)
	}

	dialogues := make([]*dialogue.Dialogue, 0, len(order))
	for _, id := range order {
		g := groups[id]
		d := &dialogue.Dialogue{
			SceneID:                  sceneID,
			SpeakerID:                speakerID,
			ID:                       id,
			Order:                    g.first.order,
			Kind:                     g.first.kind,
			RequiredGlobalCheckpoint: g.first.requiredGlobal,
			RequiredLocalCheckpoint:  g.first.requiredLocal,
			Lines:                    make([]*dialogue.Line, 0, len(g.lines)),
		}
		for _, l := range g.lines {
			d.Lines = append(d.Lines, l)
		}
		sort.Slice(d.Lines, func(i, j int) bool {
			return d.Lines[i].Index < d.Lines[j].Index
		})
		dialogues = append(dialogues, d)
	}

	return dialogues, nil
}

// LoadInto 解析脚本并加入集合
func LoadInto(c *dialogue.Collection, r io.Reader, sceneID, speakerID string, opts Options) (int, error) {
	dialogues, err := Parse(r, sceneID, speakerID, opts)
	if err != nil {
		return 0, err
	}
	for _, d := range dialogues {
		c.Add(d)
	}
	log.Printf("[ScriptLoader] Loaded %d dialogues for %s/%s", len(dialogues), sceneID, speakerID)
	return len(dialogues), nil
}

// LoadFile 从文件系统读取一个脚本文件并加入集合
//
// 参数：
//   - c: 目标集合
//   - fsys: 文件系统（嵌入资源或 os.DirFS）
//   - name: 文件路径
//   - sceneID, speakerID: 脚本所属的场景与说话者
//   - opts: 解析选项
func LoadFile(c *dialogue.Collection, fsys fs.FS, name, sceneID, speakerID string, opts Options) (int, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, fmt.Errorf("failed to open script %s: %w", name, err)
	}
	defer f.Close()

	n, err := LoadInto(c, f, sceneID, speakerID, opts)
	if err != nil {
		return 0, fmt.Errorf("script %s: %w", name, err)
	}
	return n, nil
}

// languageColumns 确定语言列对应的语言代码
func languageColumns(header, override []string) []string {
	if len(override) > 0 {
		langs := make([]string, len(override))
		for i, code := range override {
			langs[i] = config.NormalizeLanguage(code)
		}
		return langs
	}

	n := len(header) - colFirstLanguage
	if n < len(DefaultLanguages) {
		n = len(DefaultLanguages)
	}
	langs := make([]string, n)
	for i := range langs {
		col := colFirstLanguage + i
		var name string
		if col < len(header) {
			name = config.NormalizeLanguage(header[col])
		}
		if name == "" && i < len(DefaultLanguages) {
			name = DefaultLanguages[i]
		}
		langs[i] = name
	}
	return langs
}

func parseRow(record []string, languages []string, line int) *row {
	get := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	rw := &row{
		line:           line,
		dialogueID:     get(colDialogueID),
		order:          atoi(get(colDialogueOrder)),
		lineIndex:      atoi(get(colLineIndex)),
		kind:           dialogue.ParseKind(get(colKind)),
		requiredGlobal: get(colRequiredGlobal),
		requiredLocal:  get(colRequiredLocal),
		resumeID:       get(colResumeCheckpoint),
		setGlobal:      get(colSetGlobal),
		setLocal:       get(colSetLocal),
		speaker:        get(colSpeaker),
		texts:          make(map[string]string),
	}
	for i, lang := range languages {
		if lang == "" {
			continue
		}
		if text := get(colFirstLanguage + i); text != "" {
			rw.texts[lang] = text
		}
	}
	return rw
}

func checkConsistent(first, rw *row) error {
	mismatch := func(field, want, got string) error {
		return &MismatchError{DialogueID: rw.dialogueID, Field: field, Line: rw.line, Want: want, Got: got}
	}
	switch {
	case first.order != rw.order:
		return mismatch("dialogueOrder", strconv.Itoa(first.order), strconv.Itoa(rw.order))
	case first.kind != rw.kind:
		return mismatch("kind", first.kind.String(), rw.kind.String())
	case first.requiredGlobal != rw.requiredGlobal:
		return mismatch("requiredGlobal", first.requiredGlobal, rw.requiredGlobal)
	case first.requiredLocal != rw.requiredLocal:
		return mismatch("requiredLocal", first.requiredLocal, rw.requiredLocal)
	}
	return nil
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
