package app

import (
	"bufio"
	"fmt"
	"io"

	"github.com/decker502/dialogue/pkg/dialogue"
)

// ConsolePlayer 在终端中播放对话，每读到一行输入推进一句
type ConsolePlayer struct {
	app *App
	in  *bufio.Scanner
	out io.Writer
}

// NewConsolePlayer 创建控制台播放器
func NewConsolePlayer(a *App, in io.Reader, out io.Writer) *ConsolePlayer {
	return &ConsolePlayer{app: a, in: bufio.NewScanner(in), out: out}
}

// Play 播放指定场景与说话者的下一段对话
//
// 参数：
//   - sceneID, speakerID: 场景与说话者
//   - all: 为 true 时连续播放，直到没有可用对话或输入结束
//
// 返回：
//   - int: 播放完成的对话数
//   - error: 存档保存失败
func (p *ConsolePlayer) Play(sceneID, speakerID string, all bool) (int, error) {
	played := 0
	for {
		session := p.app.Manager().StartNext(sceneID, speakerID)
		if session == nil {
			if played == 0 {
				fmt.Fprintf(p.out, "No dialogue available for %s/%s\n", sceneID, speakerID)
			}
			break
		}

		if !p.run(session) {
			break
		}
		played++
		if !all {
			break
		}
	}
	return played, p.app.Save()
}

// run 播放一段对话，输入结束时返回 false
func (p *ConsolePlayer) run(session *dialogue.Session) bool {
	session.OnStart(func(s *dialogue.Session) {
		fmt.Fprintf(p.out, "--- %s ---\n", s.Dialogue().ID)
	})
	session.OnLineChange(func(s *dialogue.Session, line *dialogue.Line) {
		if line.Speaker != "" {
			fmt.Fprintf(p.out, "%s: %s\n", line.Speaker, p.app.LineText(line))
		} else {
			fmt.Fprintln(p.out, p.app.LineText(line))
		}
	})
	session.OnEnd(func(s *dialogue.Session) {
		fmt.Fprintln(p.out, "--- end ---")
	})

	session.Start()
	for !session.IsCompleted() {
		if !p.in.Scan() {
			return false
		}
		if _, err := session.Advance(); err != nil {
			fmt.Fprintf(p.out, "error: %v\n", err)
			return false
		}
	}
	return true
}
