package app

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/dialogue/pkg/dialogue"
	"github.com/decker502/dialogue/pkg/utils"
)

// 查看器逻辑尺寸
const (
	ScreenWidth  = 640
	ScreenHeight = 360

	textMargin = 16
	boxHeight  = 120
)

var (
	backgroundColor = color.RGBA{R: 34, G: 49, B: 40, A: 255}
	boxColor        = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Viewer 对话查看器，实现 ebiten.Game 接口
//
// 点击、触摸、空格或回车推进对话；当前对话结束后再次推进会开始下一段。
type Viewer struct {
	app       *App
	sceneID   string
	speakerID string

	session *dialogue.Session
	line    *dialogue.Line
	status  string

	box *ebiten.Image
}

// NewViewer 创建查看器
func NewViewer(a *App, sceneID, speakerID string) *Viewer {
	return &Viewer{
		app:       a,
		sceneID:   sceneID,
		speakerID: speakerID,
		status:    "Click or press Space to talk",
	}
}

// Session 返回当前会话，没有进行中的对话时为 nil
func (v *Viewer) Session() *dialogue.Session {
	return v.session
}

// Status 返回状态提示
func (v *Viewer) Status() string {
	return v.status
}

// Advance 推进对话；没有进行中的对话时开始下一段
func (v *Viewer) Advance() {
	if v.session != nil {
		if _, err := v.session.Advance(); err != nil {
			log.Printf("[DialogueViewer] Advance failed: %v", err)
		}
		return
	}

	session := v.app.Manager().StartNext(v.sceneID, v.speakerID)
	if session == nil {
		v.line = nil
		v.status = fmt.Sprintf("%s has nothing more to say", v.speakerID)
		return
	}

	session.OnLineChange(func(s *dialogue.Session, line *dialogue.Line) {
		v.line = line
	})
	session.OnEnd(func(s *dialogue.Session) {
		v.session = nil
		v.line = nil
		v.status = "Click or press Space to talk"
		if err := v.app.Save(); err != nil {
			log.Printf("[DialogueViewer] %v", err)
		}
	})

	v.session = session
	v.status = ""
	session.Start()
}

// TextLines 返回当前要显示的文本行（已换行）
func (v *Viewer) TextLines() []string {
	if v.line == nil {
		return []string{v.status}
	}

	maxWidth := ScreenWidth - 2*textMargin
	var lines []string
	if v.line.Speaker != "" {
		lines = append(lines, v.line.Speaker+":")
	}
	return append(lines, utils.WrapText(v.app.LineText(v.line), maxWidth, utils.DebugTextWidth)...)
}

// Update 更新查看器逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	// 热重载：对话进行中也可以替换集合，当前会话继续使用旧对话
	v.app.ApplyReloads()

	if utils.IsAdvanceJustPressed() {
		v.Advance()
	}
	return nil
}

// Draw 绘制对话框
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	top := ScreenHeight - boxHeight - textMargin
	if v.box == nil {
		v.box = ebiten.NewImage(ScreenWidth-2*textMargin+8, boxHeight)
		v.box.Fill(boxColor)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(textMargin-4), float64(top))
	screen.DrawImage(v.box, op)

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s / %s", v.sceneID, v.speakerID), textMargin, textMargin)
	for i, line := range v.TextLines() {
		ebitenutil.DebugPrintAt(screen, line, textMargin, top+8+i*utils.DebugLineHeight)
	}
}

// Layout 返回查看器的逻辑屏幕尺寸
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}
