package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// AdvanceKeys 推进对话的按键
var AdvanceKeys = []ebiten.Key{ebiten.KeySpace, ebiten.KeyEnter, ebiten.KeyNumpadEnter}

// IsJustTouchedOrClicked 检查是否刚刚发生点击或触摸
// 返回是否点击以及点击位置
func IsJustTouchedOrClicked() (bool, int, int) {
	// 检查触摸
	touchIDs := inpututil.AppendJustPressedTouchIDs(nil)
	if len(touchIDs) > 0 {
		x, y := ebiten.TouchPosition(touchIDs[0])
		return true, x, y
	}

	// 检查鼠标
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		return true, x, y
	}

	return false, 0, 0
}

// IsAdvanceJustPressed 检查本帧是否请求推进对话（点击、触摸或 AdvanceKeys）
func IsAdvanceJustPressed() bool {
	if pressed, _, _ := IsJustTouchedOrClicked(); pressed {
		return true
	}
	for _, key := range AdvanceKeys {
		if inpututil.IsKeyJustPressed(key) {
			return true
		}
	}
	return false
}
