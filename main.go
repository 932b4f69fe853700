package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/dialogue/pkg/app"
	"github.com/decker502/dialogue/pkg/embedded"
)

var (
	configPath = flag.String("config", "dialogue.yaml", "配置文件路径（.yaml/.toml/.json）")
	scene      = flag.String("scene", "wood", "场景 ID")
	speaker    = flag.String("speaker", "wizard", "说话者 ID")
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
)

func main() {
	flag.Parse()

	// 初始化嵌入数据
	embedded.Init(dataFS)

	dialogueApp, err := app.New(app.Options{
		ConfigPath: *configPath,
		Verbose:    *verbose,
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	log.Printf("[Main] Scripts from %s", dialogueApp.ScriptSource())

	viewer := app.NewViewer(dialogueApp, *scene, *speaker)

	ebiten.SetWindowSize(app.ScreenWidth*2, app.ScreenHeight*2)
	ebiten.SetWindowTitle("Dialogue - " + *scene + "/" + *speaker)

	runErr := ebiten.RunGame(viewer)

	// 窗口关闭时保存存档
	if err := dialogueApp.Close(); err != nil {
		log.Printf("[Main] %v", err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}
