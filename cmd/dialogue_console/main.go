// dialogue_console 在终端中播放对话，每按一次回车推进一句
//
// 未配置 scriptsDir 时从当前目录下的 data/dialogues 读取脚本，请在项目根目录运行：
//
//	go run ./cmd/dialogue_console -scene wood -speaker wizard
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/decker502/dialogue/pkg/app"
)

var (
	configPath = flag.String("config", "dialogue.yaml", "配置文件路径（.yaml/.toml/.json）")
	scene      = flag.String("scene", "wood", "场景 ID")
	speaker    = flag.String("speaker", "wizard", "说话者 ID")
	all        = flag.Bool("all", false, "连续播放所有可用对话")
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
)

func main() {
	flag.Parse()

	dialogueApp, err := app.New(app.Options{
		ConfigPath: *configPath,
		Verbose:    *verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	player := app.NewConsolePlayer(dialogueApp, os.Stdin, os.Stdout)
	_, playErr := player.Play(*scene, *speaker, *all)
	closeErr := dialogueApp.Close()

	for _, err := range []error{playErr, closeErr} {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
}
