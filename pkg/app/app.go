// Package app 将配置、存档、脚本与对话管理器组装在一起
//
// 该包把初始化逻辑从 main 包提取出来，使其可以被窗口查看器和控制台播放器共用。
// 窗口查看器通过根目录 main.go 调用 New()，控制台播放器通过 cmd/dialogue_console 调用。
package app

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/decker502/dialogue/pkg/checkpoint"
	"github.com/decker502/dialogue/pkg/config"
	"github.com/decker502/dialogue/pkg/dialogue"
	"github.com/decker502/dialogue/pkg/embedded"
	"github.com/decker502/dialogue/pkg/script"
	"github.com/decker502/dialogue/pkg/watcher"
)

// DefaultScriptsDir 未嵌入数据且未配置脚本目录时读取的磁盘目录
const DefaultScriptsDir = "data/dialogues"

// embeddedScriptsDir 嵌入数据中的脚本目录
const embeddedScriptsDir = embedded.DataPrefix + "dialogues"

// Options 定义应用启动选项
type Options struct {
	// ConfigPath 配置文件路径（.yaml/.yml/.toml/.json），文件不存在时使用默认配置
	ConfigPath string
	// Config 直接指定配置，非 nil 时忽略 ConfigPath
	Config *config.Config
	// Verbose 启用详细日志输出
	Verbose bool
}

// App 对话引擎应用
type App struct {
	cfg     *config.Config
	store   checkpoint.Store
	manager *dialogue.Manager
	watcher *watcher.Watcher
}

// New 创建并初始化应用
//
// 如需使用内嵌脚本，调用此函数前必须先调用 embedded.Init()。
func New(opts Options) (*App, error) {
	// 配置日志输出
	if !opts.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("配置加载失败: %w", err)
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	store, err := checkpoint.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("存档打开失败: %w", err)
	}

	a := &App{cfg: cfg, store: store}

	collection, err := a.LoadScripts()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("对话脚本加载失败: %w", err)
	}
	a.manager = dialogue.NewManager(collection, store)
	log.Printf("[App] Loaded %d dialogues, language %s (fallback %s)", collection.Len(), cfg.Language, cfg.FallbackLanguage)

	if cfg.Watch && cfg.ScriptsDir != "" {
		w, err := watcher.New(cfg.ScriptsDir, watcher.DefaultDebounce, a.LoadScripts)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("脚本监视器创建失败: %w", err)
		}
		if err := w.Start(); err != nil {
			w.Stop()
			store.Close()
			return nil, fmt.Errorf("脚本监视器启动失败: %w", err)
		}
		a.watcher = w
	}

	return a, nil
}

// Config 返回生效的配置
func (a *App) Config() *config.Config {
	return a.cfg
}

// Manager 返回对话管理器
func (a *App) Manager() *dialogue.Manager {
	return a.manager
}

// Store 返回存档
func (a *App) Store() checkpoint.Store {
	return a.store
}

// ScriptOptions 返回脚本解析选项
func (a *App) ScriptOptions() script.Options {
	return script.Options{
		Separator: a.cfg.SeparatorRune(),
		Strict:    a.cfg.Strict,
	}
}

// scriptsFS 选择脚本来源：配置的目录 > 内嵌数据 > 工作目录下的 data/dialogues
//
// 嵌入数据中没有脚本目录时回退到磁盘目录。
func (a *App) scriptsFS() (fs.FS, string, error) {
	if a.cfg.ScriptsDir != "" {
		return os.DirFS(a.cfg.ScriptsDir), a.cfg.ScriptsDir, nil
	}
	if embedded.IsInitialized() && embedded.Exists(embeddedScriptsDir) {
		sub, err := embedded.Sub(embeddedScriptsDir)
		if err != nil {
			return nil, "", err
		}
		return sub, "embedded:" + embeddedScriptsDir, nil
	}
	return os.DirFS(DefaultScriptsDir), DefaultScriptsDir, nil
}

// ScriptSource 返回脚本来源的描述（目录路径或 "embedded:data/dialogues"）
func (a *App) ScriptSource() string {
	_, source, err := a.scriptsFS()
	if err != nil {
		return ""
	}
	return source
}

// LoadScripts 按清单加载全部对话脚本
func (a *App) LoadScripts() (*dialogue.Collection, error) {
	fsys, source, err := a.scriptsFS()
	if err != nil {
		return nil, err
	}
	log.Printf("[App] Loading scripts from %s", source)
	return script.LoadManifest(fsys, filepath.ToSlash(a.cfg.Manifest), a.ScriptOptions())
}

// ApplyReloads 应用监视器产生的最新集合（非阻塞）
//
// 返回：
//   - bool: 是否替换了集合
func (a *App) ApplyReloads() bool {
	if a.watcher == nil {
		return false
	}

	applied := false
	for {
		select {
		case r, ok := <-a.watcher.Reloads():
			if !ok {
				return applied
			}
			if r.Err != nil {
				log.Printf("[App] Keeping previous scripts: %v", r.Err)
				continue
			}
			a.manager.SetCollection(r.Collection)
			applied = true
		default:
			return applied
		}
	}
}

// LineText 按配置的语言与回退语言取台词文本
func (a *App) LineText(line *dialogue.Line) string {
	if line == nil {
		return ""
	}
	return line.TextWithFallback(a.cfg.Language, a.cfg.FallbackLanguage)
}

// Save 写回存档
func (a *App) Save() error {
	if !a.store.Dirty() {
		return nil
	}
	if err := a.store.Save(); err != nil {
		return fmt.Errorf("存档保存失败: %w", err)
	}
	log.Printf("[App] Checkpoints saved")
	return nil
}

// Close 停止监视器并关闭存档
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	return a.store.Close()
}
