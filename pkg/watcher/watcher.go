// Package watcher 监视脚本目录，在脚本或清单变更后重新加载对话集合
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/decker502/dialogue/pkg/dialogue"
)

// DefaultDebounce 最后一次变更后等待的时间
const DefaultDebounce = 300 * time.Millisecond

// LoadFunc 重新加载对话集合
type LoadFunc func() (*dialogue.Collection, error)

// Reload 一次重新加载的结果
type Reload struct {
	Collection *dialogue.Collection
	Err        error
	Trigger    string // 触发加载的最后一个文件
}

// Watcher 监视脚本目录
//
// 变更经过去抖后调用 LoadFunc，结果通过 Reloads() 发布；
// 接收方在自己的 goroutine 中调用 Manager.SetCollection 应用新集合。
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration
	load      LoadFunc

	mu        sync.Mutex
	pending   bool
	lastEvent time.Time
	trigger   string

	reloads chan Reload
	done    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
}

// New 创建监视器
//
// 参数：
//   - dir: 脚本目录
//   - debounce: 去抖时间，<= 0 时使用 DefaultDebounce
//   - load: 重新加载函数
func New(dir string, debounce time.Duration, load LoadFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		dir:       dir,
		debounce:  debounce,
		load:      load,
		reloads:   make(chan Reload, 1),
		done:      make(chan struct{}),
	}, nil
}

// Dir 返回监视的目录
func (w *Watcher) Dir() string {
	return w.dir
}

// Reloads 返回重新加载结果的通道，Stop() 后关闭
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

// Start 开始监视
func (w *Watcher) Start() error {
	absDir, err := filepath.Abs(w.dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absDir); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(absDir); err != nil {
		return err
	}

	log.Printf("[ScriptWatcher] Watching %s (debounce %v)", absDir, w.debounce)

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop 停止监视，可重复调用
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		close(w.done)
		w.wg.Wait()
		close(w.reloads)
		err = w.fsWatcher.Close()
	})
	return err
}

// IsScriptFile 判断文件变更是否需要重新加载
func IsScriptFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".yaml", ".yml":
		return true
	}
	return false
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !IsScriptFile(event.Name) {
				continue
			}

			w.mu.Lock()
			w.pending = true
			w.lastEvent = time.Now()
			w.trigger = event.Name
			w.mu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[ScriptWatcher] Warning: %v", err)
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	interval := w.debounce / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case now := <-ticker.C:
			w.mu.Lock()
			ready := w.pending && now.Sub(w.lastEvent) >= w.debounce
			trigger := w.trigger
			if ready {
				w.pending = false
			}
			w.mu.Unlock()

			if ready {
				w.reload(trigger)
			}
		}
	}
}

func (w *Watcher) reload(trigger string) {
	collection, err := w.load()
	if err != nil {
		log.Printf("[ScriptWatcher] Reload after %s failed: %v", filepath.Base(trigger), err)
	} else if collection != nil {
		log.Printf("[ScriptWatcher] Reloaded %d dialogues after %s changed", collection.Len(), filepath.Base(trigger))
	}

	result := Reload{Collection: collection, Err: err, Trigger: trigger}

	// 只保留最新结果
	select {
	case w.reloads <- result:
	default:
		select {
		case <-w.reloads:
		default:
		}
		select {
		case w.reloads <- result:
		case <-w.done:
		}
	}
}
