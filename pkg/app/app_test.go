package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/decker502/dialogue/pkg/config"
	"github.com/decker502/dialogue/pkg/embedded"
)

const sampleScripts = "../../data/dialogues"

// newTestApp 使用仓库自带的示例脚本和内存存档创建应用
func newTestApp(t *testing.T, mutate func(cfg *config.Config)) *App {
	t.Helper()

	if _, err := os.Stat(sampleScripts); err != nil {
		t.Skipf("示例脚本不存在: %v", err)
	}

	cfg := config.Default()
	cfg.ScriptsDir = sampleScripts
	cfg.Storage.Backend = config.BackendMemory
	if mutate != nil {
		mutate(cfg)
	}

	a, err := New(Options{Config: cfg})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// TestNewLoadsSampleScripts 测试加载示例脚本
func TestNewLoadsSampleScripts(t *testing.T) {
	a := newTestApp(t, nil)

	dialogues := a.Manager().Collection().Dialogues("wood", "wizard")
	if len(dialogues) != 3 {
		t.Fatalf("got %d dialogues, want 3", len(dialogues))
	}
	want := []string{"intro", "herb", "idle"}
	for i, d := range dialogues {
		if d.ID != want[i] {
			t.Errorf("dialogue %d = %s, want %s", i, d.ID, want[i])
		}
	}
}

// TestNewInvalidConfig 测试无效配置
func TestNewInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "redis"
	if _, err := New(Options{Config: cfg}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

// TestLineTextLanguage 按配置的语言显示文本
func TestLineTextLanguage(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) { cfg.Language = "ru" })

	session := a.Manager().StartNext("wood", "wizard")
	session.Start()
	line, err := session.CurrentLine()
	if err != nil {
		t.Fatalf("CurrentLine() error: %v", err)
	}
	if got := a.LineText(line); got != "Здравствуй, путник." {
		t.Errorf("LineText() = %q", got)
	}
	if got := a.LineText(nil); got != "" {
		t.Errorf("LineText(nil) = %q", got)
	}
}

// TestConsolePlayer 控制台逐行播放并按存档推进到后续对话
func TestConsolePlayer(t *testing.T) {
	a := newTestApp(t, nil)

	var out bytes.Buffer
	played, err := NewConsolePlayer(a, strings.NewReader("\n\n\n"), &out).Play("wood", "wizard", false)
	if err != nil || played != 1 {
		t.Fatalf("Play() = %d, %v", played, err)
	}
	for _, want := range []string{"--- intro ---", "Wizard: Greetings, traveler.", "Wizard: Bring me a moonherb.", "--- end ---"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if !a.Store().HasLocalCheckpoint("wood", "wizard", "askedHerb") {
		t.Error("askedHerb checkpoint not set")
	}

	// herb 需要 askedHerb，idle 需要 metWizard
	out.Reset()
	played, err = NewConsolePlayer(a, strings.NewReader("\n\n\n\n\n"), &out).Play("wood", "wizard", true)
	if err != nil || played != 2 {
		t.Fatalf("Play(all) = %d, %v\n%s", played, err, out.String())
	}
	if !strings.Contains(out.String(), "--- herb ---") || !strings.Contains(out.String(), "Wizard: Hm?") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	played, _ = NewConsolePlayer(a, strings.NewReader("\n"), &out).Play("wood", "wizard", false)
	if played != 0 || !strings.Contains(out.String(), "No dialogue available") {
		t.Errorf("Play() after all completed = %d, %q", played, out.String())
	}
}

// TestConsolePlayerInputEnds 输入提前结束时保留续接点
func TestConsolePlayerInputEnds(t *testing.T) {
	a := newTestApp(t, nil)

	var out bytes.Buffer
	played, err := NewConsolePlayer(a, strings.NewReader("\n"), &out).Play("wood", "wizard", false)
	if err != nil || played != 0 {
		t.Fatalf("Play() = %d, %v", played, err)
	}

	p := a.Store().DialogueProgress("wood", "wizard", "intro")
	if p.Completed || p.LastResumeCheckpointID != "mid" {
		t.Errorf("progress = %+v, want resume at mid", p)
	}

	// 再次开始时从 mid 所在的行续接
	session := a.Manager().StartNext("wood", "wizard")
	if session == nil || session.LineIndex() != 1 {
		t.Errorf("resumed session = %v", session)
	}
}

// TestViewerAdvance 查看器推进对话
func TestViewerAdvance(t *testing.T) {
	a := newTestApp(t, nil)
	v := NewViewer(a, "wood", "wizard")

	if v.Session() != nil {
		t.Fatal("viewer should start idle")
	}

	v.Advance()
	if v.Session() == nil {
		t.Fatal("Advance() should start a dialogue")
	}
	lines := v.TextLines()
	if len(lines) != 2 || lines[0] != "Wizard:" || lines[1] != "Greetings, traveler." {
		t.Errorf("TextLines() = %q", lines)
	}

	v.Advance()
	v.Advance()
	v.Advance()
	if v.Session() != nil {
		t.Error("session should be cleared after the dialogue ends")
	}
	if v.Status() == "" {
		t.Error("status should prompt for the next dialogue")
	}

	v.Advance()
	if v.Session() == nil || v.Session().Dialogue().ID != "herb" {
		t.Errorf("next dialogue = %v, want herb", v.Session())
	}
}

// TestViewerNothingToSay 没有可用对话时显示提示
func TestViewerNothingToSay(t *testing.T) {
	a := newTestApp(t, nil)
	v := NewViewer(a, "wood", "nobody")

	v.Advance()
	if v.Session() != nil {
		t.Error("expected no session")
	}
	if got := v.TextLines(); len(got) != 1 || !strings.Contains(got[0], "nothing more to say") {
		t.Errorf("TextLines() = %q", got)
	}
}

// TestEmbeddedScripts 未配置脚本目录时使用内嵌数据
func TestEmbeddedScripts(t *testing.T) {
	csv, err := os.ReadFile(filepath.Join(sampleScripts, "scene-wood_npc-wizard-dialog1.csv"))
	if err != nil {
		t.Skipf("示例脚本不存在: %v", err)
	}

	embedded.Init(fstest.MapFS{
		"data/dialogues/scene-wood_npc-wizard-dialog1.csv": {Data: csv},
	})
	t.Cleanup(func() { embedded.Init(nil) })

	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	a, err := New(Options{Config: cfg})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	// 清单缺失时按文件名推断场景与说话者
	if n := len(a.Manager().Collection().Dialogues("wood", "wizard")); n != 3 {
		t.Errorf("got %d dialogues, want 3", n)
	}
	if got := a.ScriptSource(); got != "embedded:data/dialogues" {
		t.Errorf("ScriptSource() = %q", got)
	}
}

// TestEmbeddedWithoutScripts 内嵌数据没有脚本目录时回退到磁盘目录
func TestEmbeddedWithoutScripts(t *testing.T) {
	embedded.Init(fstest.MapFS{
		"data/readme.txt": {Data: []byte("no scripts")},
	})
	t.Cleanup(func() { embedded.Init(nil) })

	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	a, err := New(Options{Config: cfg})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	if got := a.ScriptSource(); got != DefaultScriptsDir {
		t.Errorf("ScriptSource() = %q, want %q", got, DefaultScriptsDir)
	}

	cfg.ScriptsDir = sampleScripts
	if got := a.ScriptSource(); got != sampleScripts {
		t.Errorf("ScriptSource() with scriptsDir = %q, want %q", got, sampleScripts)
	}
}

// TestHotReload 脚本目录变化后替换集合
func TestHotReload(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"manifest.yaml", "scene-wood_npc-wizard-dialog1.csv"} {
		data, err := os.ReadFile(filepath.Join(sampleScripts, name))
		if err != nil {
			t.Skipf("示例脚本不存在: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.ScriptsDir = dir
	cfg.Watch = true
	cfg.Storage.Backend = config.BackendMemory
	a, err := New(Options{Config: cfg})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	owl := "dialogueId;dialogueOrder;lineIndex;kind;requiredGlobal;requiredLocal;resumeCheckpoint;setGlobal;setLocal;speaker;ru;en;fr;es\n" +
		"hoot;0;0;idle;;;;;;Owl;;Hoot.;;\n"
	if err := os.WriteFile(filepath.Join(dir, "scene-wood_npc-owl-1.csv"), []byte(owl), 0644); err != nil {
		t.Fatal(err)
	}
	manifest := "scripts:\n  - file: scene-wood_npc-wizard-dialog1.csv\n  - file: scene-wood_npc-owl-1.csv\n"
	if err := os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	// 两次写入可能被合并为一次加载，也可能分成两次
	deadline := time.Now().Add(5 * time.Second)
	for a.Manager().StartNext("wood", "owl") == nil {
		if time.Now().After(deadline) {
			t.Fatal("owl dialogue should be available after reload")
		}
		a.ApplyReloads()
		time.Sleep(20 * time.Millisecond)
	}

	if n := len(a.Manager().Collection().Dialogues("wood", "wizard")); n != 3 {
		t.Errorf("wizard dialogues after reload = %d, want 3", n)
	}
}
