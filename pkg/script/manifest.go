package script

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/decker502/dialogue/pkg/dialogue"
)

// ManifestEntry 清单中的一个脚本
type ManifestEntry struct {
	Scene   string `yaml:"scene,omitempty"`
	Speaker string `yaml:"speaker,omitempty"`
	File    string `yaml:"file"`
}

// Manifest 脚本清单
//
// 文件路径相对于清单所在目录。scene/speaker 省略时从文件名推断，
// 文件名约定为 scene-<scene>_npc-<speaker>-<任意>.csv。
type Manifest struct {
	Scripts []ManifestEntry `yaml:"scripts"`
}

// ParseManifest 解析 YAML 清单
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse script manifest: %w", err)
	}
	for i, e := range m.Scripts {
		if e.File == "" {
			return nil, fmt.Errorf("script manifest entry %d: file is required", i)
		}
	}
	return &m, nil
}

// ParseScriptName 从文件名推断场景与说话者
//
// 例如 "scene-wood_npc-wizard-dialog1.csv" -> ("wood", "wizard", true)。
func ParseScriptName(name string) (sceneID, speakerID string, ok bool) {
	base := path.Base(name)
	if !strings.EqualFold(path.Ext(base), ".csv") {
		return "", "", false
	}
	base = strings.TrimSuffix(base, path.Ext(base))

	rest, found := strings.CutPrefix(base, "scene-")
	if !found {
		return "", "", false
	}
	sceneID, rest, found = strings.Cut(rest, "_npc-")
	if !found || sceneID == "" {
		return "", "", false
	}
	speakerID, _, _ = strings.Cut(rest, "-")
	if speakerID == "" {
		return "", "", false
	}
	return sceneID, speakerID, true
}

// LoadManifest 按清单加载全部脚本
//
// 清单文件不存在时，扫描清单所在目录下符合命名约定的 .csv 文件。
//
// 参数：
//   - fsys: 文件系统
//   - manifestPath: 清单路径，例如 "dialogues/manifest.yaml"
//   - opts: 解析选项
//
// 返回：
//   - *dialogue.Collection: 加载的对话集合
//   - error: 清单或任一脚本加载失败
func LoadManifest(fsys fs.FS, manifestPath string, opts Options) (*dialogue.Collection, error) {
	dir := path.Dir(manifestPath)

	m, err := readManifest(fsys, manifestPath)
	if err != nil {
		return nil, err
	}

	c := dialogue.NewCollection()
	for _, e := range m.Scripts {
		file := path.Join(dir, e.File)
		scene, speaker := e.Scene, e.Speaker
		if scene == "" || speaker == "" {
			inferredScene, inferredSpeaker, ok := ParseScriptName(file)
			if !ok {
				return nil, fmt.Errorf("script %s: scene/speaker missing and file name does not follow scene-<scene>_npc-<speaker>-*.csv", file)
			}
			if scene == "" {
				scene = inferredScene
			}
			if speaker == "" {
				speaker = inferredSpeaker
			}
		}
		if _, err := LoadFile(c, fsys, file, scene, speaker, opts); err != nil {
			return nil, err
		}
	}

	log.Printf("[ScriptLoader] Loaded %d dialogues from %d scripts", c.Len(), len(m.Scripts))
	return c, nil
}

func readManifest(fsys fs.FS, manifestPath string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, manifestPath)
	if err == nil {
		return ParseManifest(data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read script manifest: %w", err)
	}

	dir := path.Dir(manifestPath)
	matches, err := fs.Glob(fsys, path.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts in %s: %w", dir, err)
	}

	m := &Manifest{}
	for _, match := range matches {
		if _, _, ok := ParseScriptName(match); !ok {
			log.Printf("[ScriptLoader] Warning: skipping %s (name does not follow scene-<scene>_npc-<speaker>-*.csv)", match)
			continue
		}
		m.Scripts = append(m.Scripts, ManifestEntry{File: path.Base(match)})
	}
	log.Printf("[ScriptLoader] No manifest at %s, found %d scripts by name", manifestPath, len(m.Scripts))
	return m, nil
}
