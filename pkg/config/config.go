package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// 存储后端名称
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendGdata  = "gdata"
	BackendSQLite = "sqlite"
)

// Config 对话引擎配置
//
// 来源优先级：环境变量 > 配置文件 > 默认值。
type Config struct {
	// Language 显示语言代码，如 "ru"
	Language string `yaml:"language" toml:"language" env:"DIALOGUE_LANGUAGE"`

	// FallbackLanguage 当前语言缺失时的回退语言，默认 "en"
	FallbackLanguage string `yaml:"fallbackLanguage" toml:"fallback_language" env:"DIALOGUE_FALLBACK_LANGUAGE"`

	// Separator 脚本字段分隔符，默认 ";"
	Separator string `yaml:"separator" toml:"separator" env:"DIALOGUE_SEPARATOR"`

	// Strict 同一对话的多行元数据不一致时报错（默认以首行为准）
	Strict bool `yaml:"strict" toml:"strict" env:"DIALOGUE_STRICT"`

	// ScriptsDir 脚本目录；为空时使用内嵌的 data/dialogues
	ScriptsDir string `yaml:"scriptsDir" toml:"scripts_dir" env:"DIALOGUE_SCRIPTS_DIR"`

	// Manifest 脚本清单文件名（相对于脚本目录）
	Manifest string `yaml:"manifest" toml:"manifest" env:"DIALOGUE_MANIFEST"`

	// Watch 监听脚本目录变化并热重载（仅 ScriptsDir 非空时有效）
	Watch bool `yaml:"watch" toml:"watch" env:"DIALOGUE_WATCH"`

	Storage Storage `yaml:"storage" toml:"storage" envPrefix:"DIALOGUE_STORAGE_"`
}

// Storage 存档后端配置
type Storage struct {
	// Backend 存储后端："memory"、"file"、"gdata"、"sqlite"
	Backend string `yaml:"backend" toml:"backend" env:"BACKEND"`

	// Path 文件或数据库路径（file / sqlite 使用）
	Path string `yaml:"path" toml:"path" env:"PATH"`

	// AppName gdata 应用名（gdata 使用）
	AppName string `yaml:"appName" toml:"app_name" env:"APP_NAME"`

	// Profile 存档档案名（gdata 使用）
	Profile string `yaml:"profile" toml:"profile" env:"PROFILE"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Language:         "en",
		FallbackLanguage: "en",
		Separator:        ";",
		Manifest:         "manifest.yaml",
		Storage: Storage{
			Backend: BackendFile,
			AppName: "dialogue_engine",
			Profile: "default",
		},
	}
}

// Load 加载配置文件
//
// 参数：
//   - path: 配置文件路径，按扩展名选择格式（.yaml/.yml、.toml、.json）；
//     为空或文件不存在时使用默认配置
//
// 返回：
//   - *Config: 应用了环境变量覆盖和默认值、并通过校验的配置
//   - error: 读取、解析或校验失败
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// 文件不存在，使用默认配置
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// decode 按扩展名解析配置内容
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	}
	return nil
}

// applyDefaults 为缺失的可选字段设置默认值，并规范化语言代码
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.FallbackLanguage == "" {
		cfg.FallbackLanguage = def.FallbackLanguage
	}
	if cfg.Language == "" {
		cfg.Language = cfg.FallbackLanguage
	}
	if cfg.Separator == "" {
		cfg.Separator = def.Separator
	}
	if cfg.Manifest == "" {
		cfg.Manifest = def.Manifest
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = def.Storage.Backend
	}
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	if cfg.Storage.AppName == "" {
		cfg.Storage.AppName = def.Storage.AppName
	}
	if cfg.Storage.Profile == "" {
		cfg.Storage.Profile = def.Storage.Profile
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Backend {
		case BackendSQLite:
			cfg.Storage.Path = filepath.Join("saves", "checkpoints.db")
		case BackendFile:
			cfg.Storage.Path = filepath.Join("saves", "checkpoints.yaml")
		}
	}

	cfg.Language = NormalizeLanguage(cfg.Language)
	cfg.FallbackLanguage = NormalizeLanguage(cfg.FallbackLanguage)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("language %q: %w", c.Language, err)
	}
	if _, err := language.Parse(c.FallbackLanguage); err != nil {
		return fmt.Errorf("fallbackLanguage %q: %w", c.FallbackLanguage, err)
	}

	if utf8.RuneCountInString(c.Separator) != 1 {
		return fmt.Errorf("separator must be a single character, got %q", c.Separator)
	}
	// 脚本按行切分，换行符不能作为列分隔符
	if r := c.SeparatorRune(); r == '\r' || r == '\n' || r == utf8.RuneError {
		return fmt.Errorf("invalid separator %q", c.Separator)
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendGdata:
	case BackendFile, BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage backend %s requires a path", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Watch && c.ScriptsDir == "" {
		return fmt.Errorf("watch requires scriptsDir")
	}

	return nil
}

// SeparatorRune 返回分隔符字符
func (c *Config) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Separator)
	return r
}

// NormalizeLanguage 规范化语言代码（如 "EN" → "en"、"pt_br" → "pt-BR"）
//
// 无法解析的代码原样返回（去除首尾空白），由 Validate 报告。
func NormalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	return tag.String()
}
