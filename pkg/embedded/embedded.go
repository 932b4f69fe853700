// Package embedded 提供嵌入数据的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）。
// 本包提供包装函数，让其他包可以检查并取得嵌入的对话脚本目录。
//
// 使用前必须调用 Init() 初始化。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// DataPrefix 嵌入数据的路径前缀
const DataPrefix = "data/"

var errNotInitialized = errors.New("embedded package not initialized, call Init() first")

var (
	dataFS      fs.FS
	initialized bool
)

// Init 设置嵌入数据的文件系统
// 必须在 main() 开始时、任何脚本加载之前调用
//
// 参数：
//   - data: 根目录下包含 "data/" 的文件系统，通常是 embed.FS
func Init(data fs.FS) {
	dataFS = data
	initialized = data != nil
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return initialized
}

// resolve 标准化路径并检查前缀
func resolve(path string) (string, error) {
	if !initialized {
		return "", errNotInitialized
	}

	// 标准化路径分隔符为正斜杠（fs.FS 使用正斜杠）
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")

	if path != "data" && !strings.HasPrefix(path, DataPrefix) {
		return "", fmt.Errorf("unknown resource path prefix: %s (must start with '%s')", path, DataPrefix)
	}
	return path, nil
}

// Exists 检查文件或目录是否存在，路径必须以 "data/" 开头
func Exists(path string) bool {
	path, err := resolve(path)
	if err != nil {
		return false
	}
	_, err = fs.Stat(dataFS, path)
	return err == nil
}

// Sub 返回指定目录的子文件系统
func Sub(dir string) (fs.FS, error) {
	dir, err := resolve(dir)
	if err != nil {
		return nil, err
	}
	return fs.Sub(dataFS, strings.TrimSuffix(dir, "/"))
}
