// Package artifact 负责扫描本地待上传的文件（artifact）。
// 文件集合在启动时采集一次，运行期间不刷新。
package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Artifact 一个待上传的普通文件
type Artifact struct {
	Path string
}

// Base 返回文件名（不含目录）
func (a Artifact) Base() string {
	return filepath.Base(a.Path)
}

// Ext 返回扩展名（含前导 "."），无扩展名时返回空字符串。
// 文件名开头连续的 "." 不算扩展名分隔符：".bashrc"、"..bashrc" 无扩展名，
// ".x.txt" 的扩展名为 ".txt"。
func (a Artifact) Ext() string {
	stem := strings.TrimLeft(a.Base(), ".")
	return filepath.Ext(stem)
}

func (a Artifact) String() string {
	return a.Path
}

// List 递归扫描 root，返回所有普通文件，结果按路径排序。
// root 不存在或为空目录时返回空列表且不报错，由调用方检查。
// 指向普通文件的符号链接计入结果，目录本身不计入。
func List(root string) ([]Artifact, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat artifacts directory %s: %w", root, err)
	}
	if info.Mode().IsRegular() {
		return []Artifact{{Path: root}}, nil
	}

	var artifacts []Artifact
	// 无法读取的子目录直接跳过
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if isRegular(path, d) {
			artifacts = append(artifacts, Artifact{Path: path})
		}
		return nil
	})

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Path < artifacts[j].Path
	})
	return artifacts, nil
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	// 符号链接：跟随后判断目标类型
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Paths 返回所有 artifact 的路径
func Paths(artifacts []Artifact) []string {
	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		paths[i] = a.Path
	}
	return paths
}
