// Package naming 生成随机的上传文件名，用于隐藏原始文件身份。
package naming

import (
	"math/rand/v2"
	"strings"
)

const (
	MinLength = 7  // 随机名最短长度
	MaxLength = 14 // 随机名最长长度（含）

	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator 随机名生成器。随机源由调用方注入，固定种子即可复现。
// 非并发安全（*rand.Rand 本身不是）。
type Generator struct {
	rnd *rand.Rand
}

// New 使用指定随机源创建 Generator
func New(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// NewSeeded 使用固定种子创建 Generator
func NewSeeded(seed uint64) *Generator {
	return New(NewRand(seed))
}

// NewRand 创建 PCG 随机源，供文件选择和命名共用
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Word 返回长度在 [MinLength, MaxLength] 内均匀分布的纯字母字符串
func (g *Generator) Word() string {
	n := MinLength + g.rnd.IntN(MaxLength-MinLength+1)

	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(Alphabet[g.rnd.IntN(len(Alphabet))])
	}
	return b.String()
}

// FileName 返回随机名 + ext，ext 原样追加（可为空）
func (g *Generator) FileName(ext string) string {
	return g.Word() + ext
}
