// prompt.go 提供 CLI 交互式密码输入（终端下不回显）。
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter 封装 CLI 交互式输入，通过 reader/writer 抽象支持 mock 测试
type Prompter struct {
	reader  io.Reader
	writer  io.Writer
	scanner *bufio.Scanner
}

// NewPrompter 创建 Prompter（指定输入输出流）
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	return &Prompter{
		reader:  reader,
		writer:  writer,
		scanner: bufio.NewScanner(reader),
	}
}

// PromptPassword 密码输入，终端模式下不回显。
// 非终端模式（如管道、测试 mock）退化为普通文本读取。
func (p *Prompter) PromptPassword(message string) (string, error) {
	fmt.Fprint(p.writer, message)

	if f, ok := p.reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.writer)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	return p.readLine()
}

func (p *Prompter) readLine() (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}
