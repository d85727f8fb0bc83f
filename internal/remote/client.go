// Package remote 封装文件传输协议客户端（FTP / SFTP）。
// 上层只依赖 Client 接口：login → store... → close，便于 mock 测试。
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	ProtocolFTP  = "ftp"
	ProtocolSFTP = "sftp"

	DefaultFTPPort  = 21
	DefaultSFTPPort = 22

	DefaultDialTimeout = 30 * time.Second
)

var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrNotLoggedIn         = errors.New("not logged in")
)

// Client 抽象一条已建立的传输连接，支持 mock 测试
type Client interface {
	Login(user, password string) error
	Store(name string, r io.Reader) error
	Close() error
}

// DialFunc 建立到 addr（host:port）的连接，尚未认证
type DialFunc func(ctx context.Context, addr string) (Client, error)

// Protocols 返回支持的协议名
func Protocols() []string {
	return []string{ProtocolFTP, ProtocolSFTP}
}

// DialFuncFor 根据协议名返回对应的 DialFunc
func DialFuncFor(protocol string, timeout time.Duration) (DialFunc, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	switch strings.ToLower(protocol) {
	case ProtocolFTP:
		return NewFTPDialFunc(timeout), nil
	case ProtocolSFTP:
		return NewSFTPDialFunc(timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedProtocol, protocol, strings.Join(Protocols(), ", "))
	}
}

// DefaultPort 返回协议默认端口，未知协议返回 0
func DefaultPort(protocol string) int {
	switch strings.ToLower(protocol) {
	case ProtocolFTP:
		return DefaultFTPPort
	case ProtocolSFTP:
		return DefaultSFTPPort
	default:
		return 0
	}
}

// Address 拼接 host:port，port 为 0 时使用协议默认端口。
// host 已带端口时原样返回。
func Address(host string, port int, protocol string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	if port == 0 {
		port = DefaultPort(protocol)
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
