package remote

// sftp.go 提供 SFTP 的真实实现：先建立 TCP 连接，Login 时完成 SSH 握手
// （密码认证）并打开 sftp 子系统，与 FTP 的 connect/login 两阶段保持一致。

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// realSFTPClient 真实 SFTP 客户端实现
type realSFTPClient struct {
	addr    string
	timeout time.Duration
	conn    net.Conn

	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

// NewSFTPDialFunc 创建真实 SFTP 连接的 DialFunc
func NewSFTPDialFunc(timeout time.Duration) DialFunc {
	return func(ctx context.Context, addr string) (Client, error) {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("sftp dial %s: %w", addr, err)
		}
		return &realSFTPClient{addr: addr, timeout: timeout, conn: conn}, nil
	}
}

// Login 完成 SSH 握手并打开 sftp 子系统。
// 同时提供 password 和 keyboard-interactive 两种方式，兼容只开启后者的服务端。
func (c *realSFTPClient) Login(user, password string) error {
	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.timeout,
	}

	if c.conn == nil {
		return net.ErrClosed
	}

	// 握手阶段设置超时，之后清除
	_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(c.conn, c.addr, config)
	if err != nil {
		// 握手失败时 NewClientConn 已关闭底层连接
		c.conn = nil
		return fmt.Errorf("ssh handshake as %s: %w", user, err)
	}
	_ = c.conn.SetDeadline(time.Time{})
	c.sshClient = ssh.NewClient(sshConn, chans, reqs)

	sftpConn, err := sftp.NewClient(c.sshClient)
	if err != nil {
		return fmt.Errorf("open sftp subsystem: %w", err)
	}
	c.sftpClient = sftpConn
	return nil
}

// Store 创建（覆盖）远程文件并写入 r 的全部内容
func (c *realSFTPClient) Store(name string, r io.Reader) error {
	if c.sftpClient == nil {
		return ErrNotLoggedIn
	}

	f, err := c.sftpClient.Create(name)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write remote file %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close remote file %s: %w", name, err)
	}
	return nil
}

func (c *realSFTPClient) Close() error {
	if c.sftpClient != nil {
		c.sftpClient.Close()
	}
	if c.sshClient != nil {
		return c.sshClient.Close()
	}
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
