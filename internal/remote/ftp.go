package remote

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

// ftpClient 真实 FTP 客户端实现（被动模式）
type ftpClient struct {
	conn *ftp.ServerConn
}

// NewFTPDialFunc 创建真实 FTP 连接的 DialFunc
func NewFTPDialFunc(timeout time.Duration) DialFunc {
	return func(ctx context.Context, addr string) (Client, error) {
		conn, err := ftp.Dial(addr,
			ftp.DialWithContext(ctx),
			ftp.DialWithTimeout(timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("ftp dial %s: %w", addr, err)
		}
		return &ftpClient{conn: conn}, nil
	}
}

func (c *ftpClient) Login(user, password string) error {
	if err := c.conn.Login(user, password); err != nil {
		return fmt.Errorf("ftp login as %s: %w", user, err)
	}
	return nil
}

// Store 以 STOR 命令上传 r 的全部内容
func (c *ftpClient) Store(name string, r io.Reader) error {
	if err := c.conn.Stor(name, r); err != nil {
		return fmt.Errorf("ftp STOR %s: %w", name, err)
	}
	return nil
}

// Close 发送 QUIT 并关闭控制连接
func (c *ftpClient) Close() error {
	return c.conn.Quit()
}
