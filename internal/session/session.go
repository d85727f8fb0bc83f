// Package session 执行一次完整的上传会话：
// 连接 → 认证 → 循环 N 次（随机选文件、随机命名、上传、随机等待）→ 断开。
// 全程单线程顺序执行，任何错误不重试，直接结束会话并返回给调用方。
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hwuu/ftpstorm/internal/artifact"
	"github.com/hwuu/ftpstorm/internal/config"
	"github.com/hwuu/ftpstorm/internal/naming"
	"github.com/hwuu/ftpstorm/internal/remote"
)

var (
	ErrNoArtifacts = errors.New("no artifacts to upload")
	ErrConnect     = errors.New("connect failed")
	ErrAuth        = errors.New("authentication failed")
	ErrTransfer    = errors.New("transfer failed")
)

// TransferError 第 Iteration 次（从 1 开始）上传失败
type TransferError struct {
	Iteration int
	Source    string
	Name      string
	Err       error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload #%d (%s as %s): %v", e.Iteration, e.Source, e.Name, e.Err)
}

// Unwrap 同时匹配 ErrTransfer 和底层错误
func (e *TransferError) Unwrap() []error {
	return []error{ErrTransfer, e.Err}
}

// Event 一次上传的结果，汇报给操作者后丢弃
type Event struct {
	Iteration int
	Source    artifact.Artifact
	Name      string
	Bytes     int64
	Delay     time.Duration // 距下一次上传的等待时间，最后一次为 0
	Last      bool
}

// Summary 会话统计
type Summary struct {
	Uploads int
	Bytes   int64
}

// SleepFunc 阻塞 d，ctx 取消时提前返回
type SleepFunc func(ctx context.Context, d time.Duration) error

// OpenFunc 以只读方式打开源文件
type OpenFunc func(path string) (io.ReadCloser, error)

// Runner 上传会话编排器，通过依赖注入支持测试
type Runner struct {
	Dial      remote.DialFunc
	Config    config.Config
	Artifacts []artifact.Artifact
	Rand      *rand.Rand        // 文件选择和等待时间共用；nil 时按 Config.Seed 创建
	Names     *naming.Generator // nil 时使用 Rand 创建
	Sleep     SleepFunc         // nil 时使用 SleepContext
	Open      OpenFunc          // nil 时使用 os.Open
	Output    io.Writer         // 上传记录，nil 时丢弃
	Logger    *zerolog.Logger   // 诊断日志，nil 时丢弃
}

func (r *Runner) withDefaults() {
	if r.Rand == nil {
		r.Rand = naming.NewRand(r.Config.SeedOrNow())
	}
	if r.Names == nil {
		r.Names = naming.New(r.Rand)
	}
	if r.Sleep == nil {
		r.Sleep = SleepContext
	}
	if r.Open == nil {
		r.Open = func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		}
	}
	if r.Output == nil {
		r.Output = io.Discard
	}
	if r.Logger == nil {
		nop := zerolog.Nop()
		r.Logger = &nop
	}
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.Output, format, args...)
}

// Run 执行一次会话。连接在所有返回路径上都会关闭。
// 返回的 Summary 包含出错前已完成的上传。
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.withDefaults()

	var summary Summary
	if len(r.Artifacts) == 0 {
		return summary, ErrNoArtifacts
	}

	addr := r.Config.Address()
	r.Logger.Debug().Str("addr", addr).Str("protocol", r.Config.Protocol).Msg("connecting")

	client, err := r.Dial(ctx, addr)
	if err != nil {
		return summary, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			r.Logger.Warn().Err(err).Str("addr", addr).Msg("failed to close connection")
		}
	}()

	if err := client.Login(r.Config.User, r.Config.Password); err != nil {
		return summary, fmt.Errorf("%w: %s@%s: %w", ErrAuth, r.Config.User, addr, err)
	}
	r.Logger.Debug().Str("user", r.Config.User).Int("artifacts", len(r.Artifacts)).Msg("logged in")

	n := r.Config.NumberOfFiles
	for i := 1; i <= n; i++ {
		event, err := r.uploadOne(client, i)
		if err != nil {
			return summary, err
		}
		summary.Uploads++
		summary.Bytes += event.Bytes

		event.Last = i == n
		if !event.Last {
			event.Delay = r.nextDelay()
		}
		r.report(event)

		if event.Last {
			break
		}
		if err := r.Sleep(ctx, event.Delay); err != nil {
			return summary, fmt.Errorf("interrupted after %d uploads: %w", summary.Uploads, err)
		}
	}

	return summary, nil
}

// uploadOne 随机选择一个文件，以随机名（保留扩展名）上传
func (r *Runner) uploadOne(client remote.Client, iteration int) (Event, error) {
	src := r.Artifacts[r.Rand.IntN(len(r.Artifacts))]
	name := r.Names.FileName(src.Ext())

	event := Event{Iteration: iteration, Source: src, Name: name}

	f, err := r.Open(src.Path)
	if err != nil {
		return event, &TransferError{Iteration: iteration, Source: src.Path, Name: name, Err: err}
	}
	defer f.Close()

	cr := &countingReader{r: f}
	if err := client.Store(name, cr); err != nil {
		return event, &TransferError{Iteration: iteration, Source: src.Path, Name: name, Err: err}
	}
	event.Bytes = cr.n

	r.Logger.Debug().
		Int("iteration", iteration).
		Str("source", src.Path).
		Str("name", name).
		Int64("bytes", cr.n).
		Msg("stored")
	return event, nil
}

// nextDelay 返回 [MinSleep, MaxSleep] 秒内均匀分布的整数秒
func (r *Runner) nextDelay() time.Duration {
	lo, hi := r.Config.MinSleep, r.Config.MaxSleep
	if hi <= lo {
		return time.Duration(lo) * time.Second
	}
	return time.Duration(lo+r.Rand.IntN(hi-lo+1)) * time.Second
}

func (r *Runner) report(e Event) {
	if e.Last {
		r.printf("Uploaded %s as %s\n", e.Source.Path, e.Name)
		return
	}
	r.printf("Uploaded %s as %s, waiting %d seconds\n", e.Source.Path, e.Name, int(e.Delay/time.Second))
}

// SleepContext 等待 d，ctx 取消时立即返回 ctx.Err()
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
