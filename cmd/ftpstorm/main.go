package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hwuu/ftpstorm/internal/artifact"
	"github.com/hwuu/ftpstorm/internal/config"
	"github.com/hwuu/ftpstorm/internal/remote"
	"github.com/hwuu/ftpstorm/internal/session"
)

// 构建时通过 ldflags 注入
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// DialFactory 按协议创建 DialFunc（测试时替换为 mock）
type DialFactory func(protocol string, timeout time.Duration) (remote.DialFunc, error)

// app 保存一次命令执行所需的配置和依赖
type app struct {
	cfg         config.Config
	askPassword bool
	verbose     bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	dialFor DialFactory
	sleep   session.SleepFunc
}

func newApp(cfg config.Config) *app {
	return &app{
		cfg:     cfg,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		dialFor: remote.DialFuncFor,
	}
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().
		Logger()
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ftpstorm",
		Short: "Select random files from artifact directory and upload them to ftp server",
		Long: "ftpstorm uploads randomly chosen files from a local directory to an FTP/SFTP server\n" +
			"under random names, waiting a random interval between uploads.\n\n" +
			"Every flag can also be set through a " + config.EnvPrefix + "* environment variable\n" +
			"(e.g. " + config.EnvPrefix + "FTP_SERVER) or a .env file in the working directory.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&a.cfg.ArtifactsDir, "artifacts", "a", a.cfg.ArtifactsDir, "Directory of artifacts to upload")
	flags.StringVarP(&a.cfg.Host, "ftp-server", "f", a.cfg.Host, "Hostname or ip of the FTP server")
	flags.StringVarP(&a.cfg.User, "user", "u", a.cfg.User, "Username of the FTP server")
	flags.StringVarP(&a.cfg.Password, "password", "p", a.cfg.Password, "Password of the FTP server")
	flags.IntVarP(&a.cfg.NumberOfFiles, "number-of-files", "n", a.cfg.NumberOfFiles, "Number of files to upload")
	flags.IntVar(&a.cfg.MinSleep, "min-sleep", a.cfg.MinSleep, "Min time to wait between uploads (seconds)")
	flags.IntVar(&a.cfg.MaxSleep, "max-sleep", a.cfg.MaxSleep, "Max time to wait between uploads (seconds)")
	flags.StringVar(&a.cfg.Protocol, "protocol", a.cfg.Protocol, "Transfer protocol: "+strings.Join(remote.Protocols(), ", "))
	flags.IntVar(&a.cfg.Port, "port", a.cfg.Port, "Server port (0 = protocol default)")
	flags.DurationVar(&a.cfg.DialTimeout, "timeout", a.cfg.DialTimeout, "Connect and login timeout")
	flags.Uint64Var(&a.cfg.Seed, "seed", a.cfg.Seed, "Random seed for reproducible sessions (0 = time based)")
	flags.BoolVar(&a.askPassword, "ask-password", false, "Prompt for the password instead of using --password")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ftpstorm %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
		},
	}
}

// run 列出 artifact 并执行一次上传会话。
// 目录为空时只打印提示，不连接服务端。
func (a *app) run(ctx context.Context) error {
	logger := newLogger(a.stderr, a.verbose)

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	artifacts, err := artifact.List(a.cfg.ArtifactsDir)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Fprintf(a.stdout, "%s directory have no files ...\n", a.cfg.ArtifactsDir)
		return nil
	}

	// 配置和 artifact 都确认无误后才询问密码
	if a.askPassword {
		prompter := config.NewPrompter(a.stdin, a.stderr)
		password, err := prompter.PromptPassword(fmt.Sprintf("Password for %s@%s: ", a.cfg.User, a.cfg.Host))
		if err != nil {
			return err
		}
		a.cfg.Password = password
	}

	dial, err := a.dialFor(a.cfg.Protocol, a.cfg.DialTimeout)
	if err != nil {
		return err
	}

	runner := &session.Runner{
		Dial:      dial,
		Config:    a.cfg,
		Artifacts: artifacts,
		Sleep:     a.sleep,
		Output:    a.stdout,
		Logger:    &logger,
	}

	logger.Info().
		Str("server", a.cfg.Address()).
		Str("protocol", a.cfg.Protocol).
		Int("artifacts", len(artifacts)).
		Int("uploads", a.cfg.NumberOfFiles).
		Msg("starting upload session")

	start := time.Now()
	summary, err := runner.Run(ctx)
	logger.Info().
		Int("uploads", summary.Uploads).
		Int64("bytes", summary.Bytes).
		Dur("elapsed", time.Since(start)).
		Msg("session finished")
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Done: %d uploads, %d bytes sent to %s\n", summary.Uploads, summary.Bytes, a.cfg.Address())
	return nil
}

// exitCode 被信号中断返回 130，其他错误返回 1
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

func realMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env 可选，不存在时忽略
	_ = godotenv.Load()

	log.Logger = newLogger(os.Stderr, false)

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return 1
	}

	if err := newRootCmd(newApp(cfg)).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("ftpstorm failed")
		return exitCode(err)
	}
	return 0
}

func main() {
	os.Exit(realMain())
}
