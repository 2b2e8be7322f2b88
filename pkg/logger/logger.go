package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 全局日志实例
var Logger *logrus.Logger

// Config 日志配置
type Config struct {
	Level      string // 日志级别: debug, info, warn, error
	OutputFile string // 日志文件路径（可选，为空则只输出到控制台）
	MaxSize    int    // 日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAge     int    // 保留旧日志文件的天数
	Compress   bool   // 是否压缩旧日志文件
}

// Init 初始化日志系统
func Init(config Config) error {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05", // 格式: yy-mm-dd HH:MM:ss
		ForceColors:     true,
	})

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if config.OutputFile != "" {
		if dir := filepath.Dir(config.OutputFile); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
	}

	logger.SetOutput(io.MultiWriter(writers...))

	Logger = logger
	// 全局 logrus 也指向同一输出，组件级 WithField 日志走标准入口
	logrus.SetLevel(level)
	logrus.SetFormatter(logger.Formatter)
	logrus.SetOutput(logger.Out)
	return nil
}

// InitDefault 用默认配置初始化（info 级别，仅控制台输出）
func InitDefault() {
	_ = Init(Config{Level: "info"})
}

func Debugf(format string, args ...any) { logrus.Debugf(format, args...) }
func Infof(format string, args ...any)  { logrus.Infof(format, args...) }
func Warnf(format string, args ...any)  { logrus.Warnf(format, args...) }
func Errorf(format string, args ...any) { logrus.Errorf(format, args...) }
func Info(args ...any)                  { logrus.Info(args...) }
func Warn(args ...any)                  { logrus.Warn(args...) }
func Error(args ...any)                 { logrus.Error(args...) }
