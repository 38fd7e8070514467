// comm.go 包含了各个子命令通用的一些对象
// 目前只有日志对象。配置对象不再放在这里，而是由 cmd 构造后显式传递给各个组件。
package global

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 日志对象
// 未调用 Init 之前是一个什么都不输出的 logger，方便测试直接使用各个包
var Sugar = zap.NewNop().Sugar()

// Init 初始化日志对象
// level 为 pro 时使用生产环境配置（json 输出），否则使用开发环境配置。
// verbose 为 true 时输出 debug 日志。
func Init(level string, verbose bool) error {
	var cfg zap.Config
	if level == "pro" {
		// 生产环境
		cfg = zap.NewProductionConfig()
	} else {
		// 开发环境
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}

	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Sugar = logger.Sugar()
	return nil
}

// Sync 刷新日志缓冲
func Sync() {
	_ = Sugar.Sync()
}
