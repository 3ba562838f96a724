// Package logging builds the process-wide zap logger from the CLI's
// repeatable debug flag.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger whose level follows the repeated -d flag:
// 0 warns only, 1 adds info, 2 and above add debug.
func New(debugLevel int) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	switch debugLevel {
	case 0:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case 1:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
