// Package logger configures the global zap logger from the environment. It
// exists to be imported for side effects by tests; the main package performs
// its own configuration.
package logger

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func init() {
	godotenv.Load("../.env", ".env") //nolint:errcheck

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if d, e := strconv.ParseBool(os.Getenv("DEBUG")); d && e == nil {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}
