package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Settings stores config for the rotating file logger
type Settings struct {
	Path       string `yaml:"path"`
	Name       string `yaml:"name"`
	Ext        string `yaml:"ext"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
}

var base = newStdoutLogger()

func newStdoutLogger() *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		zapcore.DebugLevel,
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Setup switches logging to a rotating file, still mirrored to stdout
func Setup(settings *Settings) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   settings.Path + "/" + settings.Name + "." + settings.Ext,
		MaxSize:    settings.MaxSize,
		MaxBackups: settings.MaxBackups,
		MaxAge:     settings.MaxAge,
	})
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), fileSink, zapcore.DebugLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
	)
	base = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Debug logs a debug message
func Debug(v ...interface{}) {
	base.Debug(v...)
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...interface{}) {
	base.Debugf(format, v...)
}

// Info logs an info message
func Info(v ...interface{}) {
	base.Info(v...)
}

// Infof logs a formatted info message
func Infof(format string, v ...interface{}) {
	base.Infof(format, v...)
}

// Warn logs a warning message
func Warn(v ...interface{}) {
	base.Warn(v...)
}

// Error logs an error message
func Error(v ...interface{}) {
	base.Error(v...)
}

// Errorf logs a formatted error message
func Errorf(format string, v ...interface{}) {
	base.Errorf(format, v...)
}

// Fatal logs an error message then exits
func Fatal(v ...interface{}) {
	base.Fatal(v...)
}

// Sync flushes buffered log entries, call before process exit
func Sync() {
	_ = base.Sync()
}
