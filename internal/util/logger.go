package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"btc-metrics/internal/config"
)

const LOG_BUFFER_SIZE = 1000

var ErrLogNotInitialized = errors.New("log object is not initialized yet")

const (
	LOG_LEVEL_ERROR = iota + 1
	LOG_LEVEL_WARN
	LOG_LEVEL_INFO
	LOG_LEVEL_DEBUG
)

// Logger hands entries to a single writer goroutine over a buffered channel.
// The zero value is usable and drops everything with ErrLogNotInitialized.
type Logger struct {
	mu          sync.RWMutex
	logBuffer   chan logEntry
	handle      *os.File
	wg          sync.WaitGroup
	initialized bool
	zapLogger   *zap.Logger
}

type logEntry struct {
	level  int
	msg    string
	fields []zap.Field
}

func NewLogger(cfg config.LogConfig) (*Logger, error) {
	l := &Logger{}
	if err := l.Init(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Logger) Init(cfg config.LogConfig) error {
	if err := CheckAndCreateLogFolder(cfg.Dir); err != nil {
		return err
	}

	handle, err := os.OpenFile(filepath.Join(cfg.Dir, cfg.File),
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.handle = handle
	l.zapLogger = newZapLogger(handle, cfg.Console, ParseLogLevel(cfg.Level))
	l.logBuffer = make(chan logEntry, LOG_BUFFER_SIZE)

	l.wg.Add(1)
	go l.logWriter()

	l.initialized = true
	return nil
}

func newZapLogger(handle *os.File, console bool, level int) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	zapLevel := toZapLevel(level)
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(handle), zapLevel),
	}
	if console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapLevel))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// ParseLogLevel maps a config string to one of the LOG_LEVEL_* values. Unknown
// strings fall back to info.
func ParseLogLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return LOG_LEVEL_ERROR
	case "warn", "warning":
		return LOG_LEVEL_WARN
	case "debug":
		return LOG_LEVEL_DEBUG
	default:
		return LOG_LEVEL_INFO
	}
}

func toZapLevel(level int) zapcore.Level {
	switch level {
	case LOG_LEVEL_ERROR:
		return zapcore.ErrorLevel
	case LOG_LEVEL_WARN:
		return zapcore.WarnLevel
	case LOG_LEVEL_DEBUG:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) logWriter() {
	defer l.wg.Done()

	for entry := range l.logBuffer {
		switch entry.level {
		case LOG_LEVEL_ERROR:
			l.zapLogger.Error(entry.msg, entry.fields...)
		case LOG_LEVEL_WARN:
			l.zapLogger.Warn(entry.msg, entry.fields...)
		case LOG_LEVEL_DEBUG:
			l.zapLogger.Debug(entry.msg, entry.fields...)
		default:
			l.zapLogger.Info(entry.msg, entry.fields...)
		}
	}
	_ = l.zapLogger.Sync()
}

func (l *Logger) LogEvent(level int, msg string, fields ...zap.Field) error {
	if l == nil {
		return ErrLogNotInitialized
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.initialized {
		return ErrLogNotInitialized
	}
	l.logBuffer <- logEntry{level: level, msg: msg, fields: fields}
	return nil
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	_ = l.LogEvent(LOG_LEVEL_ERROR, msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	_ = l.LogEvent(LOG_LEVEL_WARN, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	_ = l.LogEvent(LOG_LEVEL_INFO, msg, fields...)
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	_ = l.LogEvent(LOG_LEVEL_DEBUG, msg, fields...)
}

// DeInit drains pending entries and closes the log file.
func (l *Logger) DeInit() {
	if l == nil {
		return
	}

	l.mu.Lock()
	if !l.initialized {
		l.mu.Unlock()
		return
	}
	l.initialized = false
	close(l.logBuffer)
	l.mu.Unlock()

	l.wg.Wait()
	l.handle.Close()
}

func CheckAndCreateLogFolder(folderNameWithPath string) error {
	_, err := os.Stat(folderNameWithPath)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(folderNameWithPath, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", folderNameWithPath, err)
		}
	}
	return nil
}
