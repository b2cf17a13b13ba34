package klogging

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xinkaiwang/workerblitz/kerror"
)

// LogrusLogger implements klogging.Logger on top of logrus. Level threshold
// is evaluated in this layer; the underlying logrus logger blindly accepts
// everything.
type LogrusLogger struct {
	ctx       context.Context
	RusLogger *logrus.Logger
	logLevel  Level
	logFormat LogFormat
}

const (
	// TimestampFormat:
	// 0) easy to read by human, no ambiguity.
	// 1) ms resolution.
	// 2) carries timezone info.
	// 3) sorting friendly (2006-01-02, instead of Jan.02.2006).
	TimestampFormat = "2006-01-02T15:04:05.999Z07:00"
)

func NewLogrusLogger(ctx context.Context) *LogrusLogger {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		TimestampFormat: TimestampFormat,
		FullTimestamp:   true,
	})
	log.SetLevel(logrus.TraceLevel)
	return &LogrusLogger{
		ctx:       ctx,
		RusLogger: log,
		logLevel:  InfoLevel,
		logFormat: TextFormat,
	}
}

// Log format
type LogFormat uint32

const (
	TextFormat LogFormat = iota + 1
	JsonFormat
	SimpleFormat
)

func (e LogFormat) String() string {
	switch e {
	case TextFormat:
		return "Text"
	case JsonFormat:
		return "Json"
	case SimpleFormat:
		return "Simple"
	default:
		return fmt.Sprintf("%d", int(e))
	}
}

// may throw if unable to parse
func parseLogFormat(str string) LogFormat {
	if strings.EqualFold("text", str) {
		return TextFormat
	} else if strings.EqualFold("json", str) {
		return JsonFormat
	} else if strings.EqualFold("simple", str) {
		return SimpleFormat
	}
	panic(kerror.Create("UnknownLogFormat", "parse log format failed").With("str", str))
}

// SetConfig applies level ("fatal".."verbose") and format ("text", "json",
// "simple"). A bad value logs a warning and keeps the previous setting.
func (logger *LogrusLogger) SetConfig(ctx context.Context, newLevelStr string, newFormatStr string) *LogrusLogger {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				Warning(ctx).WithError(err).Log("updateLogConfigFailed", "LogConfig update failed")
			} else {
				Warning(ctx).With("err", r).Log("updateLogConfigFailed", "LogConfig update failed")
			}
		}
	}()
	newLevel := ParseLogLevel(newLevelStr)
	if logger.logLevel != newLevel {
		Info(ctx).With("oldLogLevel", logger.logLevel).With("newLogLevel", newLevel).Log("updateLogLevel", "LogLevel updated")
		logger.logLevel = newLevel
	}
	newFormat := parseLogFormat(newFormatStr)
	if logger.logFormat != newFormat {
		switch newFormat {
		case TextFormat:
			logger.RusLogger.SetFormatter(&logrus.TextFormatter{
				DisableColors:   false,
				TimestampFormat: TimestampFormat,
				FullTimestamp:   true,
			})
		case JsonFormat:
			logger.RusLogger.SetFormatter(&logrus.JSONFormatter{
				TimestampFormat: TimestampFormat,
			})
		case SimpleFormat:
			logger.RusLogger.SetFormatter(NewSimpleFormatter())
		default:
			panic(kerror.Create("UnsupportedLogFormat", "unsupported log format").With("newLogFormat", newFormat))
		}
		Info(ctx).With("oldLogFormat", logger.logFormat).With("newLogFormat", newFormat).Log("updateLogFormat", "LogFormat updated")
		logger.logFormat = newFormat
	}
	return logger
}

// Log: override interface klogging.Logger
func (logger *LogrusLogger) Log(entry *LogEntry, shouldLog bool) {
	if !shouldLog {
		return
	}
	fields := make(map[string]interface{}, len(entry.Details))
	for _, item := range entry.Details {
		fields[item.K] = item.V
	}
	ent := logger.RusLogger.WithField("event", entry.LogType).WithFields(fields)
	ent.Time = entry.Timestamp
	ent.Log(kloggingLevel2Logrus(entry.Level), entry.Msg)
}

// kloggingLevel2Logrus: convert (klogging) Level to (logrus) Level. The
// numeric values line up since klogging levels were borrowed from logrus
// (minus PanicLevel).
func kloggingLevel2Logrus(level Level) logrus.Level {
	return logrus.Level(int(level))
}

// Level: override interface klogging.Logger
func (logger *LogrusLogger) Level() Level {
	return logger.logLevel
}
