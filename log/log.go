package log

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

type Logger interface {
	Info(...any)
	Warn(...any)
	Error(...any)
	Debug(...any)
	Fatal(...any)
	Print(Level, ...any)
}

type Level string

const (
	Info  Level = "Info"
	Warn  Level = "Warn"
	Error Level = "Error"
	Debug Level = "Debug"
	Fatal Level = "Fatal"
)

func (l Level) rank() int {
	switch l {
	case Debug:
		return 0
	case Info:
		return 1
	case Warn:
		return 2
	case Error:
		return 3
	default:
		return 4
	}
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "info", "":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	case "debug":
		return Debug, nil
	case "fatal":
		return Fatal, nil
	default:
		return "", fmt.Errorf("invalid log level: %s", s)
	}
}

func DefaultFormatFunc(level, s string) string {
	return fmt.Sprintf("[%s] [%s] %s", time.Now().Format(time.DateTime), level, s)
}

func DisableTimestampFormatFunc(level, s string) string {
	return fmt.Sprintf("[%s] %s", level, s)
}

type ContextLogger interface {
	Logger
	InfoContext(context.Context, ...any)
	WarnContext(context.Context, ...any)
	ErrorContext(context.Context, ...any)
	DebugContext(context.Context, ...any)
	FatalContext(context.Context, ...any)
	PrintContext(context.Context, Level, ...any)
}

type ColorLogger interface {
	EnableColor() bool
}

type SetColorLogger interface {
	SetColor(color.Attribute)
}
