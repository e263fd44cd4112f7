package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var DefaultSimpleLogger Logger

func init() {
	logger := NewLogger()
	logger.SetDebug(true)
	DefaultSimpleLogger = logger
}

type SimpleLogger struct {
	lock       sync.Mutex
	output     io.Writer
	formatFunc func(level, s string) string
	level      Level
	color      bool
}

func NewLogger() *SimpleLogger {
	s := &SimpleLogger{
		output:     os.Stdout,
		formatFunc: DefaultFormatFunc,
		level:      Info,
	}
	return s
}

// NewNopLogger drops everything written to it.
func NewNopLogger() *SimpleLogger {
	s := NewLogger()
	s.SetOutput(nil)
	return s
}

func (s *SimpleLogger) SetOutput(w io.Writer) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if w != nil {
		s.output = w
	} else {
		s.output = io.Discard
	}
}

func (s *SimpleLogger) SetFormatFunc(f func(level, s string) string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if f != nil {
		s.formatFunc = f
	}
}

func (s *SimpleLogger) SetDebug(debug bool) {
	if debug {
		s.SetLevel(Debug)
	} else {
		s.SetLevel(Info)
	}
}

func (s *SimpleLogger) SetLevel(level Level) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.level = level
}

func (s *SimpleLogger) SetColor(color bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.color = color
}

func (s *SimpleLogger) EnableColor() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.color
}

func (s *SimpleLogger) print(level Level, str string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if level.rank() < s.level.rank() {
		return
	}
	levelStr := string(level)
	if s.color {
		switch level {
		case Info:
			levelStr = GetColor(color.FgGreen).Sprint(levelStr)
		case Warn:
			levelStr = GetColor(color.FgYellow).Sprint(levelStr)
		case Error, Fatal:
			levelStr = GetColor(color.FgRed).Sprint(levelStr)
		case Debug:
			levelStr = GetColor(color.FgBlue).Sprint(levelStr)
		}
	}
	fmt.Fprintln(s.output, s.formatFunc(levelStr, strings.TrimSpace(str)))
}

func (s *SimpleLogger) Print(level Level, a ...any) {
	s.print(level, fmt.Sprint(a...))
}

func (s *SimpleLogger) Info(a ...any) {
	s.print(Info, fmt.Sprint(a...))
}

func (s *SimpleLogger) Warn(a ...any) {
	s.print(Warn, fmt.Sprint(a...))
}

func (s *SimpleLogger) Error(a ...any) {
	s.print(Error, fmt.Sprint(a...))
}

func (s *SimpleLogger) Debug(a ...any) {
	s.print(Debug, fmt.Sprint(a...))
}

func (s *SimpleLogger) Fatal(a ...any) {
	s.print(Fatal, fmt.Sprint(a...))
}
