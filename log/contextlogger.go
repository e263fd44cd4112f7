package log

import (
	"context"
	"fmt"
	"time"

	"github.com/yaotthaha/ipcheck/lib/tools"

	"github.com/fatih/color"
)

type contextTag struct{}

type contextMsg struct {
	tag   string
	color color.Attribute
	start time.Time
}

type contextLogger struct {
	Logger
}

// AddContextTag marks ctx with a random request tag. Context loggers print
// the tag and the time elapsed since it was added.
func AddContextTag(ctx context.Context) context.Context {
	cmg := &contextMsg{
		tag:   tools.RandomNumStr(8),
		color: RandomColor(),
		start: time.Now(),
	}
	return context.WithValue(ctx, (*contextTag)(nil), cmg)
}

func GetContextTag(ctx context.Context) string {
	v, ok := ctx.Value((*contextTag)(nil)).(*contextMsg)
	if !ok {
		return ""
	}
	return v.tag
}

func NewContextLogger(rootLogger Logger) ContextLogger {
	if cl, ok := rootLogger.(ContextLogger); ok {
		return cl
	}
	return &contextLogger{
		Logger: rootLogger,
	}
}

func (c *contextLogger) EnableColor() bool {
	if cl, ok := c.Logger.(ColorLogger); ok {
		return cl.EnableColor()
	}
	return false
}

func (c *contextLogger) PrintContext(ctx context.Context, level Level, a ...any) {
	value, ok := ctx.Value((*contextTag)(nil)).(*contextMsg)
	if !ok {
		c.Print(level, a...)
		return
	}
	an := make([]any, 0, len(a)+1)
	if c.EnableColor() {
		an = append(an, fmt.Sprintf("[%s] ", GetColor(value.color).Sprintf("%s %dms", value.tag, time.Since(value.start).Milliseconds())))
	} else {
		an = append(an, fmt.Sprintf("[%s %dms] ", value.tag, time.Since(value.start).Milliseconds()))
	}
	an = append(an, a...)
	c.Print(level, an...)
}

func (c *contextLogger) InfoContext(ctx context.Context, a ...any) {
	c.PrintContext(ctx, Info, a...)
}

func (c *contextLogger) WarnContext(ctx context.Context, a ...any) {
	c.PrintContext(ctx, Warn, a...)
}

func (c *contextLogger) ErrorContext(ctx context.Context, a ...any) {
	c.PrintContext(ctx, Error, a...)
}

func (c *contextLogger) DebugContext(ctx context.Context, a ...any) {
	c.PrintContext(ctx, Debug, a...)
}

func (c *contextLogger) FatalContext(ctx context.Context, a ...any) {
	c.PrintContext(ctx, Fatal, a...)
}
