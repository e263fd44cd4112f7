package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/lib/tools"
	"github.com/yaotthaha/ipcheck/lib/types"
)

var _ adapter.Source = (*File)(nil)

func init() {
	adapter.RegisterSource(constant.SourceFile, NewFile)
}

type File struct {
	tag   string
	paths []string
}

type option struct {
	Path types.Listable[string] `config:"path"`
}

func NewFile(tag string, args map[string]any) (adapter.Source, error) {
	var op option
	err := tools.NewMapStructureDecoderWithResult(&op).Decode(args)
	if err != nil {
		return nil, fmt.Errorf("decode config fail: %s", err)
	}
	if len(op.Path) == 0 {
		return nil, fmt.Errorf("path must be not empty")
	}
	return &File{
		tag:   tag,
		paths: op.Path,
	}, nil
}

func (f *File) Tag() string {
	return f.tag
}

func (f *File) Type() string {
	return constant.SourceFile
}

func (f *File) Fetch(ctx context.Context) (string, error) {
	var b strings.Builder
	for _, path := range f.paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read file %s fail: %w", path, err)
		}
		b.Write(content)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
