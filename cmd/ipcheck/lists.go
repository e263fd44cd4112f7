package ipcheck

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/yaotthaha/ipcheck/combiner"
	"github.com/yaotthaha/ipcheck/gate"
)

// readLists concatenates the given files, "-" or no file at all means stdin.
func readLists(stdin io.Reader, files []string) (string, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}
	var b strings.Builder
	for _, file := range files {
		var (
			content []byte
			err     error
		)
		if file == "-" {
			content, err = io.ReadAll(stdin)
		} else {
			content, err = os.ReadFile(file)
		}
		if err != nil {
			return "", fmt.Errorf("read %s fail: %s", file, err)
		}
		b.Write(content)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func buildCombiner(text string) (*combiner.Combiner, int, error) {
	if !utf8.ValidString(text) {
		return nil, 0, gate.ErrMalformedInput
	}
	ranges, skipped := combiner.ParseLines(text)
	c := combiner.New()
	c.Push(ranges...)
	return c, skipped, nil
}
