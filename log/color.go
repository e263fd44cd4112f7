package log

import (
	"math/rand"
	"sync"

	"github.com/fatih/color"
)

var colorCache sync.Map

func GetColor(c color.Attribute) *color.Color {
	ccAny, _ := colorCache.LoadOrStore(c, color.New(c))
	return ccAny.(*color.Color)
}

// RandomColor picks one of the six foreground colors between red and cyan.
func RandomColor() color.Attribute {
	return color.Attribute(int(color.FgRed) + rand.Intn(6))
}
