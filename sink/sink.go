package sink

import (
	// register sinks
	_ "github.com/yaotthaha/ipcheck/sink/ipset"
	_ "github.com/yaotthaha/ipcheck/sink/nftset"
)

func Register() {
}
