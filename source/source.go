package source

import (
	// register sources
	_ "github.com/yaotthaha/ipcheck/source/file"
	_ "github.com/yaotthaha/ipcheck/source/http"
	_ "github.com/yaotthaha/ipcheck/source/mmdb"
	_ "github.com/yaotthaha/ipcheck/source/redis"
)

func Register() {
}
