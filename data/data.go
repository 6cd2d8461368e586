package data

import (
	"embed"
	"io/fs"
)

//go:embed sample/*.csv
var sample embed.FS

// Sample returns the bundled two-participant demo exports, used when no
// data source is configured.
func Sample() fs.FS {
	sub, err := fs.Sub(sample, "sample")
	if err != nil {
		panic(err)
	}
	return sub
}
