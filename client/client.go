// Package client holds the browser assets built into the binary.
//
// The server serves them for any path the static directory does not provide,
// so a bare install works without a public/ folder:
//
//	/client.js  connects viewers to the socket and sends control requests
//	/style.css  default stage styling
package client

import (
	"embed"
	"io/fs"
)

//go:embed assets
var assets embed.FS

// FS returns the embedded assets rooted at their directory.
func FS() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
