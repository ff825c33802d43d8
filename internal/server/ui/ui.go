// Package ui serves the embedded browser interface.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Handler serves the UI at the root path.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The static tree is compiled in; a failure here is a build defect.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
