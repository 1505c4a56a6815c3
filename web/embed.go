// Package web holds the browser UI served by the HTTP server.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/index.html static
var assets embed.FS

// IndexHTML returns the single page of the UI
func IndexHTML() ([]byte, error) {
	return assets.ReadFile("templates/index.html")
}

// StaticFS returns the stylesheets and scripts referenced by the page
func StaticFS() fs.FS {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return static
}
