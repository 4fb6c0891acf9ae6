//go:build !nostatic

package main

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFiles embed.FS

// getStaticFS returns the embedded frontend
func getStaticFS() (fs.FS, bool) {
	return staticFiles, true
}

// staticRoot is the directory inside the embedded filesystem
func staticRoot() string {
	return "static"
}
