package server

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
)

//go:embed static/*
var staticFiles embed.FS

var assets = mustSub(staticFiles, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("static assets: " + err.Error())
	}
	return sub
}

// StreamAsset writes an embedded stylesheet or image. Content type and conditional
// requests are handled by http.ServeFileFS.
func StreamAsset(w http.ResponseWriter, r *http.Request, name string) error {
	name = path.Clean(name)
	if _, err := fs.Stat(assets, name); err != nil {
		return fmt.Errorf("asset %s: %w", name, err)
	}
	w.Header().Set("Cache-Control", "public, max-age=300, must-revalidate")
	http.ServeFileFS(w, r, assets, name)
	return nil
}
