package server

import (
	"io/fs"
	"net/http"
)

// assets is the embedded stylesheet bundle. cmd/scrapbook sets it at init.
var assets fs.FS

// SetUI sets the filesystem served under /assets.
func SetUI(fsys fs.FS) {
	assets = fsys
}

func assetHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if assets == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.StripPrefix("/assets/", http.FileServerFS(assets)).ServeHTTP(w, r)
	})
}
