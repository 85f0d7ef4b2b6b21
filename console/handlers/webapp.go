package handlers

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/julienschmidt/httprouter"
)

func createWebApp(r Router, dir string) {
	if dir == "" {
		return
	}
	err := fs.WalkDir(os.DirFS(dir), ".",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || path == "index.html" {
				return nil
			}

			filePath := filepath.Join(dir, path)
			r.GET("/"+path, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
				http.ServeFile(w, r, filePath)
			})
			return nil
		},
	)
	if err != nil {
		panic(err)
	}
	r.GET("/", serveIndex(dir))
}

func serveIndex(dir string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
