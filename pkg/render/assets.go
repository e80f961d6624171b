package render

import (
	"embed"
	"io/fs"
)

// AssetsPrefix is the URL prefix the default theme resolves its files under.
const AssetsPrefix = "/assets"

//go:embed assets/*.css
var embeddedAssets embed.FS

// AssetsFS exposes the bundled stylesheet so hosts can serve it:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(render.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
