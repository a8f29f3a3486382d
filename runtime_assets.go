package formdemo

import (
	"io/fs"

	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla"
)

// AssetsFS exposes the stylesheet and the change-event runtime so Go
// applications can serve them next to the rendered page.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formdemo.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
