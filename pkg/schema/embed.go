package schema

import (
	"embed"
	"io/fs"
)

//go:embed schemas/*.yaml
var embedded embed.FS

// EmbeddedProvider serves the questionnaires shipped with the module.
func EmbeddedProvider() *FSProvider {
	sub, err := fs.Sub(embedded, "schemas")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return NewFSProvider(sub)
}
