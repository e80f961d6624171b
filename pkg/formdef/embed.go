package formdef

import (
	"embed"
	"io/fs"
	"sync"
)

// SignupFormID identifies the bundled signup definition.
const SignupFormID = "signup"

//go:embed definitions/*
var embeddedDefinitions embed.FS

var (
	defaultOnce  sync.Once
	defaultStore *Store
	defaultErr   error
)

// EmbeddedFS returns the bundled definition files.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedDefinitions, "definitions")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}

// DefaultStore loads the bundled definitions once.
func DefaultStore() (*Store, error) {
	defaultOnce.Do(func() {
		defaultStore, defaultErr = LoadFS(EmbeddedFS())
	})
	return defaultStore, defaultErr
}

// Default returns the bundled signup definition.
func Default() Definition {
	store, err := DefaultStore()
	if err != nil {
		panic(err)
	}
	def, ok := store.Form(SignupFormID)
	if !ok {
		panic("formdef: bundled signup definition missing")
	}
	return def
}
