package siteadmin

import (
	"embed"
	"io/fs"
)

// EmbeddedAssets holds the stylesheet shared by the public pages and the
// admin panel, served under /public/.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

func publicFS() fs.FS {
	sub, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		panic(err)
	}
	return sub
}
