package treadlogic

import "embed"

// StaticFS holds the admin page and its assets under static/.
//
//go:embed static
var StaticFS embed.FS
