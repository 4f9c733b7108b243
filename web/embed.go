// Package web embeds the default rota frontend.
package web

import "embed"

// Assets holds assets/rota.html.
//
//go:embed assets
var Assets embed.FS
