// Package web provides embedded static assets for the storefront.
// In development, pages pull TailwindCSS from CDN; in production the
// compiled stylesheet is embedded here and served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree. In Docker builds this
// contains the compiled TailwindCSS output; in local development it may
// only contain the input.css source file.
//
//go:embed all:static
var StaticFS embed.FS
