// Package static, vitrin şablonlarını ve statik dosyaları binary'ye gömer.
//
// templates/ altındaki her sayfa layout.html ile birlikte ayrı bir set olarak
// parse edilir (handlers.StorefrontHandler). assets/ olduğu gibi /assets/
// altında servis edilir.
package static

import "embed"

// Templates, templates/*.html sayfa şablonları.
//
//go:embed templates/*.html
var Templates embed.FS

// Assets, css ve görseller. Kullanım: fs.Sub(Assets, "assets").
//
//go:embed assets
var Assets embed.FS
