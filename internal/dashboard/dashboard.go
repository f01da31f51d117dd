// Package dashboard embeds the calculator page templates and styles.
package dashboard

import "embed"

//go:embed templates/*.html
var Templates embed.FS

//go:embed assets/*.css
var Assets embed.FS
