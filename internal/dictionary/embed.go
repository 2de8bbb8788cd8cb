// ABOUTME: Embeds HTML templates into the binary using go:embed
// ABOUTME: Provides templateFS for loading the word page at runtime

package dictionary

import "embed"

//go:embed templates/*.html
var templateFS embed.FS
