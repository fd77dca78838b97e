// Package appfs embeds the static assets the application needs at runtime:
// goose SQL migrations and email templates.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
