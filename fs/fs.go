// Package appfs exposes the files embedded in the binary: SQL migrations, email templates and password assets.
package appfs

import "embed"

//go:embed assets migrations all:templates
var FS embed.FS
