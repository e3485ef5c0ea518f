// Package web embeds the HTML templates of the board report and the
// summary emails.
package web

import "embed"

// Templates embeds the report and email HTML templates.
//
//go:embed templates/reports/*.html templates/email/*.html
var Templates embed.FS
