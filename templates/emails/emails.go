// Package emails holds the e-mail templates. Base files are French;
// name_<lang>.html / name_<lang>.txt override them for another language.
package emails

import "embed"

//go:embed *.html *.txt
var FS embed.FS
