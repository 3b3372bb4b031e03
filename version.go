package forestml

import _ "embed"

// Version is the release of this module, with a trailing newline.
//
//go:embed VERSION
var Version string
