package adwizard

import _ "embed"

// Version is the released version of adwizard.
//
//go:embed VERSION
var Version string
