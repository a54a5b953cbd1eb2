package build

import _ "embed"

// syntaxStylesheet is the bundled stylesheet for fenced code blocks,
// exported on demand via output.styles.
//
//go:embed assets/syntax.css
var syntaxStylesheet []byte
