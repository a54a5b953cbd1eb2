// Package version holds build identification used in logs, the meta template
// context, and the version CLI command.
package version

// Name is the builder name exposed as meta.builder in template contexts.
const Name = "sitegen"

// Version is the release version; overridden at link time for tagged builds.
var Version = "0.3.0-dev"
