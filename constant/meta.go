// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Trawl is the canonical application identifier used for filesystem paths and CLI branding.
	Trawl = "trawl"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is the default HTTP User-Agent sent to remote catalogs.
	UserAgent = "trawl/" + Version

	// BrowserUserAgent is used by the fingerprinted TLS client exposed to Lua sources.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Fetch window limits.
const (
	// DefaultCount is the number of items requested when the caller does not pass a count.
	DefaultCount = 50

	// MaxCount caps a single browse or search window.
	MaxCount = 10_000
)

// Build metadata, overridden with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
