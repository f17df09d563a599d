// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Source selection.
const (
	DefaultSources = "sources.default"
)

// Search interaction.
const (
	SearchShowQuerySuggestions = "search.show_query_suggestions"
	SearchRememberQueries      = "search.remember_queries"
)

// Iconography.
const (
	IconsVariant = "icons.variant"
)

// Output rendering for the browse, search and resolve commands.
const (
	OutputShowURLs        = "output.show_urls"
	OutputWrapDescription = "output.wrap_description"
)

// Network transport.
const (
	NetworkTimeout        = "network.timeout"
	NetworkTLSFingerprint = "network.tls_fingerprint"
)

// Logging infrastructure.
const (
	LogsWrite      = "logs.write"
	LogsLevel      = "logs.level"
	LogsJson       = "logs.json"
	LogsMaxSize    = "logs.max_size"
	LogsMaxBackups = "logs.max_backups"
)

// CLI execution environment.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

// Vimeo.
const (
	VimeoToken = "vimeo.token"
)

// Flickr.
const (
	FlickrAPIKey = "flickr.api_key"
)

// TMDB.
const (
	TMDBAPIKey   = "tmdb.api_key"
	TMDBLanguage = "tmdb.language"
)

// OpenSubtitles.
const (
	OpenSubtitlesUserAgent = "opensubtitles.user_agent"
	OpenSubtitlesLanguages = "opensubtitles.languages"
)

// Podcasts.
const (
	PodcastsRefreshInterval = "podcasts.refresh_interval"
)

// Local filesystem.
const (
	LocalfsRoots      = "localfs.roots"
	LocalfsShowHidden = "localfs.show_hidden"
)
