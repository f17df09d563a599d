// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/filesystem"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "TRAWL_CONFIG_PATH"

// EnvDataPath overrides the directory holding the podcast and bookmark databases.
const EnvDataPath = "TRAWL_DATA_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The TRAWL_CONFIG_PATH environment variable takes precedence.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Trawl))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Trawl))
}

// Data resolves the directory holding local databases.
// Databases are opened by drivers that bypass afero, so this always lives on the OS filesystem.
func Data() string {
	if custom, ok := os.LookupEnv(EnvDataPath); ok {
		lo.Must0(os.MkdirAll(custom, os.ModePerm))
		return custom
	}

	dir := filepath.Join(Config(), "data")
	lo.Must0(os.MkdirAll(dir, os.ModePerm))
	return dir
}

// Logs resolves the absolute path to the directory used for diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Sources resolves the directory containing custom Lua sources.
func Sources() string {
	return ensureDir(filepath.Join(Config(), "sources"))
}

// Podcasts resolves the SQLite database of podcast subscriptions.
func Podcasts() string {
	return filepath.Join(Data(), "podcasts.db")
}

// Bookmarks resolves the bbolt database of bookmarks.
func Bookmarks() string {
	return filepath.Join(Data(), "bookmarks.db")
}

// Queries resolves the search query suggestion registry.
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// AnilistIDs resolves the title to Anilist id cache.
func AnilistIDs() string {
	return filepath.Join(Cache(), "anilist_ids.json")
}

// TMDBIDs resolves the title to TMDB id cache.
func TMDBIDs() string {
	return filepath.Join(Cache(), "tmdb_ids.json")
}

// Temp resolves a volatile directory for transient artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Trawl))
}
