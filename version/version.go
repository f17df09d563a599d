// Package version checks for newer releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/network"
	"github.com/trawl-media/trawl/where"
)

// ReleasesURL is the GitHub API endpoint of the latest release.
var ReleasesURL = "https://api.github.com/repos/trawl-media/trawl/releases/latest"

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the most recent released version, cached for two days.
func Latest(ctx context.Context) (string, error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}

	if !expired && ver != "" {
		return ver, nil
	}

	data, err := network.Get(ctx, ReleasesURL, map[string]string{
		"Accept": "application/vnd.github+json",
	})
	if err != nil {
		return "", err
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.Unmarshal(data, &release); err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	version := strings.TrimPrefix(release.TagName, "v")
	_ = versionCacher.Set(version)
	return version, nil
}
