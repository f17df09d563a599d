// Package cache is a small TTL cache of JSON documents kept under the cache directory.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/where"
)

// TTL is the default lifetime of an entry.
const TTL = 24 * time.Hour

func dir() string {
	d := filepath.Join(where.Cache(), "responses")
	_ = filesystem.API().MkdirAll(d, os.ModePerm)
	return d
}

// Key derives a file name from the request parts.
func Key(parts ...string) string {
	normalized := strings.ToLower(strings.Join(parts, "\x00"))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// Read decodes the entry stored under key into target if it is younger than ttl.
func Read(key string, ttl time.Duration, target any) bool {
	path := filepath.Join(dir(), key)
	fs := filesystem.API()

	info, err := fs.Stat(path)
	if err != nil || time.Since(info.ModTime()) > ttl {
		return false
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, target) == nil
}

// Write stores value under key, replacing the file atomically.
func Write(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	path := filepath.Join(dir(), key)
	tmp := path + ".tmp"
	fs := filesystem.API()

	if err := fs.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return fs.Rename(tmp, path)
}

// Prune removes entries older than ttl and returns how many were removed.
func Prune(ttl time.Duration) int {
	removed := 0
	fs := filesystem.API()
	_ = afero.Walk(fs, dir(), func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > ttl {
			if fs.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})

	if removed > 0 {
		log.Debugf("cache: pruned %d entries", removed)
	}
	return removed
}

// Clear removes every entry.
func Clear() error {
	return filesystem.API().RemoveAll(dir())
}
