package scraper

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/network"
	"github.com/yuin/gopher-lua/parse"
)

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Install downloads the script at remoteURL to localPath. It reports false when
// the local copy is already identical. Scripts that do not parse are rejected.
func Install(ctx context.Context, remoteURL, localPath string) (bool, error) {
	body, err := network.Get(ctx, remoteURL, nil)
	if err != nil {
		return false, err
	}

	if _, err := parse.Parse(bytes.NewReader(body), remoteURL); err != nil {
		return false, fmt.Errorf("invalid lua script: %w", err)
	}

	fs := filesystem.API()
	if local, err := fs.ReadFile(localPath); err == nil && digest(local) == digest(body) {
		return false, nil
	}

	tmp := localPath + ".tmp"
	if err := fs.WriteFile(tmp, body, 0o644); err != nil {
		return false, err
	}
	if err := fs.Rename(tmp, localPath); err != nil {
		_ = fs.Remove(tmp)
		return false, err
	}

	log.Infof("installed %s from %s", localPath, remoteURL)
	return true, nil
}
