package media

import (
	"fmt"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
)

// Key names one metadata field of Media.
type Key string

const (
	KeyID          Key = "id"
	KeyTitle       Key = "title"
	KeyDescription Key = "description"
	KeyURL         Key = "url"
	KeyThumbnail   Key = "thumbnail"
	KeySite        Key = "site"
	KeyMIME        Key = "mime"
	KeyAuthor      Key = "author"
	KeyArtist      Key = "artist"
	KeyAlbum       Key = "album"
	KeyGenre       Key = "genre"
	KeyTrackNumber Key = "track_number"
	KeyShow        Key = "show"
	KeySeason      Key = "season"
	KeyEpisode     Key = "episode"
	KeyPublished   Key = "published"
	KeyDuration    Key = "duration"
	KeyWidth       Key = "width"
	KeyHeight      Key = "height"
	KeySize        Key = "size"
	KeyHash        Key = "hash"
	KeyRating      Key = "rating"
	KeyChildCount  Key = "child_count"
	KeyKeywords    Key = "keywords"
	KeySubtitles   Key = "subtitles"
)

// Keys lists every known key in display order.
var Keys = []Key{
	KeyID, KeyTitle, KeyDescription, KeyURL, KeyThumbnail, KeySite, KeyMIME,
	KeyAuthor, KeyArtist, KeyAlbum, KeyGenre, KeyTrackNumber,
	KeyShow, KeySeason, KeyEpisode,
	KeyPublished, KeyDuration, KeyWidth, KeyHeight, KeySize, KeyHash, KeyRating,
	KeyChildCount, KeyKeywords, KeySubtitles,
}

// ParseKey validates a key name. Unknown names get a suggestion in the error.
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if lo.Contains(Keys, Key(s)) {
		return Key(s), nil
	}

	closest := lo.MinBy(Keys, func(a, b Key) bool {
		return levenshtein.Distance(string(a), s) < levenshtein.Distance(string(b), s)
	})

	msg := fmt.Sprintf("unknown key %q", s)
	if levenshtein.Distance(string(closest), s) <= 3 {
		msg += fmt.Sprintf(", did you mean %q?", closest)
	}
	return "", fmt.Errorf("%s", msg)
}

// ParseKeys parses a list of key names.
func ParseKeys(names []string) ([]Key, error) {
	keys := make([]Key, 0, len(names))
	for _, name := range names {
		k, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return lo.Uniq(keys), nil
}

// Has reports whether the field named by k is set.
func (m *Media) Has(k Key) bool {
	switch k {
	case KeyID:
		return m.ID != ""
	case KeyTitle:
		return m.Title != ""
	case KeyDescription:
		return m.Description != ""
	case KeyURL:
		return m.URL != ""
	case KeyThumbnail:
		return m.Thumbnail != ""
	case KeySite:
		return m.Site != ""
	case KeyMIME:
		return m.MIME != ""
	case KeyAuthor:
		return m.Author != ""
	case KeyArtist:
		return m.Artist != ""
	case KeyAlbum:
		return m.Album != ""
	case KeyGenre:
		return m.Genre != ""
	case KeyTrackNumber:
		return m.TrackNumber > 0
	case KeyShow:
		return m.Show != ""
	case KeySeason:
		return m.Season > 0
	case KeyEpisode:
		return m.Episode > 0
	case KeyPublished:
		return !m.Published.IsZero()
	case KeyDuration:
		return m.Duration > 0
	case KeyWidth:
		return m.Width > 0
	case KeyHeight:
		return m.Height > 0
	case KeySize:
		return m.Size > 0
	case KeyHash:
		return m.Hash != ""
	case KeyRating:
		return m.Rating > 0
	case KeyChildCount:
		return m.ChildCount >= 0 && m.Kind == Container
	case KeyKeywords:
		return len(m.Keywords) > 0
	case KeySubtitles:
		return len(m.Subtitles) > 0
	default:
		return false
	}
}

// Missing returns the keys among keys that are not set on m.
func (m *Media) Missing(keys []Key) []Key {
	return lo.Filter(keys, func(k Key, _ int) bool {
		return !m.Has(k)
	})
}
