package localfs

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/trawl-media/trawl/media"
)

// Extensions missing from the builtin table of package mime.
var extensions = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".srt":  "application/x-subrip",
	".vtt":  "text/vtt",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// mimeType guesses the type of a file from its extension.
func mimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensions[ext]; ok {
		return t
	}

	t, _, _ := strings.Cut(mime.TypeByExtension(ext), ";")
	return t
}

// kindOf returns Unknown for files that are not media.
func kindOf(name string) media.Kind {
	return media.KindFromMIME(mimeType(name))
}
