package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/color"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/key"
	"github.com/trawl-media/trawl/style"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Trawl + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.DefaultSources, []string{"podcasts", "bookmarks"}, "Sources used by search when --source is not given.\nType \"trawl sources list\" to show available sources")
	register(key.SearchShowQuerySuggestions, true, "Show query suggestions when searching")
	register(key.SearchRememberQueries, true, "Remember search queries for suggestions")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.OutputShowURLs, true, "Show URLs under listed items")
	register(key.OutputWrapDescription, true, "Wrap item descriptions to the terminal width")
	register(key.NetworkTimeout, 60, "HTTP request timeout in seconds")
	register(key.NetworkTLSFingerprint, false, "Use a browser TLS fingerprint for remote catalogs")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.LogsMaxSize, 10, "Size in megabytes after which the log file is rotated")
	register(key.LogsMaxBackups, 5, "Number of rotated log files to keep")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, false, "Check for a newer release when printing help")
	register(key.VimeoToken, "", "Vimeo personal access token")
	register(key.FlickrAPIKey, "", "Flickr API key")
	register(key.TMDBAPIKey, "", "TMDB API key (v3)")
	register(key.TMDBLanguage, "en-US", "Language of TMDB metadata")
	register(key.OpenSubtitlesUserAgent, "Totem", "User agent registered with OpenSubtitles")
	register(key.OpenSubtitlesLanguages, []string{"all"}, "Subtitle languages to look up (ISO 639-2), \"all\" for any")
	register(key.PodcastsRefreshInterval, 24, "Hours after which a podcast feed is fetched again on browse")
	register(key.LocalfsRoots, []string{}, "Directories exposed by the localfs source.\nDefaults to the user's Music, Videos and Pictures directories")
	register(key.LocalfsShowHidden, false, "List hidden files in the localfs source")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
