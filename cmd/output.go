package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/color"
	"github.com/trawl-media/trawl/icon"
	"github.com/trawl-media/trawl/key"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/style"
	"github.com/trawl-media/trawl/util"
)

// addOutputFlags registers the flags read by newPrinter.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Print items as JSON lines")
	cmd.Flags().Bool("schema", false, "Print the JSON schema of an item and exit")
	cmd.Flags().StringSliceP("keys", "k", []string{}, "Only print these keys (implies the id, source and kind)")
	lo.Must0(cmd.RegisterFlagCompletionFunc("keys", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(media.Keys, func(k media.Key, _ int) string { return string(k) }), cobra.ShellCompDirectiveNoFileComp
	}))
}

// printSchema prints the item schema when --schema is set and reports whether it did.
func printSchema(cmd *cobra.Command) bool {
	if !lo.Must(cmd.Flags().GetBool("schema")) {
		return false
	}

	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Mapper = func(t reflect.Type) *jsonschema.Schema {
		if t == reflect.TypeOf(time.Duration(0)) {
			return &jsonschema.Schema{Type: "integer", Description: "nanoseconds"}
		}
		return nil
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	handleErr(encoder.Encode(reflector.Reflect(&media.Media{})))
	return true
}

// printer writes items in the format selected by the output flags. It is safe for concurrent use.
type printer struct {
	mu sync.Mutex

	out   io.Writer
	json  bool
	keys  []media.Key
	width int
}

func newPrinter(cmd *cobra.Command) *printer {
	keys, err := media.ParseKeys(lo.Must(cmd.Flags().GetStringSlice("keys")))
	handleErr(err)

	width, _, err := util.TerminalSize()
	if err != nil || width <= 0 {
		width = 80
	}

	return &printer{
		out:   cmd.OutOrStdout(),
		json:  lo.Must(cmd.Flags().GetBool("json")),
		keys:  keys,
		width: width,
	}
}

// project keeps the selected keys of m. Identity fields are always kept.
func (p *printer) project(m *media.Media) any {
	if len(p.keys) == 0 {
		return m
	}

	data, err := json.Marshal(m)
	if err != nil {
		return m
	}

	var full map[string]any
	if err := json.Unmarshal(data, &full); err != nil {
		return m
	}

	keep := append([]string{"id", "source", "kind"}, lo.Map(p.keys, func(k media.Key, _ int) string {
		return string(k)
	})...)
	return lo.PickByKeys(full, keep)
}

func kindIcon(k media.Kind) string {
	switch k {
	case media.Container:
		return icon.Get(icon.Folder)
	case media.Audio:
		return icon.Get(icon.Audio)
	case media.Video:
		return icon.Get(icon.Video)
	case media.Image:
		return icon.Get(icon.Image)
	case media.Text:
		return icon.Get(icon.Text)
	default:
		return icon.Get(icon.File)
	}
}

// Item prints one item.
func (p *printer) Item(m *media.Media) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		_ = json.NewEncoder(p.out).Encode(p.project(m))
		return
	}

	title := m.Title
	if title == "" {
		title = m.ID
	}

	line := fmt.Sprintf("%s %s %s", kindIcon(m.Kind), style.Bold(title), style.Faint(m.Source+":"+m.ID))
	if m.IsContainer() && m.ChildCount > 0 {
		line += " " + style.Fg(color.Cyan)(util.Quantify(m.ChildCount, "item", "items"))
	}
	_, _ = fmt.Fprintln(p.out, line)

	details := p.details(m)
	if len(details) > 0 {
		_, _ = fmt.Fprintln(p.out, indent.String(strings.Join(details, "\n"), 4))
	}
}

func (p *printer) wants(k media.Key) bool {
	return len(p.keys) == 0 || lo.Contains(p.keys, k)
}

func (p *printer) details(m *media.Media) []string {
	var details []string
	field := func(k media.Key, value string) {
		if value != "" && m.Has(k) && p.wants(k) {
			details = append(details, style.Fg(color.Purple)(string(k))+" "+value)
		}
	}

	if m.URL != "" && viper.GetBool(key.OutputShowURLs) && p.wants(media.KeyURL) {
		details = append(details, style.Fg(color.Blue)(m.URL))
	}

	field(media.KeyAuthor, m.Author)
	field(media.KeyArtist, m.Artist)
	field(media.KeyAlbum, m.Album)
	field(media.KeyShow, m.Show)
	field(media.KeySeason, fmt.Sprint(m.Season))
	field(media.KeyEpisode, fmt.Sprint(m.Episode))
	field(media.KeyPublished, m.Published.Format(time.DateOnly))
	field(media.KeyDuration, m.Duration.String())
	field(media.KeySize, fmt.Sprintf("%d bytes", m.Size))
	field(media.KeyMIME, m.MIME)
	field(media.KeyRating, fmt.Sprintf("%.1f", m.Rating))
	field(media.KeyKeywords, strings.Join(m.Keywords, ", "))

	for _, sub := range m.Subtitles {
		if p.wants(media.KeySubtitles) {
			details = append(details, style.Fg(color.Purple)("subtitle")+" "+sub.Language+" "+style.Faint(sub.URL))
		}
	}

	if m.Description != "" && p.wants(media.KeyDescription) {
		description := m.Description
		if viper.GetBool(key.OutputWrapDescription) {
			description = wordwrap.String(description, max(p.width-4, 20))
		}
		details = append(details, style.Faint(description))
	}

	return details
}

// Empty prints the notice for an empty result.
func (p *printer) Empty(what string) {
	if p.json {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, "%s no %s\n", icon.Get(icon.Question), what)
}

// Warn reports a non fatal error on stderr.
func (p *printer) Warn(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", style.Fg(color.Yellow)(icon.Get(icon.Fail)), err)
}
