package podcasts

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

type rss struct {
	Channel struct {
		Title       string     `xml:"title"`
		Description string     `xml:"description"`
		Summary     string     `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd summary"`
		Images      []rssImage `xml:"image"`
		Items       []rssItem  `xml:"item"`
	} `xml:"channel"`
}

const itunesSpace = "http://www.itunes.com/dtds/podcast-1.0.dtd"

// rssImage is either <image><url/></image> or <itunes:image href=""/>.
type rssImage struct {
	XMLName xml.Name
	URL     string `xml:"url"`
	Href    string `xml:"href,attr"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Summary     string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd summary"`
	PubDate     string `xml:"pubDate"`
	Duration    string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	Enclosure   struct {
		URL    string `xml:"url,attr"`
		Length string `xml:"length,attr"`
		Type   string `xml:"type,attr"`
	} `xml:"enclosure"`
}

// Feed is a parsed podcast feed.
type Feed struct {
	Title       string
	Description string
	Image       string
	Streams     []*Stream
}

// ParseFeed reads an RSS 2.0 document. Items without an enclosure are skipped.
func ParseFeed(data []byte) (*Feed, error) {
	var doc rss

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	ch := doc.Channel
	feed := &Feed{
		Title:       strings.TrimSpace(ch.Title),
		Description: flatten(firstNonEmpty(ch.Description, ch.Summary)),
		Image:       channelImage(ch.Images),
	}

	for _, item := range ch.Items {
		if item.Enclosure.URL == "" {
			continue
		}

		length, _ := strconv.ParseInt(strings.TrimSpace(item.Enclosure.Length), 10, 64)
		feed.Streams = append(feed.Streams, &Stream{
			URL:         item.Enclosure.URL,
			Title:       strings.TrimSpace(item.Title),
			Length:      length,
			MIME:        item.Enclosure.Type,
			Published:   parseDate(item.PubDate),
			Description: flatten(firstNonEmpty(item.Description, item.Summary)),
			Duration:    parseDuration(item.Duration),
		})
	}

	return feed, nil
}

// channelImage prefers the iTunes cover over the RSS image.
func channelImage(images []rssImage) string {
	var plain string
	for _, img := range images {
		if img.XMLName.Space == itunesSpace {
			if href := strings.TrimSpace(img.Href); href != "" {
				return href
			}
			continue
		}
		if plain == "" {
			plain = strings.TrimSpace(img.URL)
		}
	}
	return plain
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// flatten turns an HTML fragment into plain text.
func flatten(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	// keep paragraphs and line breaks apart
	doc.Find("br, p, li").Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseDuration reads "SS", "MM:SS" and "HH:MM:SS".
func parseDuration(s string) time.Duration {
	var total int
	for _, part := range strings.Split(strings.TrimSpace(s), ":") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
