package jamendo

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trawl-media/trawl/media"
)

func decode(data []byte) ([]*media.Media, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	items := make([]*media.Media, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		m, err := e.media()
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

func seconds(s string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return time.Duration(n) * time.Second
}

func (e entry) media() (*media.Media, error) {
	switch Category(e.XMLName.Local) {
	case Artist:
		m := media.NewContainer(ID, itemID(Artist, e.ID), e.ArtistName)
		m.Artist = e.ArtistName
		m.Genre = e.ArtistGenre
		m.Thumbnail = e.ArtistImage
		m.Site = e.ArtistURL
		return m, nil
	case Album:
		m := media.NewContainer(ID, itemID(Album, e.ID), e.AlbumName)
		m.Artist = e.ArtistName
		m.Album = e.AlbumName
		m.Genre = e.AlbumGenre
		m.Thumbnail = e.AlbumImage
		m.Site = e.AlbumURL
		m.Duration = seconds(e.AlbumDuration)
		return m, nil
	case Track:
		return &media.Media{
			ID:        itemID(Track, e.ID),
			Kind:      media.Audio,
			Title:     e.TrackName,
			Artist:    e.ArtistName,
			Album:     e.AlbumName,
			Genre:     e.AlbumGenre,
			Thumbnail: e.AlbumImage,
			URL:       e.TrackStream,
			Site:      e.TrackURL,
			Duration:  seconds(e.TrackDuration),
		}, nil
	default:
		return nil, fmt.Errorf("unexpected element <%s>", e.XMLName.Local)
	}
}
