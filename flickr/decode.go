package flickr

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/trawl-media/trawl/media"
)

const dateLayout = "2006-01-02 15:04:05"

// number accepts both JSON numbers and numeric strings, which the API mixes freely.
type number int

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}

	v, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid number %q", data)
	}
	*n = number(v)
	return nil
}

type content struct {
	Content string `json:"_content"`
}

type hotListResponse struct {
	HotTags struct {
		Tag []content `json:"tag"`
	} `json:"hottags"`
}

func (r *hotListResponse) media() ([]*media.Media, error) {
	items := make([]*media.Media, 0, len(r.HotTags.Tag))
	for _, tag := range r.HotTags.Tag {
		items = append(items, media.NewContainer(ID, tag.Content, tag.Content))
	}
	return items, nil
}

type photo struct {
	ID        string `json:"id"`
	Secret    string `json:"secret"`
	Server    string `json:"server"`
	Title     string `json:"title"`
	Media     string `json:"media"`
	DateTaken string `json:"datetaken"`
	OwnerName string `json:"ownername"`
	URLOrig   string `json:"url_o"`
	URLThumb  string `json:"url_t"`
	WidthO    number `json:"width_o"`
	HeightO   number `json:"height_o"`
}

type searchResponse struct {
	Photos struct {
		Page  number  `json:"page"`
		Pages number  `json:"pages"`
		Total number  `json:"total"`
		Photo []photo `json:"photo"`
	} `json:"photos"`
}

// media returns the photos of the page. Pages past the last repeat the last one, so they decode as empty.
func (r *searchResponse) media() ([]*media.Media, error) {
	if r.Photos.Page > r.Photos.Pages {
		return nil, nil
	}

	items := make([]*media.Media, 0, len(r.Photos.Photo))
	for _, p := range r.Photos.Photo {
		items = append(items, p.media())
	}
	return items, nil
}

func kind(mediaType string) media.Kind {
	if mediaType == "video" {
		return media.Video
	}
	return media.Image
}

func (p photo) media() *media.Media {
	m := &media.Media{
		ID:        p.ID,
		Kind:      kind(p.Media),
		Title:     p.Title,
		Author:    p.OwnerName,
		URL:       p.URLOrig,
		Thumbnail: p.URLThumb,
		Width:     int(p.WidthO),
		Height:    int(p.HeightO),
	}

	if m.Thumbnail == "" && p.Server != "" {
		m.Thumbnail = fmt.Sprintf("https://live.staticflickr.com/%s/%s_%s_t.jpg", p.Server, p.ID, p.Secret)
	}
	if m.URL == "" {
		m.URL = m.Thumbnail
	}
	if t, err := time.Parse(dateLayout, p.DateTaken); err == nil {
		m.Published = t
	}

	return m
}

type infoResponse struct {
	Photo info `json:"photo"`
}

type info struct {
	ID             string  `json:"id"`
	Secret         string  `json:"secret"`
	Server         string  `json:"server"`
	OriginalSecret string  `json:"originalsecret"`
	OriginalFormat string  `json:"originalformat"`
	Media          string  `json:"media"`
	Title          content `json:"title"`
	Description    content `json:"description"`
	Dates          struct {
		Taken string `json:"taken"`
	} `json:"dates"`
	Owner struct {
		Username string `json:"username"`
		Realname string `json:"realname"`
	} `json:"owner"`
	URLs struct {
		URL []struct {
			Type    string `json:"type"`
			Content string `json:"_content"`
		} `json:"url"`
	} `json:"urls"`
	Tags struct {
		Tag []struct {
			Raw string `json:"raw"`
		} `json:"tag"`
	} `json:"tags"`
}

func (i info) media() *media.Media {
	m := &media.Media{
		ID:          i.ID,
		Kind:        kind(i.Media),
		Title:       i.Title.Content,
		Description: i.Description.Content,
		Author:      i.Owner.Realname,
	}

	if m.Author == "" {
		m.Author = i.Owner.Username
	}
	if i.Server != "" {
		m.Thumbnail = fmt.Sprintf("https://live.staticflickr.com/%s/%s_%s_t.jpg", i.Server, i.ID, i.Secret)
		if i.OriginalSecret != "" && i.OriginalFormat != "" {
			m.URL = fmt.Sprintf("https://live.staticflickr.com/%s/%s_%s_o.%s", i.Server, i.ID, i.OriginalSecret, i.OriginalFormat)
		}
	}
	if t, err := time.Parse(dateLayout, i.Dates.Taken); err == nil {
		m.Published = t
	}
	for _, u := range i.URLs.URL {
		if u.Type == "photopage" {
			m.Site = u.Content
		}
	}
	for _, tag := range i.Tags.Tag {
		m.Keywords = append(m.Keywords, tag.Raw)
	}

	return m
}
