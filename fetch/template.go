package fetch

import (
	"context"

	"github.com/trawl-media/trawl/media"
)

// Page is one backend page request.
type Page struct {
	// Number is 1-based.
	Number uint32
	Size   uint32

	// Token is the shared session token for gated sources, empty otherwise.
	Token string
}

// Start is the 0-based index of the first item of the page.
func (p Page) Start() uint32 {
	return (p.Number - 1) * p.Size
}

// Template issues the backend request for a page. Implementations are source specific.
type Template interface {
	Request(ctx context.Context, page Page) (Response, error)
}

// Response is a completed backend page awaiting decoding.
type Response interface {
	// Decode returns the items of the page in backend order. An empty slice means the backend is exhausted.
	Decode() ([]*media.Media, error)
}

// TemplateFunc adapts a function to Template.
type TemplateFunc func(ctx context.Context, page Page) (Response, error)

func (f TemplateFunc) Request(ctx context.Context, page Page) (Response, error) {
	return f(ctx, page)
}

// DecodeFunc adapts a function to Response.
type DecodeFunc func() ([]*media.Media, error)

func (f DecodeFunc) Decode() ([]*media.Media, error) {
	return f()
}

// Items is a Response whose items are already decoded.
type Items []*media.Media

func (i Items) Decode() ([]*media.Media, error) {
	return i, nil
}

// Fail is a Template whose every request fails with err.
// Sources use it to report a request that cannot be built through the usual terminal call.
func Fail(err error) Template {
	return TemplateFunc(func(context.Context, Page) (Response, error) {
		return nil, err
	})
}
