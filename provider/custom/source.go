package custom

import (
	"context"
	"fmt"
	"sync"

	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/source"
	lua "github.com/yuin/gopher-lua"
)

type sourceInfo struct {
	name        string
	description string
	pageSize    uint32
}

// Source is a Lua script exposed through the browse, search and resolve verbs.
// The Lua state is not safe for concurrent use, so every call into it is serialized.
type Source struct {
	id     string
	info   sourceInfo
	driver *fetch.Driver

	mu    sync.Mutex
	state *lua.LState
}

func newSource(id string, info sourceInfo, state *lua.LState) (*Source, error) {
	driver, err := fetch.New(fetch.Config{
		Name:     id,
		PageSize: info.pageSize,
		Hints:    fetch.HintExact,
	})
	if err != nil {
		state.Close()
		return nil, err
	}

	return &Source{id: id, info: info, driver: driver, state: state}, nil
}

func (s *Source) ID() string { return s.id }

func (s *Source) Name() string { return s.info.name }

func (s *Source) Description() string {
	if s.info.description != "" {
		return s.info.description
	}
	return "Lua source " + s.info.name
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyURL, media.KeyDescription, media.KeyThumbnail,
		media.KeyAuthor, media.KeyDuration, media.KeyPublished,
	}
}

// Has reports whether the script defines fn.
func (s *Source) Has(fn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.GetGlobal(fn).Type() == lua.LTFunction
}

func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	return s.driver.Search(opts.Skip, opts.Count, s.pages(constant.SearchFn, lua.LString(text)), source.Sink(s, cb))
}

func (s *Source) Browse(container *media.Media, opts source.Options, cb source.Callback) fetch.OperationID {
	if !s.Has(constant.BrowseFn) {
		return s.driver.Browse(opts.Skip, opts.Count, fetch.Fail(source.ErrUnsupported), source.Sink(s, cb))
	}

	var id string
	if container != nil {
		id = container.ID
	}
	return s.driver.Browse(opts.Skip, opts.Count, s.pages(constant.BrowseFn, lua.LString(id)), source.Sink(s, cb))
}

// pages calls fn(arg, page, size) for every backend page.
func (s *Source) pages(fn string, arg lua.LValue) fetch.Template {
	return fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		val, err := s.call(ctx, fn, lua.LTTable, arg, lua.LNumber(page.Number), lua.LNumber(page.Size))
		if err != nil {
			return nil, err
		}

		items, err := itemsFromTable(val.(*lua.LTable))
		return fetch.DecodeFunc(func() ([]*media.Media, error) {
			return items, err
		}), nil
	})
}

func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	return m != nil && m.Source == s.id && m.ID != "" && s.Has(constant.ResolveFn)
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, _ []media.Key) error {
	if !s.Has(constant.ResolveFn) {
		return source.ErrUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	val, err := s.call(ctx, constant.ResolveFn, lua.LTTable, itemToTable(s.state, m))
	if err != nil {
		return fetch.TransportError(err)
	}

	resolved, err := itemFromTable(val.(*lua.LTable))
	if err != nil {
		return fetch.DecodeError(err)
	}

	m.Merge(resolved)
	return nil
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

// Close stops running operations and releases the Lua state.
func (s *Source) Close() error {
	err := s.driver.Close()

	s.mu.Lock()
	s.state.Close()
	s.mu.Unlock()

	return err
}

// call invokes a global function. The caller holds s.mu.
func (s *Source) call(ctx context.Context, fn string, retType lua.LValueType, args ...lua.LValue) (lua.LValue, error) {
	luaFn := s.state.GetGlobal(fn)
	if luaFn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("function %s is not defined", fn)
	}

	s.state.SetContext(ctx)
	defer s.state.RemoveContext()

	err := s.state.CallByParam(lua.P{
		Fn:      luaFn,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return nil, err
	}

	retval := s.state.Get(-1)
	s.state.Pop(1)

	if retval.Type() != retType {
		return nil, fetch.DecodeError(fmt.Errorf("%s returned %s, expected %s", fn, retval.Type(), retType))
	}

	return retval, nil
}
