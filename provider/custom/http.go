package custom

import (
	"context"
	"net/http"
	"time"

	"github.com/trawl-media/trawl/internal/cache"
	"github.com/trawl-media/trawl/network"
	lua "github.com/yuin/gopher-lua"
)

const httpTimeout = 30 * time.Second

var tlsClient = &http.Client{Timeout: httpTimeout, Transport: network.Fingerprinted}

// registerTLSClient exposes the fingerprinted client as the http_tls module:
//
//	http_tls.get(url [, headers])                     -> body
//	http_tls.request{method, url, headers, body, cache} -> {status, body}
func registerTLSClient(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(httpTLSGet))
	L.SetField(mod, "request", L.NewFunction(httpTLSRequest))
	L.SetGlobal("http_tls", mod)
}

func luaContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func headersOf(tbl *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if tbl != nil {
		tbl.ForEach(func(k, v lua.LValue) {
			headers[k.String()] = v.String()
		})
	}
	return headers
}

func httpTLSGet(L *lua.LState) int {
	url := L.CheckString(1)
	headers := headersOf(L.OptTable(2, nil))

	body, err := network.Do(luaContext(L), network.Request{URL: url, Header: headers, Client: tlsClient})
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(body))
	return 1
}

type cachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func httpTLSRequest(L *lua.LState) int {
	opts := L.CheckTable(1)

	req := network.Request{
		Method: getString(opts, "method"),
		URL:    getString(opts, "url"),
		Client: tlsClient,
	}
	if req.URL == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if body := getString(opts, "body"); body != "" {
		req.Body = []byte(body)
	}
	if tbl, ok := opts.RawGetString("headers").(*lua.LTable); ok {
		req.Header = headersOf(tbl)
	}

	shouldCache := lua.LVAsBool(opts.RawGetString("cache"))
	cacheKey := cache.Key(req.Method, req.URL, string(req.Body))

	var resp cachedResponse
	if !shouldCache || !cache.Read(cacheKey, cache.TTL, &resp) {
		body, err := network.Do(luaContext(L), req)
		if err != nil {
			L.RaiseError("http_tls.request failed: %s", err.Error())
			return 0
		}

		resp = cachedResponse{Status: http.StatusOK, Body: string(body)}
		if shouldCache {
			_ = cache.Write(cacheKey, resp)
		}
	}

	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(resp.Status))
	L.SetField(result, "body", lua.LString(resp.Body))
	L.Push(result)
	return 1
}
