package constant

// Lua source entry points. A script must define SearchFn; the others are optional.
const (
	SearchFn  = "search"
	BrowseFn  = "browse"
	ResolveFn = "resolve"

	// SourceTable is the global table a script uses to describe itself.
	SourceTable = "source"
)

// SourceTemplate is a Go text/template for scaffolding new Lua source files.
const SourceTemplate = `{{ $divider := repeat "-" (plus (max (len .URL) (len .Name) (len .Author) 3) 12) }}{{ $divider }}
-- @name    {{ .Name }}
-- @url     {{ .URL }}
-- @author  {{ .Author }}
-- @license MIT
{{ $divider }}


---@alias item { id: string, title: string, url: string|nil, kind: "container"|"audio"|"video"|"image"|"text"|nil, description: string|nil, thumbnail: string|nil, author: string|nil, duration: number|nil, published: string|nil }


----- IMPORTS -----
--- END IMPORTS ---



----- SOURCE -----

{{ .SourceTable }} = {
	name = "{{ .Name }}",
	page_size = 20,
}

--- END SOURCE ---



----- MAIN -----

--- Searches the catalog. Pages are 1-based.
-- @param query string Query to search for
-- @param page number Page to fetch
-- @param size number Items per page
-- @return item[] Items of the page, empty when exhausted
function {{ .SearchFn }}(query, page, size)
	return {}
end


--- Lists the children of a container. An empty id means the root.
-- @param id string Container id
-- @param page number Page to fetch
-- @param size number Items per page
-- @return item[] Items of the page, empty when exhausted
function {{ .BrowseFn }}(id, page, size)
	return {}
end


--- END MAIN ---




----- HELPERS -----
--- END HELPERS ---

-- ex: ts=4 sw=4 et filetype=lua
`
