// Package custom runs user supplied Lua scripts as sources.
package custom

import (
	"fmt"
	"strings"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/internal/scraper"
	"github.com/trawl-media/trawl/util"
	lua "github.com/yuin/gopher-lua"
)

// defaultPageSize is used when the script does not declare page_size.
const defaultPageSize = 20

// IDfromName derives the source id of a script from its file name.
func IDfromName(name string) string {
	return strings.ToLower(util.SanitizeFilename(name))
}

// LoadSource runs the script at path and wraps it as a source.
func LoadSource(path string) (*Source, error) {
	state := lua.NewState()
	libs.Preload(state)
	registerTLSClient(state)

	if err := scraper.PreCompileAndLoad(state, path); err != nil {
		state.Close()
		return nil, err
	}

	name := util.FileStem(path)
	if state.GetGlobal(constant.SearchFn).Type() != lua.LTFunction {
		state.Close()
		return nil, fmt.Errorf("function %s is required but not defined in %s", constant.SearchFn, name)
	}

	info := sourceInfo{name: name, pageSize: defaultPageSize}
	if tbl, ok := state.GetGlobal(constant.SourceTable).(*lua.LTable); ok {
		if v := getString(tbl, "name"); v != "" {
			info.name = v
		}
		info.description = getString(tbl, "description")
		if size := getInt(tbl, "page_size"); size > 0 {
			info.pageSize = uint32(size)
		}
	}

	return newSource(IDfromName(name), info, state)
}
