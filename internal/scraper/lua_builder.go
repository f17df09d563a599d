// Package scraper loads Lua source scripts.
package scraper

import (
	"bytes"
	"sync"

	"github.com/trawl-media/trawl/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

type compiled struct {
	hash  string
	proto *lua.FunctionProto
}

var bytecodeCache sync.Map

// PreCompileAndLoad runs the script at path in L, reusing the compiled prototype while the file is unchanged.
func PreCompileAndLoad(L *lua.LState, path string) error {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return err
	}

	hash := digest(data)
	if cached, ok := bytecodeCache.Load(path); ok && cached.(compiled).hash == hash {
		L.Push(L.NewFunctionFromProto(cached.(compiled).proto))
		return L.PCall(0, lua.MultRet, nil)
	}

	chunk, err := parse.Parse(bytes.NewReader(data), path)
	if err != nil {
		return err
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return err
	}

	bytecodeCache.Store(path, compiled{hash: hash, proto: proto})

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}
