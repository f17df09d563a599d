package custom

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/trawl-media/trawl/media"
	lua "github.com/yuin/gopher-lua"
)

// Helper to get string from table with default
func getString(table *lua.LTable, key string) string {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTString, lua.LTNumber:
		return val.String()
	default:
		return ""
	}
}

func getInt(table *lua.LTable, key string) int {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTNumber:
		return int(val.(lua.LNumber))
	case lua.LTString:
		n, _ := strconv.Atoi(strings.TrimSpace(val.String()))
		return n
	default:
		return 0
	}
}

// Helper to get string list from table (comma-separated or table)
func getStringList(table *lua.LTable, key string) []string {
	val := table.RawGetString(key)
	if val.Type() == lua.LTString {
		return lo.Compact(lo.Map(strings.Split(val.String(), ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
	}
	if val.Type() == lua.LTTable {
		var list []string
		val.(*lua.LTable).ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString {
				list = append(list, v.String())
			}
		})
		return list
	}
	return nil
}

var dateLayouts = []string{time.RFC3339, time.RFC1123Z, time.RFC1123, "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// itemsFromTable converts the array part of table. Non-table entries are an error.
func itemsFromTable(table *lua.LTable) ([]*media.Media, error) {
	items := make([]*media.Media, 0, table.Len())
	for i := 1; i <= table.Len(); i++ {
		entry, ok := table.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("item %d is %s, expected table", i, table.RawGetInt(i).Type())
		}

		item, err := itemFromTable(entry)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func itemFromTable(table *lua.LTable) (*media.Media, error) {
	m := &media.Media{
		ID:          getString(table, "id"),
		Title:       getString(table, "title"),
		URL:         getString(table, "url"),
		Kind:        media.ParseKind(getString(table, "kind")),
		Description: getString(table, "description"),
		Thumbnail:   getString(table, "thumbnail"),
		Author:      getString(table, "author"),
		Artist:      getString(table, "artist"),
		Album:       getString(table, "album"),
		Genre:       getString(table, "genre"),
		MIME:        getString(table, "mime"),
		Site:        getString(table, "site"),
		Show:        getString(table, "show"),
		Season:      getInt(table, "season"),
		Episode:     getInt(table, "episode"),
		Width:       getInt(table, "width"),
		Height:      getInt(table, "height"),
		Size:        int64(getInt(table, "size")),
		Duration:    time.Duration(getInt(table, "duration")) * time.Second,
		Published:   parseDate(getString(table, "published")),
		Keywords:    getStringList(table, "keywords"),
		ChildCount:  -1,
	}

	if m.ID == "" {
		m.ID = m.URL
	}
	if m.ID == "" || m.Title == "" {
		return nil, fmt.Errorf("item must have title and id or url")
	}

	if m.Kind == media.Unknown && m.MIME != "" {
		m.Kind = media.KindFromMIME(m.MIME)
	}
	if m.Kind == media.Container {
		if n := table.RawGetString("child_count"); n.Type() == lua.LTNumber {
			m.ChildCount = int(n.(lua.LNumber))
		}
	}

	return m, nil
}

func itemToTable(L *lua.LState, m *media.Media) *lua.LTable {
	table := L.NewTable()
	set := func(k, v string) {
		if v != "" {
			table.RawSetString(k, lua.LString(v))
		}
	}

	set("id", m.ID)
	set("title", m.Title)
	set("url", m.URL)
	set("kind", m.Kind.String())
	set("description", m.Description)
	set("thumbnail", m.Thumbnail)
	set("author", m.Author)
	set("mime", m.MIME)
	if m.Duration > 0 {
		table.RawSetString("duration", lua.LNumber(m.Duration.Seconds()))
	}
	return table
}
