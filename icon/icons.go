package icon

// Icon identifies one symbol of the registry.
type Icon int

const (
	Lua Icon = iota
	Go
	Fail
	Success
	Progress
	Question
	Mark
	Search
	Link
	Folder
	Audio
	Video
	Image
	Text
	File
)

var icons = map[Icon]*iconDef{
	Lua:      {emoji: "🌙", nerd: "", plain: "Lua", kaomoji: "(=^･ω･^=)", squares: "🟦"},
	Go:       {emoji: "🐹", nerd: "", plain: "Go", kaomoji: "ʕ•ᴥ•ʔ", squares: "🟦"},
	Fail:     {emoji: "💀", nerd: "", plain: "X", kaomoji: "(╥﹏╥)", squares: "🟥"},
	Success:  {emoji: "🎉", nerd: "", plain: "OK", kaomoji: "(ᵔ◡ᵔ)", squares: "🟩"},
	Progress: {emoji: "👾", nerd: "", plain: "...", kaomoji: "(・_・)ノ", squares: "🟪"},
	Question: {emoji: "🤨", nerd: "", plain: "?", kaomoji: "(・・ ) ?", squares: "🟨"},
	Mark:     {emoji: "🦄", nerd: "", plain: "*", kaomoji: "(＾▽＾)", squares: "🟪"},
	Search:   {emoji: "🔍", nerd: "", plain: "?", kaomoji: "(・ω・)", squares: "🟨"},
	Link:     {emoji: "🔗", nerd: "", plain: "->", kaomoji: "(→_→)", squares: "🟫"},
	Folder:   {emoji: "📁", nerd: "", plain: "[+]", kaomoji: "(⌐■_■)", squares: "🟧"},
	Audio:    {emoji: "🎵", nerd: "", plain: "[a]", kaomoji: "♪(´▽｀)", squares: "🟦"},
	Video:    {emoji: "🎬", nerd: "", plain: "[v]", kaomoji: "(☞ﾟヮﾟ)☞", squares: "🟥"},
	Image:    {emoji: "🖼️", nerd: "", plain: "[i]", kaomoji: "(◕‿◕)", squares: "🟩"},
	Text:     {emoji: "📝", nerd: "", plain: "[t]", kaomoji: "φ(．．)", squares: "⬜"},
	File:     {emoji: "📄", nerd: "", plain: "[-]", kaomoji: "(・_・)", squares: "⬛"},
}
