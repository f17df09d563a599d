package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trawl-media/trawl/color"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/icon"
	"github.com/trawl-media/trawl/internal/scraper"
	"github.com/trawl-media/trawl/provider"
	"github.com/trawl-media/trawl/style"
	"github.com/trawl-media/trawl/util"
	"github.com/trawl-media/trawl/where"
)

const luaExtension = ".lua"

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage built-in and custom sources",
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)

	sourcesListCmd.Flags().BoolP("raw", "r", false, "Print ids only")
	sourcesListCmd.Flags().BoolP("custom", "c", false, "Only list custom Lua sources")
	sourcesListCmd.Flags().BoolP("builtin", "b", false, "Only list built-in sources")
	sourcesListCmd.Flags().BoolP("json", "j", false, "Print sources as JSON lines")

	sourcesListCmd.MarkFlagsMutuallyExclusive("custom", "builtin")
	sourcesListCmd.SetOut(os.Stdout)
}

type sourceInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Custom       bool     `json:"custom"`
	Capabilities []string `json:"capabilities"`
}

func describe(p *provider.Provider) sourceInfo {
	info := sourceInfo{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Custom:      p.IsCustom,
	}

	if src, err := p.CreateSource(); err == nil {
		info.Capabilities = provider.Capabilities(src)
		if d := src.Description(); d != "" {
			info.Description = d
		}
		closeSource(src)
	}
	return info
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available sources",
	Run: func(cmd *cobra.Command, args []string) {
		var providers []*provider.Provider
		switch {
		case lo.Must(cmd.Flags().GetBool("builtin")):
			providers = provider.Builtins()
		case lo.Must(cmd.Flags().GetBool("custom")):
			providers = provider.Customs()
		default:
			providers = provider.All()
		}

		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, p := range providers {
				cmd.Println(p.ID)
			}
			return
		}

		asJson := lo.Must(cmd.Flags().GetBool("json"))
		encoder := json.NewEncoder(cmd.OutOrStdout())
		for _, p := range providers {
			info := describe(p)
			if asJson {
				handleErr(encoder.Encode(info))
				continue
			}

			kind := icon.Get(icon.Go)
			if info.Custom {
				kind = icon.Get(icon.Lua)
			}
			cmd.Printf("%s %s %s\n", kind, style.Fg(color.Yellow)(info.ID), style.Faint(info.Description))
			if len(info.Capabilities) > 0 {
				cmd.Printf("    %s\n", style.Fg(color.Cyan)(strings.Join(info.Capabilities, " ")))
			}
		}
	},
}

func completionCustomSources(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	sources, err := filesystem.API().ReadDir(where.Sources())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return lo.FilterMap(sources, func(item os.FileInfo, _ int) (string, bool) {
		name := item.Name()
		if !strings.HasSuffix(name, luaExtension) {
			return "", false
		}
		return util.FileStem(name), true
	}), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	sourcesCmd.AddCommand(sourcesRemoveCmd)
}

var sourcesRemoveCmd = &cobra.Command{
	Use:               "remove <name>...",
	Short:             "Uninstall custom Lua sources",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completionCustomSources,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			path := filepath.Join(where.Sources(), name+luaExtension)
			handleErr(filesystem.API().Remove(path))
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		}
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesInstallCmd)
	sourcesInstallCmd.Flags().StringP("name", "n", "", "File name of the installed script, defaults to the name in the url")
}

var sourcesInstallCmd = &cobra.Command{
	Use:     "install <url>",
	Short:   "Download a Lua source script",
	Example: "  trawl sources install https://example.com/scripts/archive.lua",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		remote, err := url.Parse(args[0])
		handleErr(err)

		name := lo.Must(cmd.Flags().GetString("name"))
		if name == "" {
			name = util.FileStem(path.Base(remote.Path))
		}
		name = util.SanitizeFilename(name)
		if name == "" {
			handleErr(fmt.Errorf("cannot derive a script name from %s, pass --name", args[0]))
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		erase := util.PrintErasable(fmt.Sprintf("%s Downloading %s...", icon.Get(icon.Progress), remote))
		changed, err := scraper.Install(ctx, remote.String(), filepath.Join(where.Sources(), name+luaExtension))
		erase()
		handleErr(err)

		if changed {
			fmt.Printf("%s installed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		} else {
			fmt.Printf("%s %s is up to date\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		}
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesGenCmd)

	sourcesGenCmd.Flags().StringP("name", "n", "", "Name of the new source")
	sourcesGenCmd.Flags().StringP("url", "u", "", "Base URL of the catalog the source reads")

	lo.Must0(sourcesGenCmd.MarkFlagRequired("name"))
	lo.Must0(sourcesGenCmd.MarkFlagRequired("url"))
}

var sourcesGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Scaffold a new Lua source script",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(os.Stdout)

		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		s := struct {
			Name        string
			URL         string
			Author      string
			SearchFn    string
			BrowseFn    string
			SourceTable string
		}{
			Name:        lo.Must(cmd.Flags().GetString("name")),
			URL:         lo.Must(cmd.Flags().GetString("url")),
			Author:      author,
			SearchFn:    constant.SearchFn,
			BrowseFn:    constant.BrowseFn,
			SourceTable: constant.SourceTable,
		}

		funcMap := template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    util.Max[int],
		}

		tmpl, err := template.New("source").Funcs(funcMap).Parse(constant.SourceTemplate)
		handleErr(err)

		target := filepath.Join(where.Sources(), util.SanitizeFilename(s.Name)+luaExtension)
		f, err := filesystem.API().Create(target)
		handleErr(err)

		defer util.Ignore(f.Close)

		handleErr(tmpl.Execute(f, s))
		cmd.Println(target)
	},
}
