// Package cmd implements the trawl command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/color"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/icon"
	"github.com/trawl-media/trawl/key"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/provider"
	"github.com/trawl-media/trawl/style"
	"github.com/trawl-media/trawl/util"
	"github.com/trawl-media/trawl/version"
	"github.com/trawl-media/trawl/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant (emoji, nerd, plain, kaomoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// completionSources completes source ids.
func completionSources(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Map(provider.All(), func(p *provider.Provider, _ int) string {
		return p.ID
	}), cobra.ShellCompDirectiveNoFileComp
}

var rootCmd = &cobra.Command{
	Use:   constant.Trawl,
	Short: "Browse, search and resolve media catalogs from the terminal",
	Long: style.New().Bold(true).Foreground(color.HiCyan).Render(constant.Trawl) + "\n\n" +
		style.Italic("Browse, search and resolve media catalogs from the terminal"),
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("version")) {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// errInterrupted is reported when the user cancels a running command.
var errInterrupted = errors.New("interrupted")

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
