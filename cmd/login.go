package cmd

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trawl-media/trawl/auth"
	"github.com/trawl-media/trawl/color"
	"github.com/trawl-media/trawl/icon"
	"github.com/trawl-media/trawl/provider"
	"github.com/trawl-media/trawl/style"
)

func completionLoginSources(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.FilterMap(provider.Builtins(), func(p *provider.Provider, _ int) (string, bool) {
		return p.ID, p.NeedsLogin
	}), cobra.ShellCompDirectiveNoFileComp
}

func loginProvider(id string) *provider.Provider {
	p, err := provider.MustFind(id)
	handleErr(err)

	if !p.NeedsLogin {
		handleErr(fmt.Errorf("%s does not use a login", id))
	}
	return p
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)

	loginCmd.Flags().StringP("user", "u", "", "User name, prompted when empty")
}

var loginCmd = &cobra.Command{
	Use:               "login <source>",
	Short:             "Store the credentials of a source in the system keyring",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionLoginSources,
	Run: func(cmd *cobra.Command, args []string) {
		p := loginProvider(args[0])

		var credentials auth.Credentials
		credentials.User = lo.Must(cmd.Flags().GetString("user"))

		if credentials.User == "" {
			input := survey.Input{
				Message: fmt.Sprintf("%s user name:", p.Name),
			}
			handleErr(survey.AskOne(&input, &credentials.User))
		}

		if credentials.User == "" {
			handleErr(errors.New("user name cannot be empty"))
		}

		password := survey.Password{
			Message: fmt.Sprintf("%s password:", p.Name),
		}
		handleErr(survey.AskOne(&password, &credentials.Password))

		handleErr(auth.Set(p.ID, credentials))
		fmt.Printf("%s logged in to %s as %s\n", icon.Get(icon.Success), p.Name, style.Fg(color.Yellow)(credentials.User))
	},
}

var logoutCmd = &cobra.Command{
	Use:               "logout <source>",
	Short:             "Forget the stored credentials of a source",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionLoginSources,
	Run: func(cmd *cobra.Command, args []string) {
		p := loginProvider(args[0])

		handleErr(auth.Delete(p.ID))
		fmt.Printf("%s logged out of %s\n", icon.Get(icon.Success), p.Name)
	},
}
