package main

import (
	"cmp"
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "podstudio",
		Short:         "PodStudio command line client",
		Version:       fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A")),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.serverFlag, "server", "", "API base URL (default $PODSTUDIO_SERVER, the logged in server, or "+defaultServer+")")
	flags.StringVar(&ctx.caFlag, "ca", "", "CA certificate to trust for HTTPS, e.g. certs/ca.crt")
	flags.StringVar(&ctx.tokenFileFlag, "token-file", "", "session file (default in the user config dir)")

	rootCmd.AddCommand(newRegisterCommand(ctx))
	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newLogoutCommand(ctx))
	rootCmd.AddCommand(newWhoamiCommand(ctx))
	rootCmd.AddCommand(newProjectsCommand(ctx))
	rootCmd.AddCommand(newEpisodesCommand(ctx))

	return rootCmd
}
