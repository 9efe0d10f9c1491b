package main

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/atinyakov/PodStudio/internal/client"
	"github.com/atinyakov/PodStudio/internal/models"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	episodesCmd := &cobra.Command{
		Use:     "episodes",
		Aliases: []string{"episode"},
		Short:   "Manage episodes",
	}

	episodesCmd.AddCommand(newEpisodesAddCommand(ctx))
	episodesCmd.AddCommand(newEpisodesShowCommand(ctx))
	episodesCmd.AddCommand(newEpisodesEditCommand(ctx))
	episodesCmd.AddCommand(newEpisodesDeleteCommand(ctx))

	return episodesCmd
}

func newEpisodesAddCommand(ctx *commandContext) *cobra.Command {
	var (
		projectID      string
		name           string
		transcript     string
		transcriptFile string
		source         string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an episode to a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if transcriptFile != "" {
				if transcript != "" {
					return errors.New("use either --transcript or --transcript-file")
				}
				var err error
				if transcript, err = readTranscript(transcriptFile, cmd.InOrStdin()); err != nil {
					return err
				}
			}
			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				ep, err := api.CreateEpisode(cmd.Context(), token, client.NewEpisode{
					Name:       name,
					Transcript: transcript,
					ProjectID:  projectID,
					Source:     models.Source(source),
				})
				if err != nil {
					return describeAPIError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Episode %q created (id %s)\n", ep.Name, ep.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVarP(&name, "name", "n", "", "episode name")
	cmd.Flags().StringVarP(&transcript, "transcript", "t", "", "transcript text")
	cmd.Flags().StringVarP(&transcriptFile, "transcript-file", "f", "", "read the transcript from a file (- for stdin)")
	cmd.Flags().StringVar(&source, "source", "", "upload, youtube or rss (default upload)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newEpisodesShowCommand(ctx *commandContext) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				ep, err := api.GetEpisode(cmd.Context(), token, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderTable(out, episodeHeaders, [][]string{episodeRow(ep)}, episodeAligns))
				if full && ep.Transcript != "" {
					fmt.Fprintln(out)
					fmt.Fprintln(out, ep.Transcript)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&full, "transcript", false, "print the full transcript")
	return cmd
}

func newEpisodesEditCommand(ctx *commandContext) *cobra.Command {
	var (
		name           string
		transcript     string
		transcriptFile string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename an episode or replace its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd client.EpisodeUpdate
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			switch {
			case cmd.Flags().Changed("transcript") && transcriptFile != "":
				return errors.New("use either --transcript or --transcript-file")
			case cmd.Flags().Changed("transcript"):
				upd.Transcript = &transcript
			case transcriptFile != "":
				text, err := readTranscript(transcriptFile, cmd.InOrStdin())
				if err != nil {
					return err
				}
				upd.Transcript = &text
			}
			if upd.Name == nil && upd.Transcript == nil {
				return errors.New("nothing to change; pass --name, --transcript or --transcript-file")
			}

			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				ep, err := api.UpdateEpisode(cmd.Context(), token, args[0], upd)
				if err != nil {
					return describeAPIError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Episode %q updated\n", ep.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new episode name")
	cmd.Flags().StringVarP(&transcript, "transcript", "t", "", "new transcript text")
	cmd.Flags().StringVarP(&transcriptFile, "transcript-file", "f", "", "read the new transcript from a file (- for stdin)")
	return cmd
}

func newEpisodesDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				if err := api.DeleteEpisode(cmd.Context(), token, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Episode deleted")
				return nil
			})
		},
	}
}

var (
	episodeHeaders = []string{"ID", "Name", "Source", "Transcript", "Created"}
	episodeAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
)

func episodeRow(e models.Episode) []string {
	return []string{
		e.ID,
		e.Name,
		string(e.Source),
		strconv.Itoa(utf8.RuneCountInString(e.Transcript)) + " chars",
		formatTime(e.CreatedAt),
	}
}
