package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/PodStudio/internal/client"
	"github.com/atinyakov/PodStudio/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage your projects",
	}

	projectsCmd.AddCommand(newProjectsListCommand(ctx))
	projectsCmd.AddCommand(newProjectsCreateCommand(ctx))
	projectsCmd.AddCommand(newProjectsShowCommand(ctx))
	projectsCmd.AddCommand(newProjectsDeleteCommand(ctx))
	projectsCmd.AddCommand(newProjectsEpisodesCommand(ctx))

	return projectsCmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				projects, err := api.ListProjects(cmd.Context(), token)
				if err != nil {
					return err
				}
				if len(projects) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects yet")
					return nil
				}
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, projectRow(p))
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(cmd.OutOrStdout(), projectHeaders, rows, projectAligns))
				return nil
			})
		},
	}
}

func newProjectsCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				p, err := api.CreateProject(cmd.Context(), token, args[0])
				if err != nil {
					return describeAPIError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project %q created (id %s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
}

func newProjectsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				p, err := api.GetProject(cmd.Context(), token, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderTable(out, projectHeaders, [][]string{projectRow(p)}, projectAligns))
				return nil
			})
		},
	}
}

func newProjectsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and all of its episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				if err := api.DeleteProject(cmd.Context(), token, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Project deleted")
				return nil
			})
		},
	}
}

func newProjectsEpisodesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "episodes <id>",
		Short: "List the episodes of a project, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToken(cmd.Context(), func(api *client.Client, token string) error {
				res, err := api.ProjectEpisodes(cmd.Context(), token, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.Count == 0 {
					fmt.Fprintf(out, "Project %q has no episodes\n", res.Project.Name)
					return nil
				}
				rows := make([][]string, 0, len(res.Episodes))
				for _, e := range res.Episodes {
					rows = append(rows, episodeRow(e))
				}
				fmt.Fprint(out, renderTable(out, episodeHeaders, rows, episodeAligns))
				return nil
			})
		},
	}
}

var (
	projectHeaders = []string{"ID", "Name", "Episodes", "Created", "Updated"}
	projectAligns  = []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
)

func projectRow(p models.Project) []string {
	return []string{
		p.ID,
		p.Name,
		strconv.Itoa(p.EpisodeCount),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}
