package cli

import (
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/config"
)

// ProjectsResult is the JSON payload of the projects command.
type ProjectsResult struct {
	Home     string           `json:"home"`
	Current  string           `json:"current"`
	Projects []config.Project `json:"projects"`
}

// NewProjectsCommand creates the projects command.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects under $TRANSITIONS_HOME",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjects(rootOpts, cmd)
		},
	}
}

func runProjects(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg := opts.Config()

	projects, err := cfg.ListProjects()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list projects", err)
	}

	if f.JSON() {
		return f.Success(ProjectsResult{Home: cfg.Home, Current: cfg.Project, Projects: projects})
	}

	if len(projects) == 0 {
		f.Printf("no projects under %s\n", cfg.ProjectsDir())
		return nil
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	for _, p := range projects {
		mark := " "
		if p.Name == cfg.Project {
			mark = "*"
		}
		status := ""
		if !p.Initialized {
			status = dim.Sprint("(not initialized)")
		}
		_, _ = tw.Write([]byte(mark + " " + p.Name + "\t" + p.Path + "\t" + status + "\n"))
	}
	return tw.Flush()
}
