package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/geodocs/skillserve/pkg/presenter"
	"github.com/geodocs/skillserve/pkg/skills"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Inspect the skill registry",
	Long:  `List and inspect the skills served from the configured skills directory.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all loaded skills",
	Long:  `List all loaded skills with their names, descriptions and file counts.`,
	Run: func(cmd *cobra.Command, _ []string) {
		listSkillsCmd(cmd)
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Show a skill's manifest and files",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showSkillCmd(cmd, args[0])
	},
}

var skillReadCmd = &cobra.Command{
	Use:   "read <skill-name> [path]",
	Short: "Print a skill file's content",
	Long: `Print the content of one skill file. The path defaults to SKILL.md;
supporting files are addressed as <subdir>/<filename> with subdir one of
scripts, references, assets.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		path := ""
		if len(args) == 2 {
			path = args[1]
		}
		readSkillCmd(cmd, args[0], path)
	},
}

func init() {
	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillReadCmd)
	rootCmd.AddCommand(skillCmd)
}

func newRepository() *skills.Repository {
	return skills.NewRepository(afero.NewOsFs(), viper.GetString("skills_dir"))
}

func listSkillsCmd(cmd *cobra.Command) {
	repo := newRepository()
	snap := repo.Load(cmd.Context(), false)

	if len(snap.Skills) == 0 {
		presenter.Info("No skills loaded.")
		if snap.Report.Failed() > 0 {
			presenter.Warning(fmt.Sprintf("%d skill directories failed to load", snap.Report.Failed()))
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tFILES\tPATH")
	for _, skill := range repo.List(cmd.Context()) {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", skill.Name, skill.Description, len(skill.AvailableFiles), skill.Path)
	}
	w.Flush()

	if snap.Report.Skipped() > 0 {
		presenter.Warning(fmt.Sprintf("%d duplicate skill directories were skipped", snap.Report.Skipped()))
	}
	if snap.Report.Failed() > 0 {
		presenter.Warning(fmt.Sprintf("%d skill directories failed to load", snap.Report.Failed()))
	}
}

func showSkillCmd(cmd *cobra.Command, name string) {
	repo := newRepository()

	skill, err := repo.Lookup(cmd.Context(), name)
	if err != nil {
		presenter.Error(err, "failed to look up skill")
		os.Exit(1)
	}

	presenter.Section(skill.Name)
	presenter.Info(skill.Description)
	presenter.Info("Path: " + skill.Path)
	presenter.Info("Files: " + strings.Join(skill.AvailableFiles, ", "))

	if len(skill.Metadata) > 0 {
		keys := make([]string, 0, len(skill.Metadata))
		for k := range skill.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		presenter.Info("Metadata:")
		for _, k := range keys {
			presenter.Info(fmt.Sprintf("  %s: %v", k, skill.Metadata[k]))
		}
	}
}

func readSkillCmd(cmd *cobra.Command, name, path string) {
	repo := newRepository()

	content, err := repo.ReadContent(cmd.Context(), name, path)
	if err != nil {
		presenter.Error(err, "failed to read skill file")
		os.Exit(1)
	}

	fmt.Print(content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Println()
	}
}
