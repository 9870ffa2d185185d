package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	cli "github.com/blimu-dev/skill-gen/internal/cli"
	"github.com/blimu-dev/skill-gen/pkg/logger"
)

func init() {
	viper.SetEnvPrefix("SKILLGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", logger.FormatText)
}

// mustBind binds a flag to a viper key. It only fails for a nil flag,
// which is a programming error.
func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		log.Fatalf("failed to bind flag %s: %v", key, err)
	}
}

func main() {
	root := &cobra.Command{
		Use:           "skill-gen",
		Short:         "Generate Agent Skills from OpenAPI specs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.SetLogLevel(viper.GetString("log-level")); err != nil {
				return err
			}
			return logger.SetLogFormat(viper.GetString("log-format"))
		},
	}

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", logger.FormatText, "Log format (text or json)")
	mustBind("log-level", root.PersistentFlags().Lookup("log-level"))
	mustBind("log-format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newInspectCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func newGenerateCmd() *cobra.Command {
	var p cli.GenerateParams
	var includeTags, excludeTags, excludePaths, excludePathRegex, excludePathGlobs []string

	cmd := &cobra.Command{
		Use:   "generate [input]",
		Short: "Convert an OpenAPI spec into an Agent Skill",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				p.Input = args[0]
			}
			p.OutDir = viper.GetString("output")
			p.Templates = viper.GetString("templates")
			p.IncludeTags = cli.SplitList(includeTags)
			p.ExcludeTags = cli.SplitList(excludeTags)
			p.ExcludePaths = cli.SplitList(excludePaths)
			p.ExcludePathRegex = cli.SplitList(excludePathRegex)
			p.ExcludePathGlobs = cli.SplitList(excludePathGlobs)
			return cli.RunGenerate(cmd.Context(), p, cli.NewPresenter())
		},
	}

	cmd.Flags().StringVarP(&p.ConfigPath, "config", "c", "", "Path to skill-gen.yaml config")
	cmd.Flags().StringVar(&p.OnlySkill, "skill", "", "Generate only the named skill from config")
	cmd.Flags().StringP("output", "o", "", "Output directory (default ./output)")
	cmd.Flags().StringP("templates", "t", "", "Custom templates directory")
	cmd.Flags().StringVarP(&p.Name, "name", "n", "", "Skill name (default: derived from API title)")
	cmd.Flags().StringVar(&p.GroupBy, "group-by", "", "Group operations by tags, path or auto")
	cmd.Flags().StringSliceVar(&includeTags, "include-tags", nil, "Only include these tags (comma-separated)")
	cmd.Flags().StringSliceVar(&excludeTags, "exclude-tags", nil, "Exclude these tags (comma-separated)")
	cmd.Flags().BoolVar(&p.ExcludeDeprecated, "exclude-deprecated", false, "Exclude deprecated operations")
	cmd.Flags().StringSliceVar(&excludePaths, "exclude-paths", nil, "Exclude paths starting with these prefixes (comma-separated)")
	cmd.Flags().StringSliceVar(&excludePathRegex, "exclude-path-regex", nil, "Exclude paths matching these regular expressions")
	cmd.Flags().StringSliceVar(&excludePathGlobs, "exclude-path-globs", nil, "Exclude paths matching these globs")
	cmd.Flags().BoolVarP(&p.Force, "force", "f", false, "Overwrite existing output directory")
	cmd.Flags().BoolVarP(&p.Quiet, "quiet", "q", false, "Suppress output except errors")
	cmd.Flags().BoolVar(&p.DryRun, "dry-run", false, "Render in memory and list the files that would be written")

	mustBind("output", cmd.Flags().Lookup("output"))
	mustBind("templates", cmd.Flags().Lookup("templates"))

	return cmd
}

func newValidateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <input>",
		Short: "Validate an OpenAPI spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunValidate(cmd.Context(), args[0], strict, cli.NewPresenter())
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Run full OpenAPI 3 validation, including references")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <skill-dir>",
		Short: "Summarize a generated skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cli.RunInspect(args[0], cli.NewPresenter())
			return err
		},
	}
}
