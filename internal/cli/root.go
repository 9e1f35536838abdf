package cli

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

// NewRootCommand builds feedctl. Settings come from flags, FEEDCTL_* env
// vars or feedctl.yaml, in that order of precedence.
func NewRootCommand(out io.Writer) *cobra.Command {
	v := viper.New()
	v.SetConfigName("feedctl")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.storyfeed")
	v.AddConfigPath(".")
	v.SetEnvPrefix("FEEDCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	root := &cobra.Command{
		Use:   "feedctl",
		Short: "Inspect and load storyfeed content",
		Long: `feedctl works with YAML content snapshots: it validates them, loads
them into the content store and previews the feed a reader would get.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if v.GetBool("no_color") {
				color.NoColor = true
			}
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				v.SetConfigFile(path)
			}
			if err := v.ReadInConfig(); err != nil {
				if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
					return err
				}
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().String("config", "", "config file (default ./feedctl.yaml)")
	root.PersistentFlags().Bool("quiet", false, "suppress logs")
	root.PersistentFlags().Bool("no-color", false, "disable coloured output")
	_ = v.BindPFlag("quiet", root.PersistentFlags().Lookup("quiet"))
	_ = v.BindPFlag("no_color", root.PersistentFlags().Lookup("no-color"))

	root.AddCommand(
		newDistributeCommand(v),
		newSeedCommand(v),
		newValidateCommand(v),
		newLevelsCommand(),
	)
	return root
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_mode", "cli")
	v.SetDefault("snapshot", "content.yaml")
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("feed.language", "fr")
	v.SetDefault("feed.level", "A1")
	v.SetDefault("feed.page_size", 10)
}

// bindFlags ties flag names to viper keys for the command being run. Binding
// happens at run time since several subcommands share the same keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(v *viper.Viper) (*logger.Logger, error) {
	if v.GetBool("quiet") {
		return logger.Nop(), nil
	}
	return logger.New(v.GetString("log_mode"))
}
