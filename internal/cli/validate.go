package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/storyfeed-backend/internal/cli/colours"
	"github.com/yungbote/storyfeed-backend/internal/data/snapshot"
)

var errInvalidSnapshot = errors.New("snapshot is invalid")

func newValidateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [snapshot]",
		Short: "Check a snapshot without loading it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd, map[string]string{"snapshot": "snapshot"}); err != nil {
				return err
			}
			path := v.GetString("snapshot")
			if len(args) == 1 {
				path = args[0]
			}
			out := cmd.OutOrStdout()

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			snap, err := snapshot.Parse(f)
			if err != nil {
				colours.Error.Fprintf(out, "%s\n", path)
				fmt.Fprintln(out, err)
				return errInvalidSnapshot
			}
			colours.Success.Fprintf(out, "%s ok\n", path)
			fmt.Fprintf(out, "  stories:    %d\n  info cards: %d\n  keywords:   %d\n",
				len(snap.Stories), len(snap.InfoCards), len(snap.Keywords))
			if missing := snap.MissingKeywords(); len(missing) > 0 {
				colours.Warning.Fprintf(out, "  %d story keywords have no entry: %v\n", len(missing), missing)
			}
			return nil
		},
	}
	cmd.Flags().String("snapshot", "", "snapshot YAML file")
	return cmd
}
