package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/storyfeed-backend/internal/cli/colours"
	"github.com/yungbote/storyfeed-backend/internal/feed"
)

func newLevelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "levels [level]",
		Short: "Show which story levels a reader can see",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels := feed.Levels
			if len(args) == 1 {
				l, err := feed.ParseLevel(args[0])
				if err != nil {
					return err
				}
				levels = []feed.Level{l}
			}
			out := cmd.OutOrStdout()
			for _, l := range levels {
				names := feed.LevelStrings(feed.AccessibleLevels(l))
				fmt.Fprintf(out, "%s  %s\n", colours.Title.Sprint(l), strings.Join(names, " "))
			}
			return nil
		},
	}
}
