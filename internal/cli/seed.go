package cli

import (
	"fmt"

	"github.com/facebookgo/clock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/storyfeed-backend/internal/cli/colours"
	dbpkg "github.com/yungbote/storyfeed-backend/internal/data/db"
	"github.com/yungbote/storyfeed-backend/internal/data/repos"
	"github.com/yungbote/storyfeed-backend/internal/data/snapshot"
	"github.com/yungbote/storyfeed-backend/internal/services"
)

// dbConfig overlays feedctl settings on the server's DB_* / POSTGRES_* env.
func dbConfig(v *viper.Viper) dbpkg.Config {
	cfg := dbpkg.ConfigFromEnv()
	if d := v.GetString("db.driver"); d != "" {
		cfg.Driver = d
	}
	if dsn := v.GetString("db.dsn"); dsn != "" {
		cfg.DSN = dsn
	}
	return cfg
}

func newSeedCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a snapshot into the content store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd, map[string]string{
				"snapshot":  "snapshot",
				"db-driver": "db.driver",
				"dsn":       "db.dsn",
			}); err != nil {
				return err
			}
			log, err := newLogger(v)
			if err != nil {
				return err
			}
			defer log.Sync()

			snap, err := snapshot.Load(v.GetString("snapshot"))
			if err != nil {
				return err
			}
			store, err := dbpkg.Open(dbConfig(v), log)
			if err != nil {
				return err
			}
			defer store.Close()
			db := store.DB()
			if err := dbpkg.AutoMigrateAll(db); err != nil {
				return err
			}
			if err := dbpkg.EnsureFeedIndexes(db); err != nil {
				return err
			}

			svc := services.NewContentService(db, log, clock.New(),
				repos.NewStoryRepo(db, log),
				repos.NewInfoCardRepo(db, log),
				repos.NewKeywordRepo(db, log),
			)
			res, err := svc.Import(cmd.Context(), snap)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colours.Success.Fprintf(out, "seeded %s\n", store.Driver())
			fmt.Fprintf(out, "  stories:    %d\n  info cards: %d\n  keywords:   %d\n", res.Stories, res.InfoCards, res.Keywords)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("snapshot", "", "snapshot YAML file")
	f.String("db-driver", "", "postgres or sqlite")
	f.String("dsn", "", "database URL, or file path for sqlite")
	return cmd
}
