package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/storage/database"
)

func newCreateDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "createdb",
		Short: "Create the application database and user if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := core.NewConfig()
			if err != nil {
				return errors.Wrap(err, "loading config")
			}
			if err := database.CreateIfNotExist(conf); err != nil {
				return errors.Wrap(err, "creating database")
			}
			cmd.Println("database ready")
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := core.NewConfig()
			if err != nil {
				return errors.Wrap(err, "loading config")
			}
			db, err := database.Open(conf)
			if err != nil {
				return errors.Wrap(err, "opening database")
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return errors.Wrap(err, "migrating database")
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}
