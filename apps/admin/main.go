package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "shule-admin",
		Short: "Administration commands for the Shule backend",
	}
	root.AddCommand(
		newCreateDBCmd(),
		newMigrateCmd(),
		newImportTcCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
