package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/tc"
	logsvc "github.com/mwalimu/shule/services/logger"
	"github.com/mwalimu/shule/storage/database"
	pgrepos "github.com/mwalimu/shule/storage/database/postgres"
	"github.com/mwalimu/shule/storage/files"
)

func newImportTcCmd() *cobra.Command {
	var csvPath, zipPath string

	cmd := &cobra.Command{
		Use:   "import-tc",
		Short: "Bulk-import TC records from a CSV file and a ZIP of certificate documents",
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
			sdb := sqlx.NewDb(db, conf.Database.Engine)

			logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags), conf)
			logger.Enable(false)

			csvFile, err := os.Open(csvPath)
			if err != nil {
				return errors.Wrap(err, "opening CSV file")
			}
			defer csvFile.Close()
			csvInfo, err := csvFile.Stat()
			if err != nil {
				return errors.Wrap(err, "reading CSV file info")
			}

			zipFile, err := os.Open(zipPath)
			if err != nil {
				return errors.Wrap(err, "opening ZIP file")
			}
			defer zipFile.Close()
			zipInfo, err := zipFile.Stat()
			if err != nil {
				return errors.Wrap(err, "reading ZIP file info")
			}

			svc := tc.NewService(conf, pgrepos.NewTcRepository(sdb), files.NewStore(conf), nil, logger)
			outcome, err := svc.Import(cmd.Context(), tc.ImportOptions{
				CSV:         csvFile,
				CSVSize:     csvInfo.Size(),
				Archive:     zipFile,
				ArchiveSize: zipInfo.Size(),
			})
			if err != nil {
				return errors.Wrap(err, "importing records")
			}

			cmd.Println(outcome.Summary())
			if reasons, more := outcome.CappedReasons(conf.Import.MaxReportedSkips); len(reasons) > 0 {
				cmd.Println("skipped rows:")
				for _, r := range reasons {
					if r.TcNumber != "" {
						cmd.Println(fmt.Sprintf("  row %d (%s): %s", r.Row, r.TcNumber, r.Reason))
					} else {
						cmd.Println(fmt.Sprintf("  row %d: %s", r.Row, r.Reason))
					}
				}
				if more > 0 {
					cmd.Println(fmt.Sprintf("  +%d more", more))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the records CSV file (required)")
	cmd.Flags().StringVar(&zipPath, "zip", "", "path to the ZIP of certificate documents (required)")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("zip")

	return cmd
}
