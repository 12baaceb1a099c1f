package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yoockh/hirelink/config"
)

var indexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the MongoDB indexes for postings and applications",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger()

		if err := config.InitMongo(); err != nil {
			return err
		}
		defer config.MongoClient.Disconnect(cmd.Context())

		if err := config.EnsureMongoIndexes(); err != nil {
			return err
		}
		log.Info("mongo indexes ensured")
		return nil
	},
}
