package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/yoockh/hirelink/config"
	mongorepo "github.com/yoockh/hirelink/internal/repositories/mongo"
	"github.com/yoockh/hirelink/internal/services"
)

var reconcileSettle time.Duration

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-counters",
	Short: "Recompute every posting's applicant counter from its applications",
	Long: `Recompute every posting's applicant counter from its applications.

Safe to run alongside live traffic: postings that received an application
within --settle are skipped and picked up by a later run, and a counter is
only overwritten if it still holds the value read at the start.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger()

		if err := config.InitMongo(); err != nil {
			return err
		}
		defer config.MongoClient.Disconnect(cmd.Context())

		db := config.MongoDatabase()
		postings := mongorepo.NewPostingRepo(db)
		applications := mongorepo.NewApplicationRepo(db)

		// Redis is optional here; without it cached postings simply expire.
		svc := services.NewPostingService(postings, applications, nil, postingCache(log), time.Minute, nil, log)

		start := time.Now()
		fixed, err := svc.ReconcileApplicantCounts(cmd.Context(), reconcileSettle)
		if err != nil {
			return err
		}
		log.WithField("repaired", fixed).WithField("took_ms", time.Since(start).Milliseconds()).Info("applicant counters reconciled")
		cmd.Printf("repaired %d posting counter(s)\n", fixed)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileSettle, "settle", services.DefaultReconcileSettle, "skip postings with applications newer than this")
}
