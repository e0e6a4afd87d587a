package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/javuy-backend/internal/app"
	"github.com/yungbote/javuy-backend/internal/services"
)

var (
	adminUsername   string
	adminPassword   string
	learnerUsername string
	learnerPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset users, chapters and progress to the starter set",
	Long: `Wipes users, sessions, chapters and progress, then creates the admin account,
a demo learner and the starter chapters. Labs are left alone; see seed-labs.

Passwords default to SEED_ADMIN_PASSWORD and SEED_LEARNER_PASSWORD.`,
	RunE: runSeed,
}

var seedLabsCmd = &cobra.Command{
	Use:   "seed-labs",
	Short: "Upsert the starter labs",
	RunE:  runSeedLabs,
}

func init() {
	seedCmd.Flags().StringVar(&adminUsername, "admin-username", "admin", "Admin account username")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "Admin account password")
	seedCmd.Flags().StringVar(&learnerUsername, "learner-username", "learner", "Demo learner username")
	seedCmd.Flags().StringVar(&learnerPassword, "learner-password", os.Getenv("SEED_LEARNER_PASSWORD"), "Demo learner password")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if adminPassword == "" || learnerPassword == "" {
		return errors.New("--admin-password and --learner-password are required")
	}
	return withApp(cmd.Context(), func(a *app.App) error {
		if err := a.Migrate(); err != nil {
			return err
		}
		report, err := a.Services.Seed.Seed(cmd.Context(), services.SeedOptions{
			Admin:   services.SeedAccount{Username: adminUsername, Password: adminPassword},
			Learner: services.SeedAccount{Username: learnerUsername, Password: learnerPassword},
		})
		if err != nil {
			return err
		}
		a.Log.Info("Seed complete", "users", report.Users, "chapters", report.Chapters)
		return nil
	})
}

func runSeedLabs(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		if err := a.Migrate(); err != nil {
			return err
		}
		report, err := a.Services.Seed.SeedLabs(cmd.Context())
		if err != nil {
			return err
		}
		a.Log.Info("Labs seeded", "labs", report.Labs)
		return nil
	})
}
