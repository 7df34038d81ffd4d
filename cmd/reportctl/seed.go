package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/report"
	"github.com/fyrsmithlabs/reportd/internal/store"
)

var (
	seedURI      string
	seedDatabase string
	seedEmail    string
	seedPassword string
)

// seedCmd loads a demo account and a publishable draft straight into
// the database, bypassing the server.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a demo account and report",
	Long: `Seed the database with a demo account and one draft report that
passes the publish gate. Useful for local development and demos.

Examples:
  # Seed a local database
  reportctl seed

  # Seed a different database with custom credentials
  reportctl seed --uri mongodb://db:27017 --email qa@example.com --password changeme1`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedURI, "uri", "mongodb://localhost:27017", "MongoDB connection URI")
	seedCmd.Flags().StringVar(&seedDatabase, "database", "reportd", "database name")
	seedCmd.Flags().StringVar(&seedEmail, "email", "demo@example.com", "demo account email")
	seedCmd.Flags().StringVar(&seedPassword, "password", "demo-pass-1", "demo account password")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st := store.New(&store.Config{
		URI:            seedURI,
		Database:       seedDatabase,
		ConnectTimeout: 10 * time.Second,
		RetryInterval:  2 * time.Second,
	}, zap.NewNop())
	if err := st.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", seedURI, err)
	}
	defer st.Close(context.Background())

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user := demoUser(seedEmail, string(hash))
	if err := st.Users().Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	r := demoReport(user.ID)
	if err := st.Reports().Upsert(ctx, r); err != nil {
		return fmt.Errorf("failed to create demo report: %w", err)
	}

	fmt.Printf("Seeded account %s with report %s\n", seedEmail, r.ID)
	return nil
}

// demoUser builds the seed account with access to every known project.
func demoUser(email, passwordHash string) *store.User {
	return &store.User{
		ID:           uuid.NewString(),
		Name:         "Demo User",
		Email:        email,
		PasswordHash: passwordHash,
		Projects:     project.NewRegistry(project.Defaults()).IDs(),
	}
}

// demoReport builds a draft for the current week that passes both gates.
func demoReport(ownerID string) *report.WeeklyReport {
	monday := report.MondayOf(time.Now().UTC())
	r := &report.WeeklyReport{
		ID:        uuid.NewString(),
		Scope:     report.ScopeProject,
		ProjectID: "p-checkout",
		StartDate: monday.Format(report.DateLayout),
		EndDate:   monday.AddDate(0, 0, 4).Format(report.DateLayout),
		Status:    report.StatusDraft,
		CreatedBy: ownerID,
		UpdatedBy: ownerID,
		Goals: []report.GoalRow{
			{Goal: "Stabilize checkout regression suite", SuccessMetric: "Flake rate under 1%", Health: report.HealthGreen, Confidence: report.ConfidenceHigh},
		},
		Capacity: report.Capacity{PlannedHours: 120, CommittedHours: 110, LoadStatus: report.LoadNormal},
		Strength: report.Strength{ActiveContributorNames: "Demo User, Priya Patel, Wei Chen"},
		SprintHealth: report.SprintHealth{
			StartDate:   monday.AddDate(0, 0, 7).Format(report.DateLayout),
			GoalClarity: report.HealthGreen,
			Readiness:   report.HealthYellow,
		},
		UEDHealth: report.UEDHealth{
			LastDiscussion: monday.AddDate(0, 0, -7).Format(report.DateLayout),
			DataAvailable:  true,
			Status:         report.HealthGreen,
		},
		Bottlenecks: []string{
			"Staging environment resets wipe test fixtures",
			"Payment sandbox rate limits block load tests",
			"One flaky suite quarantined pending triage",
		},
		Decisions: []report.DecisionItem{
			{DecisionText: "Approve extra device lab slots", OwnerRole: report.RolePM, DueDate: monday.AddDate(0, 0, 9).Format(report.DateLayout)},
			{DecisionText: "Pick the load test tooling", OwnerRole: report.RoleDev},
			{DecisionText: "Sign off exploratory test charter", OwnerRole: report.RoleQA},
		},
		Threads: []report.ThreadRow{
			{Product: "Checkout", Thread: "Hiring loop for senior QA", OwnerID: ownerID, Status: report.ThreadInProgress},
		},
	}
	r.Normalize()
	return r
}
