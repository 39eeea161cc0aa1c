package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/auth"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/trip"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/container"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

type generateOptions struct {
	location  string
	days      int
	travelers string
	budget    string
	email     string
}

func init() {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a trip once and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.location, "location", "l", "", "Destination (required)")
	cmd.Flags().IntVarP(&opts.days, "days", "d", 0, "Trip length in days (required)")
	cmd.Flags().StringVarP(&opts.travelers, "travelers", "t", "couple", "Just Me, Couple, Family or Friends")
	cmd.Flags().StringVarP(&opts.budget, "budget", "b", "medium", "Low, Medium or Luxury")
	cmd.Flags().StringVarP(&opts.email, "email", "e", "", "Owner of the generated trip (required)")

	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("days")
	_ = cmd.MarkFlagRequired("email")

	RootCmd.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	if cfg.JWT.SecretKey == "" {
		// the CLI never issues tokens
		cfg.JWT.SecretKey = ulid.Make().String()
	}

	c, err := container.NewContainer(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer c.Close()

	return generateTrip(cmd.Context(), c.TripService, c.Sessions, opts, cmd.OutOrStdout(), logger)
}

// generateTrip signs a throwaway session in as opts.email and runs one
// generation. A plan that failed to save is still printed.
func generateTrip(ctx context.Context, svc trip.TripService, sessions *auth.SessionProvider, opts *generateOptions, out io.Writer, logger *slog.Logger) error {
	req, err := svc.Validate(types.TripRequest{
		Location:  opts.location,
		Days:      opts.days,
		Travelers: types.TravelerGroup(opts.travelers),
		Budget:    types.BudgetLevel(opts.budget),
	})
	if err != nil {
		return err
	}
	email := strings.TrimSpace(opts.email)
	if email == "" {
		return errors.New("--email is required")
	}

	sessionID := ulid.Make().String()
	sessions.SignIn(sessionID, types.Identity{UserID: email, Email: email, Provider: "cli", SignedInAt: time.Now().UTC()})
	defer sessions.SignOut(sessionID)

	result, err := svc.Generate(ctx, sessionID, req, stderrObserver{logger: logger})
	if err != nil {
		return fmt.Errorf("generation failed (%s): %w", types.Kind(err), err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Saved() {
		return fmt.Errorf("trip %s generated but not saved: %w", result.TripID, result.PersistErr)
	}
	return nil
}

type stderrObserver struct {
	logger *slog.Logger
}

func (o stderrObserver) StateChanged(state types.GenerationState) {
	o.logger.Info("Generation state", slog.String("state", string(state)))
}

func (o stderrObserver) AuthRequired(signInURL string) {
	fmt.Fprintf(os.Stderr, "sign in to continue: %s\n", signInURL)
}
