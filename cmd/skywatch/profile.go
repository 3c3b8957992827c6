package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the personalization profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update the profile",
	Long:  "Updates the fields given as flags and saves the whole profile. Unset flags keep their current value.",
	Args:  cobra.NoArgs,
	RunE:  runProfileSet,
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileReset,
}

var profileFlags struct {
	name, location, purpose, lifestyle string
	activities, health, interests      []string
	notifications                      bool
	timeframe, detail                  string
	recommendations                    bool
}

func init() {
	f := profileSetCmd.Flags()
	f.StringVar(&profileFlags.name, "name", "", "your name")
	f.StringVar(&profileFlags.location, "location", "", "city or region")
	f.StringVar(&profileFlags.purpose, "purpose", "", fmt.Sprintf("main purpose %v", model.Purposes))
	f.StringVar(&profileFlags.lifestyle, "lifestyle", "", fmt.Sprintf("lifestyle %v", model.Lifestyles))
	f.StringSliceVar(&profileFlags.activities, "activities", nil, fmt.Sprintf("activities %v", model.Activities))
	f.StringSliceVar(&profileFlags.health, "health", nil, fmt.Sprintf("health considerations %v", model.HealthConditions))
	f.StringSliceVar(&profileFlags.interests, "interests", nil, fmt.Sprintf("data interests %v", model.DataInterests))
	f.BoolVar(&profileFlags.notifications, "notifications", false, "notify when jobs finish")
	f.StringVar(&profileFlags.timeframe, "timeframe", "", fmt.Sprintf("default prediction timeframe %v", model.Timeframes))
	f.StringVar(&profileFlags.detail, "detail", "", fmt.Sprintf("prediction detail level %v", model.DetailLevels))
	f.BoolVar(&profileFlags.recommendations, "recommendations", true, "include recommendations in predictions")

	profileCmd.AddCommand(profileShowCmd, profileSetCmd, profileResetCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	renderProfile(cmd.OutOrStdout(), a.readSession().Profile)
	return nil
}

// applyProfileFlags copies every flag the user set onto p. Values outside
// the option catalogs are kept but reported.
func applyProfileFlags(p *model.UserProfile, set func(name string) bool, logger *slog.Logger) {
	if set("name") {
		p.Name = profileFlags.name
	}
	if set("location") {
		p.Location = profileFlags.location
	}
	if set("purpose") {
		p.Purpose = profileFlags.purpose
		warnUnknown(logger, "purpose", []string{p.Purpose}, model.Purposes)
	}
	if set("lifestyle") {
		p.Lifestyle = profileFlags.lifestyle
		warnUnknown(logger, "lifestyle", []string{p.Lifestyle}, model.Lifestyles)
	}
	if set("activities") {
		p.Activities = profileFlags.activities
		warnUnknown(logger, "activities", p.Activities, model.Activities)
	}
	if set("health") {
		p.HealthConditions = profileFlags.health
		warnUnknown(logger, "health", p.HealthConditions, model.HealthConditions)
	}
	if set("interests") {
		p.DataInterests = profileFlags.interests
		warnUnknown(logger, "interests", p.DataInterests, model.DataInterests)
	}
	if set("notifications") {
		p.Notifications = profileFlags.notifications
	}
	if set("timeframe") {
		p.PredictionPreferences.DefaultTimeframe = profileFlags.timeframe
		warnUnknown(logger, "timeframe", []string{profileFlags.timeframe}, model.Timeframes)
	}
	if set("detail") {
		p.PredictionPreferences.DetailLevel = profileFlags.detail
		warnUnknown(logger, "detail", []string{profileFlags.detail}, model.DetailLevels)
	}
	if set("recommendations") {
		p.PredictionPreferences.IncludeRecommendations = profileFlags.recommendations
	}
}

func warnUnknown(logger *slog.Logger, field string, values, catalog []string) {
	if unknown := model.UnknownOptions(values, catalog); len(unknown) > 0 {
		logger.Warn("value not in the known options, saving anyway", "field", field, "values", unknown)
	}
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	var p model.UserProfile
	if current := a.readSession().Profile; current != nil {
		p = *current
	} else {
		p.PredictionPreferences = model.PredictionPreferences{
			DefaultTimeframe:       model.Timeframe7Days,
			DetailLevel:            "detailed",
			IncludeRecommendations: true,
		}
	}
	applyProfileFlags(&p, cmd.Flags().Changed, logger)

	if err := a.session.SaveProfile(p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Profile saved.")
	renderProfile(out, &p)
	return nil
}

func runProfileReset(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	if err := a.session.DeleteProfile(); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Profile deleted.")
	return nil
}
