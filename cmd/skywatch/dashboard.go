package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/dashboard"
	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/poller"
)

const dashboardLogFile = "skywatch.log"

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard (TUI)",
	Long:  "Shows onboarding on first run, then the main menu: analyses, predictions, results, history and settings.",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	// Any log output on stdout corrupts the alt screen, so logs go to a file.
	logFile, err := os.OpenFile(dashboardLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel}))

	a := setupApp(logger)
	defer a.close()

	d := &dashboardRun{app: a, ctx: cmd.Context()}
	return d.loop()
}

type dashboardRun struct {
	*app
	ctx    context.Context
	notice string // shown once on the next menu
}

func (d *dashboardRun) loop() error {
	sess := d.readSession()
	if !sess.OnboardingComplete {
		finished, err := dashboard.RunOnboarding()
		if err != nil {
			return fmt.Errorf("onboarding: %w", err)
		}
		if !finished {
			return nil
		}
		if err := d.session.SetOnboarded(true); err != nil {
			return fmt.Errorf("save onboarding state: %w", err)
		}
	}

	for {
		choice, err := dashboard.RunMenu("skywatch", d.statusLine(), dashboard.MainMenu)
		if err != nil {
			return fmt.Errorf("menu: %w", err)
		}
		d.notice = ""

		switch choice {
		case dashboard.MenuAnalysis:
			err = d.analysis()
		case dashboard.MenuPrediction:
			err = d.prediction()
		case dashboard.MenuLastResults:
			err = d.lastResults()
		case dashboard.MenuHistory:
			err = d.history()
		case dashboard.MenuSettings:
			err = d.settings()
		default:
			return nil
		}
		if err != nil {
			d.logger.Error("dashboard action failed", "choice", dashboard.MainMenu[choice], "error", err)
			d.notice = "⚠ " + err.Error()
		}
	}
}

// statusLine describes the backend and session state under the menu title.
func (d *dashboardRun) statusLine() string {
	if d.notice != "" {
		return d.notice
	}
	sess, err := d.session.Read()
	if err != nil {
		return "⚠ " + err.Error()
	}

	ctx, cancel := context.WithTimeout(d.ctx, 3*time.Second)
	defer cancel()
	parts := []string{}
	if st, err := d.client.Status(ctx); err != nil {
		parts = append(parts, "backend unreachable")
	} else if st.EarthAccessLoggedIn {
		parts = append(parts, "EarthAccess: logged in")
	} else {
		parts = append(parts, "EarthAccess: not logged in")
	}
	if sess.Profile != nil && sess.Profile.Name != "" {
		parts = append(parts, "profile: "+sess.Profile.Name)
	} else {
		parts = append(parts, "no profile")
	}
	return strings.Join(parts, " · ")
}

// ensureLogin asks for credentials when the backend has no EarthAccess session.
// ok is false when the user backed out.
func (d *dashboardRun) ensureLogin() (bool, error) {
	st, err := dashboard.RunLoader("Checking backend", d.client.Status)
	if err != nil {
		return false, err
	}
	if st.EarthAccessLoggedIn {
		return true, nil
	}

	sess := d.readSession()
	user, pass, ok, err := dashboard.RunLoginForm(sess.Username)
	if err != nil || !ok {
		return false, err
	}
	if _, err := dashboard.RunLoader("Logging in to EarthAccess", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.client.Login(ctx, user, pass)
	}); err != nil {
		return false, err
	}
	return true, d.session.SetLoggedIn(user)
}

func (d *dashboardRun) analysis() error {
	ok, err := d.ensureLogin()
	if err != nil || !ok {
		return err
	}
	req, ok, err := dashboard.RunAnalysisForm(model.DefaultAnalysisRange(time.Now()))
	if err != nil || !ok {
		return err
	}
	return d.startAndFollow(model.KindAnalysis, func(ctx context.Context) (string, error) {
		return d.client.StartAnalysis(ctx, req)
	})
}

func (d *dashboardRun) prediction() error {
	sess := d.readSession()
	if sess.Profile == nil {
		d.notice = "Create a profile first: skywatch profile set --name ..."
		return nil
	}
	ok, err := d.ensureLogin()
	if err != nil || !ok {
		return err
	}
	in, ok, err := dashboard.RunPredictionForm(sess.Profile.PredictionPreferences.DefaultTimeframe, time.Now())
	if err != nil || !ok {
		return err
	}
	req := model.PredictionRequest{
		StartDate:   in.Range.StartString(),
		EndDate:     in.Range.EndString(),
		Timeframe:   in.Timeframe,
		CustomQuery: in.Query,
		UserProfile: *sess.Profile,
	}
	return d.startAndFollow(model.KindPrediction, func(ctx context.Context) (string, error) {
		return d.client.StartPrediction(ctx, req)
	})
}

// startAndFollow shows the progress screen, then stores, notifies and opens the
// results of a completed job.
func (d *dashboardRun) startAndFollow(kind model.JobKind, start func(ctx context.Context) (string, error)) error {
	res, err := dashboard.RunJobProgress(d.ctx, dashboard.JobRun{
		Kind:   kind,
		Start:  start,
		Poller: d.newPoller(kind),
	})
	if err != nil {
		return err
	}

	run := jobRun{
		job:     model.Job{ID: res.JobID, Kind: kind, Status: res.Status, StartedAt: time.Now().Add(-res.Elapsed)},
		result:  res.Result,
		errMsg:  res.Err,
		elapsed: res.Elapsed,
	}
	switch {
	case res.Cancelled:
		run.state = poller.StateCancelled
	case res.Status == model.StatusCompleted:
		run.state = poller.StateCompleted
	case res.Status == model.StatusError:
		run.state = poller.StateFailed
	}
	d.finishJob(run, false)

	if run.state == poller.StateCompleted {
		return dashboard.RunResults(kind, res.Result, d.client.FileURL)
	}
	if res.Cancelled && res.JobID != "" {
		d.notice = fmt.Sprintf("Stopped following %s; resume with: skywatch follow %s --kind %s", res.JobID, res.JobID, kind)
	}
	return nil
}

func (d *dashboardRun) lastResults() error {
	choice, err := dashboard.RunMenu("Last results", "", []string{"Weather analysis", "Personalized prediction", "Back"})
	if err != nil {
		return err
	}
	var kind model.JobKind
	switch choice {
	case 0:
		kind = model.KindAnalysis
	case 1:
		kind = model.KindPrediction
	default:
		return nil
	}

	res, ok, err := d.session.LastResult(kind)
	if err != nil {
		return err
	}
	if !ok {
		d.notice = fmt.Sprintf("No stored %s result yet.", kind)
		return nil
	}
	return dashboard.RunResults(kind, res.Result, d.client.FileURL)
}

func (d *dashboardRun) history() error {
	entries, err := dashboard.RunLoader("Loading history", d.client.History)
	if errors.Is(err, dashboard.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}
	return dashboard.RunHistory(entries, d.client.FileURL)
}

func (d *dashboardRun) settings() error {
	for {
		choice, err := dashboard.RunMenu("Settings", d.notice, dashboard.SettingsMenu)
		if err != nil {
			return err
		}
		d.notice = ""

		switch choice {
		case dashboard.SettingsShowProfile:
			sess := d.readSession()
			if err := dashboard.RunPager("Profile", profileText(sess.Profile)); err != nil {
				return err
			}
		case dashboard.SettingsResetOnboarding:
			if err := d.session.ResetOnboarding(); err != nil {
				return err
			}
			d.notice = "Onboarding and profile reset. The intro shows on next start."
		case dashboard.SettingsClearAll:
			if err := d.session.Clear(); err != nil {
				return err
			}
			d.notice = "All local data cleared."
		default:
			return nil
		}
	}
}

func profileText(p *model.UserProfile) string {
	if p == nil {
		return "No profile saved.\n\nCreate one with:\n  skywatch profile set --name Ada --location Istanbul --activities running,cycling"
	}
	var b strings.Builder
	for _, row := range profileRows(*p) {
		fmt.Fprintf(&b, "%-20s %s\n", row[0], row[1])
	}
	return b.String()
}
