package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gti/mgmt-dashboard/internal/cache"
	"github.com/gti/mgmt-dashboard/internal/config"
	"github.com/gti/mgmt-dashboard/internal/logging"
	"github.com/gti/mgmt-dashboard/internal/metrics"
	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/gti/mgmt-dashboard/internal/repository"
	"github.com/gti/mgmt-dashboard/internal/service"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// Deps holds what the commands need from the outside world
type Deps struct {
	Out  io.Writer
	Now  func() time.Time
	Logs io.Writer
}

func DefaultDeps() *Deps {
	return &Deps{
		Out:  os.Stdout,
		Now:  time.Now,
		Logs: os.Stderr,
	}
}

// options are the persistent flags shared by every subcommand
type options struct {
	source   string
	timezone string
	output   string
	verbose  bool
}

func newRootCommand(deps *Deps) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "calctl",
		Short: "Inspect a calendar from the command line",
		Long: `Inspect a calendar from the command line.

Events come from an iCalendar feed given with --source (an http(s) URL or a
.ics file). Without --source a built-in sample day is used.

Examples:
  # Today's meetings, conflicts and preparation tasks
  calctl daily --source ~/calendar.ics

  # Analyse the coming week as JSON
  calctl analyze --range week -o json

  # Preparation material for one meeting
  calctl prep evt-planning-review`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.source, "source", "", "iCalendar feed URL or .ics path (default: sample events)")
	cmd.PersistentFlags().StringVar(&opts.timezone, "timezone", "Local", "IANA zone used for day boundaries")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "Output format: text, json, yaml")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log feed fetching to stderr")

	cmd.AddCommand(newEventsCommand(deps, opts))
	cmd.AddCommand(newAnalyzeCommand(deps, opts))
	cmd.AddCommand(newDailyCommand(deps, opts))
	cmd.AddCommand(newConflictsCommand(deps, opts))
	cmd.AddCommand(newPrepCommand(deps, opts))
	cmd.AddCommand(newRulesCommand(deps, opts))

	return cmd
}

// toolServer wires an event source to the analyzer the same way the server does
func (o *options) toolServer(deps *Deps) (*service.CalendarToolServer, error) {
	switch o.output {
	case outputText, outputJSON, outputYAML:
	default:
		return nil, fmt.Errorf("invalid output format: %s", o.output)
	}

	cfg := config.Config{Timezone: o.timezone}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger := logging.NewWithWriter(deps.Logs, "calctl", level, logging.FormatConsole)

	var events service.EventSource
	if o.source != "" {
		events = repository.NewICalEventRepository(o.source, loc, logger)
	} else {
		events = repository.NewMemoryEventRepository(repository.SampleEvents(deps.Now().In(loc)))
	}

	intel := service.NewCalendarIntelligence(service.WithLocation(loc), service.WithClock(deps.Now))
	return service.NewCalendarToolServer(events, cache.NewMemoryEventCache(time.Minute), intel, metrics.New(), logger), nil
}

func newEventsCommand(deps *Deps, opts *options) *cobra.Command {
	var (
		days  int
		limit int
	)

	cmd := &cobra.Command{
		Use:     "events",
		Short:   "List upcoming events",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := opts.toolServer(deps)
			if err != nil {
				return err
			}
			now := deps.Now()
			events, err := tools.ListEvents(cmd.Context(), now, now.AddDate(0, 0, days), limit)
			if err != nil {
				return err
			}
			return render(deps.Out, opts.output, events, func(w io.Writer) { printEvents(w, events) })
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Number of days ahead to list")
	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "Maximum number of events")
	return cmd
}

func newAnalyzeCommand(deps *Deps, opts *options) *cobra.Command {
	var req models.CalendarAnalysisRequest

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse busy time, conflicts and preparation needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch req.TimeRange {
			case models.TimeRangeToday, models.TimeRangeTomorrow, models.TimeRangeWeek, models.TimeRangeMonth:
			default:
				return fmt.Errorf("invalid range %q: use today, tomorrow, week or month", req.TimeRange)
			}

			tools, err := opts.toolServer(deps)
			if err != nil {
				return err
			}
			resp, err := tools.AnalyzeSchedule(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(deps.Out, opts.output, resp, func(w io.Writer) { printAnalysis(w, resp) })
		},
	}

	cmd.Flags().StringVar((*string)(&req.TimeRange), "range", string(models.TimeRangeWeek), "Window: today, tomorrow, week or month")
	cmd.Flags().StringVar(&req.UserID, "user", "", "Attendee email whose declined events are skipped")
	cmd.Flags().BoolVar(&req.IncludeDeclinedEvents, "include-declined", false, "Count events the user declined")
	cmd.Flags().BoolVar(&req.IncludeCancelledEvents, "include-cancelled", false, "Count cancelled events")
	return cmd
}

func newDailyCommand(deps *Deps, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Show today's meetings, conflicts and preparation tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := opts.toolServer(deps)
			if err != nil {
				return err
			}
			daily, err := tools.DailyInsights(cmd.Context())
			if err != nil {
				return err
			}
			return render(deps.Out, opts.output, daily, func(w io.Writer) { printDaily(w, daily) })
		},
	}
}

func newConflictsCommand(deps *Deps, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List overlapping meetings in the next 30 days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := opts.toolServer(deps)
			if err != nil {
				return err
			}
			conflicts, err := listConflicts(cmd.Context(), tools)
			if err != nil {
				return err
			}
			return render(deps.Out, opts.output, conflicts, func(w io.Writer) { printInsights(w, "Conflicts", conflicts) })
		},
	}
}

func listConflicts(ctx context.Context, tools *service.CalendarToolServer) ([]models.CalendarInsight, error) {
	resp, err := tools.AnalyzeSchedule(ctx, models.CalendarAnalysisRequest{TimeRange: models.TimeRangeMonth})
	if err != nil {
		return nil, err
	}
	conflicts := []models.CalendarInsight{}
	for _, in := range resp.Insights {
		if in.Type == models.InsightConflict {
			conflicts = append(conflicts, in)
		}
	}
	return conflicts, nil
}

func newPrepCommand(deps *Deps, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prep <event-id>",
		Short: "Generate preparation material for a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := opts.toolServer(deps)
			if err != nil {
				return err
			}
			prep, err := tools.MeetingPreparation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(deps.Out, opts.output, prep, func(w io.Writer) { printPrep(w, prep) })
		},
	}
}

func newRulesCommand(deps *Deps, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with decision rule files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a YAML rules file and print the rules in evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := config.LoadRules(args[0])
			if err != nil {
				return err
			}
			sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
			return render(deps.Out, opts.output, rules, func(w io.Writer) { printRules(w, rules) })
		},
	})
	return cmd
}

// render writes v as JSON or YAML, or calls text for the terminal layout
func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		// go through JSON so field names match the API
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(generic)
	case outputText:
		text(w)
		return nil
	}
	return fmt.Errorf("invalid output format: %s", format)
}

func printEvents(w io.Writer, events []models.CalendarEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintf(w, "Events (%d):\n\n", len(events))
	fmt.Fprintln(w, "  START              END    TITLE                                     STATUS")
	fmt.Fprintln(w, "  -----              ---    -----                                     ------")
	for _, e := range events {
		fmt.Fprintf(w, "  %-18s %-6s %-41s %s\n",
			e.StartTime.Format("2006-01-02 15:04"), e.EndTime.Format("15:04"), truncate(e.Title, 41), e.Status)
	}
	fmt.Fprintln(w)
}

func printAnalysis(w io.Writer, resp *models.CalendarAnalysisResponse) {
	s := resp.Summary
	fmt.Fprintf(w, "Window: %s to %s\n\n", resp.TimeRange.Start.Format(time.RFC3339), resp.TimeRange.End.Format(time.RFC3339))
	fmt.Fprintf(w, "  Events:          %d\n", s.TotalEvents)
	fmt.Fprintf(w, "  Meeting hours:   %.1f\n", s.TotalMeetingHours)
	fmt.Fprintf(w, "  Busy:            %.0f%%\n", s.BusyHoursPercentage)
	fmt.Fprintf(w, "  Conflicts:       %d\n", s.ConflictCount)
	fmt.Fprintf(w, "  Need prep:       %d\n\n", s.UpcomingDeadlines)

	printInsights(w, "Insights", resp.Insights)

	if len(resp.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, r := range resp.Recommendations {
			fmt.Fprintf(w, "  [%s] %s\n", r.Priority, r.Description)
		}
		fmt.Fprintln(w)
	}
}

func printInsights(w io.Writer, heading string, insights []models.CalendarInsight) {
	if len(insights) == 0 {
		fmt.Fprintf(w, "No %s.\n\n", strings.ToLower(heading))
		return
	}

	fmt.Fprintf(w, "%s (%d):\n", heading, len(insights))
	for _, in := range insights {
		fmt.Fprintf(w, "  [%s] %s\n", in.Priority, in.Title)
		if in.Description != "" {
			fmt.Fprintf(w, "      %s\n", in.Description)
		}
	}
	fmt.Fprintln(w)
}

func printDaily(w io.Writer, daily *models.DailyInsights) {
	fmt.Fprintf(w, "Daily insights for %s\n\n", daily.Date)

	if len(daily.UpcomingMeetings) == 0 {
		fmt.Fprintln(w, "No meetings today.")
	} else {
		fmt.Fprintln(w, "Meetings:")
		for _, m := range daily.UpcomingMeetings {
			marker := " "
			if m.NeedsPreparation {
				marker = "*"
			}
			fmt.Fprintf(w, " %s %s-%s  %s\n", marker, m.StartTime.Format("15:04"), m.EndTime.Format("15:04"), m.Title)
		}
	}
	fmt.Fprintln(w)

	if len(daily.Conflicts) > 0 {
		fmt.Fprintln(w, "Conflicts:")
		for _, c := range daily.Conflicts {
			fmt.Fprintf(w, "  %s\n", c.Description)
			if c.SuggestedResolution != "" {
				fmt.Fprintf(w, "      %s\n", c.SuggestedResolution)
			}
		}
		fmt.Fprintln(w)
	}

	if len(daily.PreparationTasks) > 0 {
		fmt.Fprintln(w, "Preparation:")
		for _, p := range daily.PreparationTasks {
			fmt.Fprintf(w, "  %s (by %s)\n", p.Title, p.DueBy.Format("Mon 15:04"))
		}
		fmt.Fprintln(w)
	}
}

func printPrep(w io.Writer, prep *models.MeetingPreparation) {
	fmt.Fprintln(w, prep.Notes)

	if len(prep.AttendeeContext) > 0 {
		fmt.Fprintln(w, "Attendees:")
		for _, a := range prep.AttendeeContext {
			fmt.Fprintf(w, "  %s <%s>\n", a.Name, a.AttendeeID)
		}
	}
}

func printRules(w io.Writer, rules []models.DecisionRule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "No rules defined.")
		return
	}

	fmt.Fprintf(w, "Rules (%d):\n\n", len(rules))
	fmt.Fprintln(w, "  PRIO  CATEGORY       ACTION         ENABLED  NAME")
	fmt.Fprintln(w, "  ----  --------       ------         -------  ----")
	for _, r := range rules {
		fmt.Fprintf(w, "  %-5d %-14s %-14s %-8t %s\n", r.Priority, r.Category, r.Action, r.Enabled, r.Name)
	}
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
