package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/staatsoper-tickets/internal/config"
	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/fetch"
	"github.com/pfrederiksen/staatsoper-tickets/internal/logger"
	"github.com/pfrederiksen/staatsoper-tickets/internal/metrics"
	"github.com/pfrederiksen/staatsoper-tickets/internal/notifier"
	"github.com/pfrederiksen/staatsoper-tickets/internal/scraper"
)

const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitTicketsFound = 2
)

// errTicketsFound makes Execute exit with ExitTicketsFound
var errTicketsFound = errors.New("tickets found")

// options holds the flag values of one command tree
type options struct {
	configFile string
	logLevel   string
	logFormat  string
	date       string
	format     string
	sortOrder  string
	notify     []string
	dryRun     bool
	exitCode   bool
	noProbe    bool
	seatDir    string
}

// run is the state shared by the steps of one invocation
type run struct {
	id      string
	cfg     *config.Config
	rules   scraper.Rules
	target  event.Date
	format  OutputFormat
	sort    SortOrder
	out     io.Writer
	errOut  io.Writer
	started time.Time
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "staatsoper-tickets",
		Short: "Check the Wiener Staatsoper shop for tickets tomorrow",
		Long: `A CLI tool that checks the Wiener Staatsoper ticket shop for performances
tomorrow that still have purchasable tickets, reports the available seating
categories and notifies Telegram and Twitter when something was found.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, v)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.staatsoper-tickets.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "Log format: json or text")
	cmd.PersistentFlags().StringVar(&opts.date, "date", "", "Target date as DD.MM.YYYY (default: tomorrow in the venue timezone)")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "Output format: text, json, yaml or ics")
	cmd.PersistentFlags().StringVar(&opts.sortOrder, "sort", "list", "Sort order: list, time or title")
	cmd.PersistentFlags().BoolVar(&opts.exitCode, "exit-code", false, "Exit with code 2 when tickets were found")

	cmd.PersistentFlags().StringSliceVar(&opts.notify, "notify", nil, "Notification channels: telegram, twitter or none (default: every configured channel)")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "Print notifications instead of sending them")
	cmd.PersistentFlags().BoolVar(&opts.noProbe, "no-probe", false, "Skip seat selection pages, report events without categories")
	cmd.PersistentFlags().Duration("jitter", 0, "Maximum random delay before the check starts")
	cmd.PersistentFlags().String("pushgateway", "", "Prometheus Pushgateway URL")
	v.BindPFlag("run.jitter", cmd.PersistentFlags().Lookup("jitter"))
	v.BindPFlag("metrics.pushgateway", cmd.PersistentFlags().Lookup("pushgateway"))

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check the live shop (same as running without a command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, v)
		},
	})
	cmd.AddCommand(newParseCmd(opts, v))

	return cmd
}

func newParseCmd(opts *options, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse LIST_FILE",
		Short: "Extract available events from a saved event list page",
		Long: `Runs the extraction on a saved event list page. With --seat-dir, the seat
selection page of each event is read from <dir>/<eventId>.html.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts, v, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.seatDir, "seat-dir", "", "Directory with saved seat selection pages")
	return cmd
}

// prepare sets up logging and configuration shared by all commands
func prepare(cmd *cobra.Command, opts *options, v *viper.Viper) (*run, error) {
	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	logFormat := logger.Format(strings.ToLower(opts.logFormat))
	if logFormat != logger.FormatJSON && logFormat != logger.FormatText {
		return nil, fmt.Errorf("invalid log format: %s (must be 'json' or 'text')", opts.logFormat)
	}

	r := &run{
		id:      uuid.NewString(),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		started: time.Now(),
	}
	logger.SetDefault(logger.New(level, logFormat, cmd.ErrOrStderr()).With(logger.Fields{"run_id": r.id}))

	if r.format, err = ParseOutputFormat(strings.ToLower(opts.format)); err != nil {
		return nil, err
	}
	if r.sort, err = ParseSortOrder(strings.ToLower(opts.sortOrder)); err != nil {
		return nil, err
	}

	if r.cfg, err = config.Load(v, opts.configFile); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if r.rules, err = r.cfg.Rules(); err != nil {
		return nil, err
	}

	if opts.date != "" {
		if r.target, err = event.ParseDate(opts.date); err != nil {
			return nil, fmt.Errorf("invalid --date: %w", err)
		}
	} else {
		r.target = event.Tomorrow(r.started, r.rules.Location)
	}

	return r, nil
}

// runCheck is the main command logic
func runCheck(cmd *cobra.Command, opts *options, v *viper.Viper) error {
	r, err := prepare(cmd, opts, v)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	notifiers, err := r.notifiers(opts)
	if err != nil {
		return err
	}

	if err := sleepJitter(ctx, r.cfg.Run.Jitter); err != nil {
		return err
	}

	rec := metrics.New()
	report, err := r.check(ctx, rec, opts.noProbe)
	if err == nil {
		rec.ObserveReport(report)
		err = r.finish(report, notifiers)
	}

	result := metrics.ResultNone
	switch {
	case err != nil:
		result = metrics.ResultError
	case report.HasTickets():
		result = metrics.ResultTickets
	}
	rec.ObserveRun(result, time.Since(r.started))
	r.pushMetrics(ctx, rec)

	if err != nil {
		return err
	}
	if opts.exitCode && report.HasTickets() {
		return errTicketsFound
	}
	return nil
}

// check fetches the event list and builds the report
func (r *run) check(ctx context.Context, rec *metrics.Recorder, noProbe bool) (*event.Report, error) {
	fetcher, err := fetch.NewHTTPFetcher(fetch.Options{
		Origin:    r.rules.Origin,
		UserAgent: r.cfg.HTTP.UserAgent,
		Timeout:   r.cfg.HTTP.Timeout,
		Retries:   r.cfg.HTTP.Retries,
		OnFetch: func(url, status string) {
			rec.ObserveFetch(pageKind(url, r.rules), status)
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Checking ticket availability", logger.Fields{
		"target_date": r.target.String(),
		"url":         r.rules.ListURL,
	})

	doc, err := fetcher.Fetch(ctx, r.rules.ListURL)
	if err != nil {
		logger.Error("Could not load event list", logger.Fields{"url": r.rules.ListURL}, err)
		return nil, fmt.Errorf("fetching event list: %w", err)
	}

	return r.build(ctx, doc, fetcher, noProbe), nil
}

// build turns a list page into a report, probing categories unless noProbe is set
func (r *run) build(ctx context.Context, doc *goquery.Document, fetcher scraper.Fetcher, noProbe bool) *event.Report {
	if !noProbe {
		return scraper.BuildReport(ctx, r.rules, doc, r.target, fetcher)
	}

	report := event.NewReport(r.target)
	items, err := scraper.NewExtractor(r.rules).ExtractEvents(doc, r.target)
	if errors.Is(err, scraper.ErrListNotFound) {
		logger.Warn("Event list not found", logger.Fields{"target_date": r.target.String()})
	}
	report.Items = items
	return report
}

// finish writes the report and sends notifications when tickets were found
func (r *run) finish(report *event.Report, notifiers notifier.Notifier) error {
	result := NewOutputResult(report, r.id, r.started)
	sortItems(result.Events, r.sort)
	if err := WriteOutput(r.out, result, r.format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if !report.HasTickets() {
		logger.Info("No tickets available", logger.Fields{"target_date": r.target.String()})
		return nil
	}
	if notifiers == nil {
		return nil
	}
	if err := notifiers.Notify(report); err != nil {
		logger.Error("Notification failed", logger.Fields{"events": len(report.Items)}, err)
		return fmt.Errorf("sending notifications: %w", err)
	}
	return nil
}

// notifiers builds the notification channels selected by --notify. Without the flag every
// configured channel is used.
func (r *run) notifiers(opts *options) (notifier.Notifier, error) {
	if opts.dryRun {
		// Machine readable reports keep stdout to themselves
		if r.format != FormatText {
			return notifier.NewDryRunNotifier(r.errOut), nil
		}
		return notifier.NewDryRunNotifier(r.out), nil
	}

	creds := notifier.TwitterCredentials{
		APIKey:       r.cfg.Twitter.APIKey,
		APISecret:    r.cfg.Twitter.APISecret,
		AccessToken:  r.cfg.Twitter.AccessToken,
		AccessSecret: r.cfg.Twitter.AccessSecret,
	}

	channels := opts.notify
	explicit := len(channels) > 0
	if !explicit {
		if r.cfg.Telegram.Enabled() {
			channels = append(channels, "telegram")
		}
		if creds.Complete() {
			channels = append(channels, "twitter")
		}
	}

	var multi notifier.Multi
	for _, ch := range channels {
		switch strings.ToLower(strings.TrimSpace(ch)) {
		case "none":
			return nil, nil
		case "telegram":
			n, err := notifier.NewTelegramNotifier(r.cfg.Telegram.Token, r.cfg.Telegram.ChatID, r.cfg.Telegram.APIURL)
			if err != nil {
				return nil, fmt.Errorf("telegram notifier: %w", err)
			}
			multi = append(multi, n)
		case "twitter":
			n, err := notifier.NewTwitterNotifier(creds)
			if err != nil {
				return nil, fmt.Errorf("twitter notifier: %w", err)
			}
			multi = append(multi, n)
		default:
			return nil, fmt.Errorf("unknown notification channel: %s", ch)
		}
	}

	if len(multi) == 0 {
		if !explicit {
			logger.Warn("No notification channel configured", nil)
		}
		return nil, nil
	}
	return multi, nil
}

func (r *run) pushMetrics(ctx context.Context, rec *metrics.Recorder) {
	gateway := r.cfg.Metrics.Pushgateway
	if gateway == "" {
		return
	}
	if err := rec.Push(ctx, gateway, r.cfg.Metrics.Job); err != nil {
		logger.Warn("Could not push metrics", logger.Fields{"pushgateway": gateway, "error": err.Error()})
	}
}

// runParse extracts events from a saved list page
func runParse(cmd *cobra.Command, opts *options, v *viper.Viper, listFile string) error {
	r, err := prepare(cmd, opts, v)
	if err != nil {
		return err
	}

	doc, err := fetch.ParseFile(listFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", listFile, err)
	}

	var report *event.Report
	if opts.seatDir != "" {
		report = r.build(cmd.Context(), doc, fetch.DirFetcher{Dir: opts.seatDir}, false)
	} else {
		report = r.build(cmd.Context(), doc, nil, true)
	}

	result := NewOutputResult(report, r.id, r.started)
	sortItems(result.Events, r.sort)
	if err := WriteOutput(r.out, result, r.format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.exitCode && report.HasTickets() {
		return errTicketsFound
	}
	return nil
}

// pageKind labels a fetched URL for metrics
func pageKind(url string, rules scraper.Rules) string {
	if url == rules.ListURL {
		return "list"
	}
	return "seat"
}

// sleepJitter waits a random duration below max, or until ctx is done
func sleepJitter(ctx context.Context, max time.Duration) error {
	if max <= 0 {
		return nil
	}
	d := rand.N(max)
	logger.Info("Delaying start", logger.Fields{"delay": d.Round(time.Second).String()})

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs the CLI
func Execute() {
	os.Exit(execute(NewRootCmd(), os.Stderr))
}

func execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errTicketsFound):
		return ExitTicketsFound
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}
