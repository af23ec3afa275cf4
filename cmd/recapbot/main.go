package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"recapbot/internal/analytics"
	"recapbot/internal/classify"
	"recapbot/internal/cmdlog"
	"recapbot/internal/config"
	"recapbot/internal/deliver"
	"recapbot/internal/ingest"
	"recapbot/internal/jobs"
	"recapbot/internal/logging"
	"recapbot/internal/metrics"
	"recapbot/internal/slackclient"
	"recapbot/internal/store/journal"
	"recapbot/internal/theme"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "history":
		cmdHistory()
	case "help", "-h", "--help":
		printHelp()
	default:
		args := []string{}
		if len(os.Args) > 2 {
			args = os.Args[2:]
		}
		if cmd == "" || cmd[0] == '-' {
			// no mode argument: flags only, mode from the environment
			args = os.Args[1:]
			cmd = os.Getenv("MODE")
		}
		os.Exit(cmdRun(cmd, args))
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: recapbot <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  daily       Post yesterday's recap to the monitor channel (default)")
	fmt.Println("  weekly      Post the last 7 days with a bar chart")
	fmt.Println("  monthly     Post the month-to-date count")
	fmt.Println("  dryrun      Print the summaries as JSON without posting")
	fmt.Println("  init        Create a config file at ./recapbot.yaml")
	fmt.Println("  history     List recent deliveries from the journal")
	fmt.Println("With no command the mode is read from MODE.")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./recapbot.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	if err := config.Save(*path, config.Default()); err != nil {
		fail(err)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cfgPath := fs.String("config", "./recapbot.yaml", "config path")
	n := fs.Int("n", 20, "entries to show")
	_ = fs.Parse(os.Args[2:])
	if err := config.LoadDotEnv(); err != nil {
		fail(err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err)
	}
	if cfg.Storage.JournalPath == "" {
		fail(errors.New("no journal configured (storage.journalPath or JOURNAL_PATH)"))
	}
	db, err := journal.Open(cfg.Storage.JournalPath)
	if err != nil {
		fail(err)
	}
	defer db.Close()
	entries, err := db.Recent(context.Background(), *n)
	if err != nil {
		fail(err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tMODE\tKIND\tCHANNEL\tREF\tPOST AT\tRUN")
	for _, e := range entries {
		postAt := "-"
		if !e.PostAt.IsZero() {
			postAt = e.PostAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.Mode, e.Kind, e.Channel, e.Ref, postAt, e.RunID)
	}
	_ = tw.Flush()
}

// cmdRun executes one report mode and returns the process exit code.
func cmdRun(modeArg string, args []string) int {
	mode, err := jobs.ParseMode(modeArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	cfgPath := fs.String("config", "./recapbot.yaml", "config path")
	envPath := fs.String("env", ".env", "dotenv file")
	_ = fs.Parse(args)

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	cfg, err := config.Load(*cfgPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	runID := uuid.NewString()
	logging.Init(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, RunID: runID})
	theme.PrintStart(os.Stdout)
	if !config.LooksLikeChannel(cfg.Channels.Monitor) {
		fmt.Println("WARNING: CHANNEL_ID is missing or not a channel ID (should start with C or G)")
	}
	metrics.StartServer(cfg.Metrics.Addr)

	loc, _ := cfg.Location()
	client := slackclient.NewHTTPClient(cfg.Slack.BotToken,
		slackclient.WithBaseURL(cfg.Slack.BaseURL),
		slackclient.WithRate(cfg.Slack.RPS, cfg.Slack.Burst),
	)
	fetcher := ingest.NewFetcher(client,
		ingest.WithPageSize(cfg.Slack.PageSize),
		ingest.WithRetryMargin(cfg.Slack.RetryMargin),
	)
	var aopts []analytics.Option
	if cfg.Report.TrackContributors {
		aopts = append(aopts, analytics.WithContributors(cfg.Report.TopN, client))
	}
	agg := analytics.New(fetcher, classify.New(cfg.Target.AppID, cfg.Target.Name), loc, aopts...)

	var dopts []deliver.Option
	if cfg.Schedule.AtLocal != "" {
		h, m, err := config.ParseHHMM(cfg.Schedule.AtLocal)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		dopts = append(dopts, deliver.WithScheduleAt(deliver.At{Hour: h, Minute: m}))
	}
	if cfg.Storage.JournalPath != "" {
		db, err := journal.Open(cfg.Storage.JournalPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		defer db.Close()
		dopts = append(dopts, deliver.WithJournal(db, runID))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := jobs.NewRunner(agg, deliver.New(client, loc, dopts...), cfg, loc, nil, os.Stdout)
	if err := cmdlog.Run(mode, func() error { return runner.Run(ctx, mode) }); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
