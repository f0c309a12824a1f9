package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/GGRoca/dou-antt-clipping/internal/clipping"
	"github.com/GGRoca/dou-antt-clipping/internal/config"
	"github.com/GGRoca/dou-antt-clipping/internal/inlabs"
	"github.com/GGRoca/dou-antt-clipping/internal/notify"
	"github.com/GGRoca/dou-antt-clipping/internal/storage"
)

const dateLayout = "2006-01-02"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: douclip <command> [flags]

Commands:
  run       process one date (default today) with the configured lookback window
  backfill  reprocess a historical date range (email and lookback disabled)

Run 'douclip <command> -h' for the command's flags.
`)
}

func main() {
	// Secrets may come from a local .env instead of the environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		runCmd(os.Args[2:])
	case "backfill":
		backfillCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func runCmd(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "Path to the YAML configuration file")
	dateStr := fs.String("date", "", "Target date YYYY-MM-DD (default: today)")
	noEmail := fs.Bool("no-email", false, "Suppress the digest email")
	forceConfirmation := fs.Bool("force-confirmation", false, "Send a status email even with zero matches")
	fs.Parse(args)

	target := time.Now()
	if *dateStr != "" {
		var err error
		target, err = time.Parse(dateLayout, *dateStr)
		if err != nil {
			fatalf("invalid -date %q: %v", *dateStr, err)
		}
	}

	ctx := context.Background()
	runner, store, dbPath := setup(ctx, *configPath)
	defer store.Close()

	fmt.Printf("Executando clipping para %s...\n", target.Format(dateLayout))

	stats, err := runner.Run(ctx, target, clipping.Options{
		NoEmail:           *noEmail,
		ForceConfirmation: *forceConfirmation,
	})
	if err != nil {
		fatalf("run failed: %v", err)
	}

	notify.ReportRun(stats, dbPath)
}

func backfillCmd(args []string) {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "Path to the YAML configuration file")
	startStr := fs.String("start", "", "Start date YYYY-MM-DD (required)")
	endStr := fs.String("end", "", "End date YYYY-MM-DD (required)")
	fs.Parse(args)

	if *startStr == "" || *endStr == "" {
		fatalf("backfill requires -start and -end")
	}
	start, err := time.Parse(dateLayout, *startStr)
	if err != nil {
		fatalf("invalid -start %q: %v", *startStr, err)
	}
	end, err := time.Parse(dateLayout, *endStr)
	if err != nil {
		fatalf("invalid -end %q: %v", *endStr, err)
	}
	if end.Before(start) {
		fatalf("-end must not be before -start")
	}

	ctx := context.Background()
	runner, store, _ := setup(ctx, *configPath)
	defer store.Close()

	fmt.Printf("Backfill de %s até %s (e-mails desabilitados)\n", *startStr, *endStr)

	total := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		fmt.Printf("Processando %s... ", day.Format(dateLayout))

		stats, err := runner.Run(ctx, day, clipping.Options{Backfill: true})
		if err != nil {
			fatalf("backfill failed at %s: %v", day.Format(dateLayout), err)
		}

		fmt.Printf("%d achado(s)\n", stats.MatchesFound)
		total += stats.MatchesFound
	}

	fmt.Printf("Backfill concluído: %d achado(s) no total\n", total)
}

// setup loads configuration, opens storage, authenticates against the portal
// and wires the runner. Configuration and authentication failures terminate
// the process with a non-zero status.
func setup(ctx context.Context, configPath string) (*clipping.Runner, *storage.Store, string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatalf("%v", err)
	}

	store, err := storage.Open(ctx, cfg.Storage.DBPath)
	if err != nil {
		fatalf("open storage: %v", err)
	}

	client := inlabs.NewClient(cfg.Inlabs.BaseURL, inlabs.Credentials{
		Email:    cfg.Inlabs.Email,
		Password: cfg.Inlabs.Password,
	})
	if err := client.Login(ctx); err != nil {
		store.Close()
		fatalf("INLABS login: %v", err)
	}

	var notifier clipping.Notifier
	if cfg.Mail.Enabled {
		notifier = notify.NewDigestMailer(notify.EmailConfig{
			SMTPHost:  cfg.Mail.SMTPHost,
			SMTPPort:  cfg.Mail.SMTPPort,
			SMTPUser:  cfg.Mail.SMTPUser,
			SMTPPass:  cfg.Mail.SMTPPass,
			FromEmail: cfg.Mail.FromEmail,
			ToEmails:  cfg.Mail.ToEmails,
		})
	}

	runner := clipping.New(clipping.Deps{
		Catalog:       client,
		Store:         store,
		Notifier:      notifier,
		Filters:       cfg.Filters,
		LookbackDays:  cfg.LookbackDays,
		MailEnabled:   cfg.Mail.Enabled,
		SubjectPrefix: cfg.Mail.SubjectPrefix,
	})

	return runner, store, cfg.Storage.DBPath
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
