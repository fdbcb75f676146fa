package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/config"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/db"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/dialect"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/llm"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/report"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/schema"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/session"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/uploader"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/util"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/validator"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	question := flag.String("question", "", "question to answer; reads stdin when empty")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Logging.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.LogFile), 0o755); err == nil {
			if f, err := os.OpenFile(cfg.Logging.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				log.SetOutput(io.MultiWriter(os.Stdout, f))
			} else {
				util.Warnf("log file unavailable: %v", err)
			}
		}
	}
	util.Infof("starting biai against %s dialect=%s", cfg.Database, cfg.Dialect)
	if data, err := yaml.Marshal(&cfg); err == nil {
		util.Highlightf("config:\n%s", string(data))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *question); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, question string) error {
	profile, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(ctx, cfg.DSN, cfg.Database); err != nil {
		return err
	}
	exec, err := db.Open(ctx, cfg.DSN)
	if err != nil {
		return err
	}
	defer util.CloseWithErr(exec, "db")

	state, err := schema.Load(ctx, exec, cfg.Database)
	if err != nil {
		return err
	}
	if !state.HasTables() {
		util.Warnf("database %s has no tables; generation will have an empty schema", cfg.Database)
	}

	eng := &engine{
		cfg:      cfg,
		profile:  profile,
		exec:     exec,
		gen:      llm.NewHTTPGenerator(cfg.Generator),
		prompts:  llm.NewPromptBuilder(state.Describe(), profile.Rules),
		reporter: report.New(cfg.Audit.OutputDir),
	}
	eng.uploads, err = uploader.Select(cfg.Storage)
	if err != nil {
		return err
	}

	if question != "" {
		return eng.answer(ctx, question)
	}
	return eng.repl(ctx)
}

type engine struct {
	cfg      config.Config
	profile  *dialect.Profile
	exec     *db.DB
	gen      llm.Generator
	prompts  *llm.PromptBuilder
	reporter *report.Reporter
	uploads  uploader.Uploader
}

// repl answers one question per stdin line until EOF or cancellation.
func (e *engine) repl(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("question> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		question := strings.TrimSpace(scanner.Text())
		if question != "" {
			if err := e.answer(ctx, question); err != nil {
				util.Errorf("%v", err)
			}
		}
		fmt.Print("question> ")
	}
	return scanner.Err()
}

// answer runs one full session and persists its audit case.
func (e *engine) answer(ctx context.Context, question string) error {
	pipeline := validator.NewPipeline(e.profile)
	sess := session.New(e.cfg, e.gen, nil, e.prompts, pipeline, e.exec)
	res, runErr := sess.Run(ctx, question)
	if e.cfg.Logging.Verbose {
		for _, a := range res.Attempts {
			util.Detailf("attempt %d status=%s sql=%s", a.Seq, a.Status, a.SQL)
		}
	}

	switch res.Outcome {
	case session.OutcomeSucceeded:
		printRows(res)
	case session.OutcomeExhausted:
		util.Errorf("no valid query after %d attempts", len(res.Attempts))
	case session.OutcomeRefused:
		util.Errorf("the model refused to answer after %d attempts", len(res.Attempts))
	case session.OutcomeCancelled:
		util.Warnf("session cancelled")
	}

	if e.cfg.Audit.Enabled {
		if err := e.audit(ctx, res, runErr); err != nil {
			util.Errorf("audit write failed: %v", err)
		}
	}
	return runErr
}

func (e *engine) audit(ctx context.Context, res *session.Result, runErr error) error {
	c, err := e.reporter.NewCase()
	if err != nil {
		return err
	}
	if err := e.reporter.WriteSession(c, res, e.profile.Name, e.cfg.RunInfo, runErr); err != nil {
		return err
	}
	if e.cfg.Audit.Archive {
		if _, _, err := e.reporter.WriteCaseArchive(c); err != nil {
			return err
		}
	}
	if e.uploads.Enabled() {
		location, err := e.uploads.UploadDir(ctx, c.Dir)
		if err != nil {
			return err
		}
		util.Infof("case %s uploaded to %s", c.ID, location)
	}
	return nil
}

func printRows(res *session.Result) {
	fmt.Println(strings.Join(res.Rows.Columns, "\t"))
	for _, row := range res.Rows.Rows {
		fmt.Println(strings.Join(row, "\t"))
	}
	if res.Rows.Truncated {
		util.Warnf("result truncated to %d rows", res.Rows.RowCount())
	}
	util.Infof("%d row(s) in %s after %d attempt(s)", res.Rows.RowCount(), res.Elapsed.Round(time.Millisecond), len(res.Attempts))
}
