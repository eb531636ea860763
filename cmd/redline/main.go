// Command redline reviews proposed edits to files as line-level diffs.
//
// Two proposal sources are supported: a patch file (-patch) applied
// against the working tree, or a model rewrite (-m) streamed from the
// configured Gemini model. Either way each file's changes are reviewed
// hunk by hunk in a terminal UI, and only accepted hunks are written
// back to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/bubbletea"
	"github.com/fwojciec/redline/chroma"
	"github.com/fwojciec/redline/engine"
	"github.com/fwojciec/redline/fs"
	"github.com/fwojciec/redline/fsnotify"
	"github.com/fwojciec/redline/genai"
	"github.com/fwojciec/redline/gitdiff"
	"github.com/fwojciec/redline/godiff"
	"github.com/fwojciec/redline/jsonl"
	"github.com/fwojciec/redline/memory"
	"github.com/fwojciec/redline/toml"
)

// ErrNoChanges is returned when the proposal source produced nothing to
// review.
var ErrNoChanges = errors.New("no changes to review")

// App holds the command's dependencies. Zero-value fields are filled in
// by Run with production implementations; tests inject their own.
type App struct {
	PatchPath   string
	Instruction string
	Paths       []string
	ConfigPath  string
	Watch       bool

	Input  io.Reader // patch source taking precedence over PatchPath
	Stdout io.Writer
	Stderr io.Writer

	Buffer   *memory.Buffer
	Engine   *engine.Engine
	Viewer   redline.Viewer
	Proposer redline.Proposer
	Log      *slog.Logger
}

// Run executes the full flow: load proposals, review them interactively,
// save accepted content back to disk.
func (a *App) Run(ctx context.Context) error {
	cfg, err := toml.Load(a.configPath())
	if err != nil {
		return err
	}
	log := a.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(a.errWriter(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	if a.Buffer == nil {
		a.Buffer = memory.NewBuffer()
	}
	if a.Engine == nil {
		a.Engine = engine.New(a.Buffer, godiff.New(),
			engine.WithLogger(log),
			engine.WithAdapterTimeout(cfg.AdapterTimeout.Std()),
			engine.WithHistoryLimit(cfg.HistoryLimit),
		)
		a.Buffer.OnChange(a.Engine.Realign)
	}

	var resolver bubbletea.Resolver = a.Engine
	if cfg.JournalPath != "" {
		rec, err := jsonl.NewRecorder(cfg.JournalPath)
		if err != nil {
			log.Warn("decision journal disabled", "path", cfg.JournalPath, "err", err)
		} else {
			defer rec.Close()
			resolver = &journalingResolver{Engine: a.Engine, rec: rec, log: log}
		}
	}
	if a.Viewer == nil {
		a.Viewer = &bubbletea.Viewer{
			Resolver:  resolver,
			Tokenizer: chroma.NewTokenizer(),
			Language:  chroma.LanguageForPath,
		}
	}

	var uris []string
	switch {
	case a.Input != nil || a.PatchPath != "":
		uris, err = a.importPatch(ctx)
	case a.Instruction != "":
		uris, err = a.propose(ctx, cfg.Model)
	default:
		return errors.New("nothing to do: pass -patch or -m")
	}
	if err != nil {
		return err
	}
	if len(uris) == 0 {
		return ErrNoChanges
	}

	if err := a.review(ctx, uris, log); err != nil {
		return err
	}
	return a.save(uris)
}

func (a *App) configPath() string {
	if a.ConfigPath != "" {
		return a.ConfigPath
	}
	return fs.DefaultConfigPath()
}

func (a *App) errWriter() io.Writer {
	if a.Stderr != nil {
		return a.Stderr
	}
	return os.Stderr
}

func (a *App) outWriter() io.Writer {
	if a.Stdout != nil {
		return a.Stdout
	}
	return os.Stdout
}

// importPatch loads a patch, applies each file's change against the
// on-disk content and registers the result as a reviewable transaction.
func (a *App) importPatch(ctx context.Context) ([]string, error) {
	r := a.Input
	if r == nil {
		f, err := os.Open(a.PatchPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	changes, err := gitdiff.Parse(r)
	if err != nil {
		return nil, err
	}

	var uris []string
	for _, ch := range changes {
		if ch.IsDelete {
			fmt.Fprintf(a.errWriter(), "skipping deletion of %s: not reviewable as hunks\n", ch.Path)
			continue
		}
		var original string
		if !ch.IsNew {
			b, err := os.ReadFile(ch.Path)
			if err != nil {
				return nil, err
			}
			original = string(b)
		}
		modified, err := ch.Apply(original)
		if err != nil {
			return nil, err
		}
		a.Buffer.Open(ch.Path, modified)
		txn, err := a.Engine.CreateTransaction(ctx, ch.Path, original, redline.SourceTool, false)
		if err != nil {
			return nil, err
		}
		if txn.AreaID == "" {
			continue
		}
		uris = append(uris, ch.Path)
	}
	return uris, nil
}

// propose streams a model rewrite of each file into a streaming
// transaction, reconciling diffs as chunks arrive.
func (a *App) propose(ctx context.Context, model string) ([]string, error) {
	if a.Proposer == nil {
		p, err := genai.NewProposer(ctx, model)
		if err != nil {
			return nil, err
		}
		a.Proposer = p
	}

	var uris []string
	for _, path := range a.Paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		content := string(b)
		a.Buffer.Open(path, content)

		txn, err := a.Engine.CreateTransaction(ctx, path, content, redline.SourceAgent, true)
		if err != nil {
			return nil, err
		}
		err = a.Proposer.Propose(ctx, path, content, a.Instruction, func(modifiedSoFar string) error {
			_, uerr := a.Engine.UpdateStreaming(ctx, txn.ID, modifiedSoFar)
			return uerr
		})
		if err != nil {
			_, _ = a.Engine.AbandonTransaction(txn.ID)
			return nil, fmt.Errorf("proposing changes to %s: %w", path, err)
		}
		if err := a.Engine.FinalizeTransaction(txn.ID); err != nil {
			return nil, err
		}
		if a.Engine.DiffCount(path) > 0 {
			uris = append(uris, path)
		}
	}
	return uris, nil
}

// review runs the interactive viewer over each file while a watcher
// mirrors concurrent on-disk edits into the session.
func (a *App) review(ctx context.Context, uris []string, log *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	wctx, stop := context.WithCancel(gctx)
	defer stop()

	if a.Watch {
		w, err := fsnotify.New(func(path, content string) {
			cur, rerr := a.Buffer.Read(path)
			if rerr != nil || cur == content {
				return
			}
			_ = a.Buffer.Write(path, redline.Range(1, redline.LineCount(cur)+1), content)
		}, log)
		if err != nil {
			return err
		}
		defer w.Close()
		for _, uri := range uris {
			if err := w.Add(uri); err != nil {
				log.Warn("not watching file", "path", uri, "err", err)
			}
		}
		g.Go(func() error {
			if err := w.Run(wctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		for {
			select {
			case <-wctx.Done():
				return nil
			case ev := <-a.Engine.Events():
				log.Debug("area event", "uri", ev.URI, "area", ev.AreaID, "reason", ev.Reason)
			}
		}
	})

	g.Go(func() error {
		defer stop()
		for _, uri := range uris {
			if err := a.Viewer.Review(gctx, uri); err != nil {
				return err
			}
		}
		return nil
	})
	return g.Wait()
}

// save writes each reviewed buffer back to disk and prints a summary.
// Unresolved hunks stay in the written content; they were proposed but
// never rejected, so losing them silently would be worse.
func (a *App) save(uris []string) error {
	for _, uri := range uris {
		text, err := a.Buffer.Read(uri)
		if err != nil {
			return err
		}
		if err := os.WriteFile(uri, []byte(text), 0o644); err != nil {
			return fmt.Errorf("saving %s: %w", uri, err)
		}
		pending := a.Engine.DiffCount(uri)
		if pending > 0 {
			fmt.Fprintf(a.outWriter(), "%s: saved with %d undecided hunks\n", uri, pending)
			continue
		}
		fmt.Fprintf(a.outWriter(), "%s: saved\n", uri)
	}
	return nil
}

// journalingResolver records every resolution in the decision journal.
type journalingResolver struct {
	*engine.Engine
	rec *jsonl.Recorder
	log *slog.Logger
}

func (j *journalingResolver) AcceptDiff(diffID string) error {
	return j.resolveOne(diffID, jsonl.ActionAccept, j.Engine.AcceptDiff)
}

func (j *journalingResolver) RejectDiff(diffID string) error {
	return j.resolveOne(diffID, jsonl.ActionReject, j.Engine.RejectDiff)
}

func (j *journalingResolver) resolveOne(diffID, action string, resolve func(string) error) error {
	d, derr := j.Engine.DiffByID(diffID)
	uri, _ := j.Engine.Owner(diffID)
	if err := resolve(diffID); err != nil {
		return err
	}
	if derr == nil {
		j.record(uri, d, action)
	}
	return nil
}

func (j *journalingResolver) AcceptFile(uri string) (redline.BulkResult, error) {
	return j.resolveFile(uri, jsonl.ActionAccept, j.Engine.AcceptFile)
}

func (j *journalingResolver) RejectFile(uri string) (redline.BulkResult, error) {
	return j.resolveFile(uri, jsonl.ActionReject, j.Engine.RejectFile)
}

func (j *journalingResolver) resolveFile(uri, action string, resolve func(string) (redline.BulkResult, error)) (redline.BulkResult, error) {
	before := j.Engine.Diffs(uri)
	res, err := resolve(uri)
	if err != nil {
		return res, err
	}
	failed := make(map[string]bool, len(res.Failures))
	for _, f := range res.Failures {
		failed[f.DiffID] = true
	}
	for _, d := range before {
		if !failed[d.ID] {
			j.record(uri, d, action)
		}
	}
	return res, nil
}

func (j *journalingResolver) record(uri string, d *redline.Diff, action string) {
	err := j.rec.Record(jsonl.Decision{
		URI:          uri,
		DiffID:       d.ID,
		Action:       action,
		OriginalCode: d.OriginalCode,
		ModifiedCode: d.ModifiedCode,
	})
	if err != nil {
		j.log.Warn("decision not journaled", "diff", d.ID, "err", err)
	}
}

func main() {
	patch := flag.String("patch", "", "patch file to review, '-' for stdin")
	instruction := flag.String("m", "", "instruction for a model rewrite of the listed files")
	config := flag.String("config", "", "config file (default "+fs.DefaultConfigPath()+")")
	watch := flag.Bool("watch", true, "mirror on-disk edits into the review")
	flag.Parse()

	app := &App{
		PatchPath:   *patch,
		Instruction: *instruction,
		ConfigPath:  *config,
		Watch:       *watch,
		Paths:       flag.Args(),
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
	if *patch == "-" {
		app.PatchPath = ""
		app.Input = os.Stdin
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx); err != nil {
		if errors.Is(err, ErrNoChanges) {
			fmt.Fprintln(os.Stderr, "redline: nothing to review")
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "redline:", err)
		os.Exit(1)
	}
}
