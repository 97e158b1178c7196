// Command matcher runs the reconciliation matcher over a sales export
// without touching sales, and writes the per-row preview as CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/showrunner-backend/api/validators"
	"github.com/angelmondragon/showrunner-backend/internal/csvimport"
	"github.com/angelmondragon/showrunner-backend/internal/fees"
	"github.com/angelmondragon/showrunner-backend/internal/reconciliation"
	"github.com/angelmondragon/showrunner-backend/internal/sessions"
	"github.com/angelmondragon/showrunner-backend/pkg/config"
	"github.com/angelmondragon/showrunner-backend/pkg/db"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitReview = 2
)

type options struct {
	in, out     string
	mode        string
	startNumber int
	runSize     int
	exclude     string
	include     string
	mapping     string
	channel     string
	session     string
	user        string
}

func main() {
	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "matcher", Output: os.Stderr})
	os.Exit(run(context.Background(), os.Args[1:], logg))
}

func run(ctx context.Context, args []string, logg *logger.Logger) int {
	opts, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailed
	}

	data, err := os.ReadFile(opts.in)
	if err != nil {
		logg.Error(ctx, "read export", err)
		return exitFailed
	}

	matchOpts, items, err := loadRun(ctx, opts, logg)
	if err != nil {
		logg.Error(ctx, "load run list", err)
		return exitFailed
	}

	overrides, err := parseMapping(opts.mapping)
	if err != nil {
		logg.Error(ctx, "parse mapping", err)
		return exitFailed
	}

	imp, err := reconciliation.Upload(uuid.Nil, data)
	if err == nil {
		imp, err = imp.Map(overrides, matchOpts)
	}
	if err == nil {
		imp, err = imp.Preview(items)
	}
	if err != nil {
		logg.Error(ctx, "match export", err)
		return exitFailed
	}

	if err := writeOutput(opts.out, imp.Result()); err != nil {
		logg.Error(ctx, "write preview", err)
		return exitFailed
	}

	s := imp.Result().Summary
	logg.Info(logg.WithFields(ctx, map[string]any{
		"rows":         s.TotalRows,
		"matched":      s.Matched,
		"unmatched":    s.Unmatched,
		"invalid":      s.Invalid,
		"excluded":     s.Excluded,
		"needs_review": s.NeedsReview,
		"mode":         s.ModeUsed,
		"out":          opts.out,
	}), "match complete")
	if s.NeedsReview > 0 {
		return exitReview
	}
	return exitOK
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("matcher", flag.ContinueOnError)
	fs.StringVar(&o.in, "in", "", "sales export (.csv or .xlsx)")
	fs.StringVar(&o.out, "out", "-", "preview CSV path, - for stdout")
	fs.StringVar(&o.mode, "mode", enums.MatchModeAuto.String(), "auto|item_number|sequence")
	fs.IntVar(&o.startNumber, "start-number", 1, "first item number of the run")
	fs.IntVar(&o.runSize, "run-size", 0, "offline run length when no session is given")
	fs.StringVar(&o.exclude, "exclude", "", "comma separated exclude keywords")
	fs.StringVar(&o.include, "include", "", "comma separated include keywords")
	fs.StringVar(&o.mapping, "map", "", "column overrides, role=Header pairs separated by commas")
	fs.StringVar(&o.channel, "channel", "", "channel for rows without one (offline only)")
	fs.StringVar(&o.session, "session", "", "session id to load the run list from the database")
	fs.StringVar(&o.user, "user", "", "owner of --session")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	switch {
	case o.in == "":
		return o, errors.New("--in is required")
	case o.session == "" && o.runSize < 1:
		return o, errors.New("--run-size is required without --session")
	case o.session != "" && o.user == "":
		return o, errors.New("--user is required with --session")
	case o.startNumber < 1:
		return o, errors.New("--start-number must be at least 1")
	}
	return o, nil
}

// loadRun builds the run list either from a stored session or as an offline
// run of consecutive numbers.
func loadRun(ctx context.Context, o options, logg *logger.Logger) (reconciliation.Options, []reconciliation.RunItem, error) {
	mode, err := enums.ParseMatchMode(strings.ToLower(o.mode))
	if err != nil {
		return reconciliation.Options{}, nil, err
	}
	opts := reconciliation.Options{
		Mode:        mode,
		StartNumber: o.startNumber,
		Exclude:     validators.SplitList(o.exclude),
		Include:     validators.SplitList(o.include),
	}

	if o.session == "" {
		opts.Channel = enums.NormalizePlatform(o.channel)
		if o.channel == "" {
			if cfg, err := config.Load(); err == nil {
				opts.AutoThreshold = cfg.Reconciliation.AutoModeThreshold
				opts.Channel = enums.NormalizePlatform(cfg.Reconciliation.DefaultChannel)
			}
		}
		return opts, offlineRun(o.startNumber, o.runSize), nil
	}

	sessionID, err := uuid.Parse(o.session)
	if err != nil {
		return opts, nil, fmt.Errorf("invalid --session: %w", err)
	}
	userID, err := uuid.Parse(o.user)
	if err != nil {
		return opts, nil, fmt.Errorf("invalid --user: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return opts, nil, err
	}
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return opts, nil, err
	}
	defer func() { _ = client.Close() }()

	repo := sessions.NewRepository(client.DB())
	session, err := repo.Get(ctx, userID, sessionID)
	if err != nil {
		return opts, nil, err
	}
	stored, err := repo.ListItems(ctx, sessionID)
	if err != nil {
		return opts, nil, err
	}
	schedules, err := reconciliation.ResolveSchedules(ctx, fees.NewRepository(client.DB()))
	if err != nil {
		return opts, nil, err
	}
	opts.AutoThreshold = cfg.Reconciliation.AutoModeThreshold
	opts.Channel = session.Platform
	opts.Schedules = schedules
	opts.FeeRate = session.EstimatedFeeRate
	opts.SoldAt = session.SessionDate
	return opts, reconciliation.RunItemsFrom(stored), nil
}

// offlineRun numbers size placeholder items from start. Item ids are derived
// from the number so repeated runs produce identical output.
func offlineRun(start, size int) []reconciliation.RunItem {
	items := make([]reconciliation.RunItem, 0, size)
	for n := start; n < start+size; n++ {
		id := uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "run-item-%d", n))
		items = append(items, reconciliation.RunItem{
			SessionItemID: id,
			ItemID:        id,
			ItemNumber:    n,
			Name:          fmt.Sprintf("Item %d", n),
			Lifecycle:     enums.LifecycleStatusActive,
		})
	}
	return items
}

func parseMapping(raw string) (map[csvimport.Role]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	out := map[csvimport.Role]string{}
	for _, pair := range strings.Split(raw, ",") {
		role, header, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(role) == "" {
			return nil, fmt.Errorf("mapping entry %q is not role=Header", pair)
		}
		out[csvimport.Role(strings.TrimSpace(role))] = strings.TrimSpace(header)
	}
	return out, nil
}

var createOutput = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// writeOutput writes the preview to path, or stdout for "-". A failed close of
// the file is returned.
func writeOutput(path string, res *reconciliation.Result) (err error) {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, cerr := createOutput(path)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return reconciliation.WritePreviewCSV(w, res)
}
