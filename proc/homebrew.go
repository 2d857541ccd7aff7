package proc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/brewbot/sys"
	"golang.org/x/time/rate"
)

const (
	TriggerPeriodic = "periodic"
	TriggerManual   = "manual"
)

// ErrInvalidSearchTerm is returned for an empty or blank search term.
var ErrInvalidSearchTerm = errors.New(sys.MsgHomebrewInvalidSearch)

// ThrottledError reports a manual reload requested inside the cooldown.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("reload throttled, retry in %v", e.RetryAfter)
}

func (e *ThrottledError) Is(target error) bool { return target == ErrReloadThrottled }

// Reporter posts refresh status somewhere humans can see it.
type Reporter interface {
	Report(ctx context.Context, msg string)
}

// Recorder persists the outcome of a refresh attempt.
type Recorder func(ctx context.Context, r *sys.CatalogRefresh) error

type CatalogOptions struct {
	RepoURL        string
	SearchFields   []string
	ReloadCooldown time.Duration
	Reporter       Reporter
	Recorder       Recorder
}

// RefreshOutcome describes the most recent refresh attempt.
type RefreshOutcome struct {
	Trigger string
	At      time.Time
	Count   int
	Err     error
}

// CatalogService drives catalog refreshes and answers queries from the command layer.
type CatalogService struct {
	store    *Store
	fetcher  Fetcher
	repoURL  string
	fields   []string
	reporter Reporter
	recorder Recorder
	limiter  *rate.Limiter
	last     atomic.Pointer[RefreshOutcome]

	// NewTicker is swapped in tests to drive the refresh loop by hand.
	NewTicker func(d time.Duration) (<-chan time.Time, func())
	now       func() time.Time
}

func NewCatalogService(store *Store, fetcher Fetcher, opts CatalogOptions) *CatalogService {
	s := &CatalogService{
		store:    store,
		fetcher:  fetcher,
		repoURL:  opts.RepoURL,
		fields:   opts.SearchFields,
		reporter: opts.Reporter,
		recorder: opts.Recorder,
		now:      time.Now,
		NewTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
	if opts.ReloadCooldown > 0 {
		s.limiter = rate.NewLimiter(rate.Every(opts.ReloadCooldown), 1)
	}
	return s
}

// --- Refresh ---

// Refresh fetches the catalog and swaps it in, returning the new package count.
// Any failure leaves the live snapshot untouched and is returned as *RefreshError.
func (s *CatalogService) Refresh(ctx context.Context, trigger string) (int, error) {
	started := s.now()
	s.report(ctx, sys.MsgHomebrewReloading)

	err := s.fetchAndLoad(ctx)
	count := s.store.Size()

	outcome := &RefreshOutcome{Trigger: trigger, At: started, Count: count, Err: err}
	s.last.Store(outcome)
	s.record(ctx, outcome, s.now().Sub(started))

	if err != nil {
		sys.LogHomebrewError(sys.MsgHomebrewRefreshFail, err)
		s.report(ctx, fmt.Sprintf(sys.MsgHomebrewRefreshFail, err))
		return count, err
	}

	sys.LogHomebrew(sys.MsgHomebrewFound, count, s.repoURL)
	s.report(ctx, fmt.Sprintf(sys.MsgHomebrewFound, count, s.repoURL))
	return count, nil
}

func (s *CatalogService) fetchAndLoad(ctx context.Context) error {
	body, err := s.fetcher.Fetch(ctx, s.repoURL)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: s.repoURL, Err: err}
		}
		return &RefreshError{Cause: err}
	}
	if err := s.store.Load(body); err != nil {
		return &RefreshError{Cause: err}
	}
	return nil
}

// RequestReload is the manual reload path; it is throttled by the reload cooldown.
func (s *CatalogService) RequestReload(ctx context.Context) (int, error) {
	if s.limiter != nil {
		r := s.limiter.Reserve()
		if d := r.Delay(); d > 0 {
			r.Cancel()
			return s.store.Size(), &ThrottledError{RetryAfter: d}
		}
	}
	return s.Refresh(ctx, TriggerManual)
}

// WaitReady blocks until ready is closed. It reports false when ctx ends first.
func (s *CatalogService) WaitReady(ctx context.Context, ready <-chan struct{}) bool {
	select {
	case <-ready:
		return true
	case <-ctx.Done():
		return false
	}
}

// RunLoop refreshes immediately and then once per interval until ctx is done.
// A failed refresh never stops the loop.
func (s *CatalogService) RunLoop(ctx context.Context, interval time.Duration) {
	tick, stop := s.NewTicker(interval)
	defer stop()

	for {
		if ctx.Err() != nil {
			return
		}
		_, _ = s.Refresh(ctx, TriggerPeriodic)
		sys.LogDebug(sys.MsgHomebrewNextRefresh, interval)

		select {
		case <-ctx.Done():
			sys.LogHomebrew(sys.MsgHomebrewLoopStopped)
			return
		case <-tick:
		}
	}
}

// PeriodicRefresh waits for the host to become ready, then runs the refresh loop.
func (s *CatalogService) PeriodicRefresh(ctx context.Context, ready <-chan struct{}, interval time.Duration) {
	if !s.WaitReady(ctx, ready) {
		sys.LogHomebrew(sys.MsgHomebrewRefreshSkipped)
		return
	}
	s.RunLoop(ctx, interval)
}

func (s *CatalogService) report(ctx context.Context, msg string) {
	if s.reporter != nil {
		s.reporter.Report(ctx, msg)
	}
}

func (s *CatalogService) record(ctx context.Context, o *RefreshOutcome, took time.Duration) {
	if s.recorder == nil {
		return
	}
	row := &sys.CatalogRefresh{
		Trigger:      o.Trigger,
		StartedAt:    o.At,
		Duration:     took,
		PackageCount: o.Count,
	}
	if o.Err != nil {
		row.Error = o.Err.Error()
	}
	// The refresh context may already be cancelled on shutdown.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.recorder(recCtx, row); err != nil {
		sys.LogWarn(sys.MsgHomebrewRecordFail, err)
	}
}

// --- Queries ---

func (s *CatalogService) PackageCount() int {
	return s.store.Size()
}

func (s *CatalogService) FindPackage(nameOrTitle string) (*Package, bool) {
	return s.store.Find(nameOrTitle)
}

func (s *CatalogService) ListByCategory(b Bucket) []string {
	return s.store.ListNames(b)
}

// SearchPackages searches the configured fields. A blank term is rejected.
func (s *CatalogService) SearchPackages(term string) ([]string, error) {
	if strings.TrimSpace(term) == "" {
		return nil, ErrInvalidSearchTerm
	}
	return s.store.Search(term, s.fields), nil
}

// MatchPackages suggests packages whose name or title contains prefix, up to limit.
func (s *CatalogService) MatchPackages(prefix string, limit int) []*Package {
	var out []*Package
	for _, p := range s.store.Snapshot().All {
		if len(out) >= limit {
			break
		}
		if p.Name == "" {
			continue
		}
		if prefix == "" || sys.ContainsLower(p.Name, prefix) || sys.ContainsLower(p.Title, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) RepoURL() string {
	return s.repoURL
}

// LastRefresh returns nil before the first refresh attempt.
func (s *CatalogService) LastRefresh() *RefreshOutcome {
	return s.last.Load()
}

// --- Log Channel Reporter ---

// ChannelReporter posts refresh status to a Discord channel once the client is ready.
type ChannelReporter struct {
	ChannelID snowflake.ID
	client    atomic.Pointer[bot.Client]
}

func (r *ChannelReporter) SetClient(client *bot.Client) {
	r.client.Store(client)
}

func (r *ChannelReporter) Report(ctx context.Context, msg string) {
	client := r.client.Load()
	if client == nil || r.ChannelID == 0 {
		return
	}
	_, err := client.Rest.CreateMessage(r.ChannelID, discord.NewMessageCreate().WithContent(msg), rest.WithCtx(ctx))
	if err != nil {
		sys.LogWarn(sys.MsgHomebrewReportFail, r.ChannelID, err)
	}
}

// --- Daemon Wiring ---

var (
	// Catalog is the process-wide catalog service, set by InitCatalog.
	Catalog         *CatalogService
	catalogReporter *ChannelReporter
	refreshInterval = sys.DefaultRefreshInterval
	refresherActive int32
)

func init() {
	sys.OnClientReady(func(ctx context.Context, client *bot.Client) {
		if catalogReporter != nil {
			catalogReporter.SetClient(client)
		}
	})
	sys.RegisterDaemon(sys.LogHomebrew, StartCatalogRefresher)
}

// InitCatalog builds the catalog service from configuration.
func InitCatalog(cfg *sys.Config) *CatalogService {
	catalogReporter = &ChannelReporter{ChannelID: cfg.LogChannelID}
	refreshInterval = cfg.RefreshInterval

	Catalog = NewCatalogService(NewStore(), NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchRetries), CatalogOptions{
		RepoURL:        cfg.RepoURL,
		SearchFields:   cfg.SearchFields,
		ReloadCooldown: cfg.ReloadCooldown,
		Reporter:       catalogReporter,
		Recorder:       sys.RecordCatalogRefresh,
	})

	if n, err := sys.GetCatalogRefreshCount(context.Background()); err == nil && n > 0 {
		sys.LogHomebrew(sys.MsgHomebrewHistory, n)
	}
	return Catalog
}

// StartCatalogRefresher is the daemon starter for the periodic refresh.
func StartCatalogRefresher(ctx context.Context) (bool, func(), func()) {
	if Catalog == nil || !atomic.CompareAndSwapInt32(&refresherActive, 0, 1) {
		return false, nil, nil
	}

	return true, func() {
			Catalog.PeriodicRefresh(ctx, sys.ClientReady(), refreshInterval)
		}, func() {
			sys.LogHomebrew(sys.MsgHomebrewShutdown)
		}
}
