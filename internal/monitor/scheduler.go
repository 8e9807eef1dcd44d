package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"spyton-bot/internal/infra/log"
	"spyton-bot/internal/models"

	"go.uber.org/zap"
)

// TradeSource is the trade-data boundary. RecentTrades returns trades newer
// than sinceCursor oldest-to-newest plus the advanced cursor; failures wrap
// models.ErrRateLimited or models.ErrSourceUnavailable.
type TradeSource interface {
	BestPool(ctx context.Context, tokenAddress string) (models.PoolInfo, error)
	RecentTrades(ctx context.Context, poolID string, sinceCursor string) ([]models.TradeRecord, string, error)
}

// SchedulerConfig tunes the polling engine.
type SchedulerConfig struct {
	PollInterval   time.Duration // tick between cycles
	PerCallTimeout time.Duration // cancellation bound on one token's fetch work
	Window         time.Duration // leaderboard rolling window
	Cooldown       time.Duration // global pause after a rate-limit response
	Backoff        time.Duration // per-token pause after a source failure
	MaxConcurrent  int           // fan-out cap across tokens
	TopN           int           // leaderboard rows
	SeenTTL        time.Duration // seen-trade retention by age
	SeenMaxSize    int           // seen-trade retention by count
}

func (c *SchedulerConfig) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 25 * time.Second
	}
	if c.PerCallTimeout <= 0 {
		c.PerCallTimeout = 20 * time.Second
	}
	if c.Window <= 0 {
		c.Window = 24 * time.Hour
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Minute
	}
	if c.Backoff <= 0 {
		c.Backoff = 30 * time.Second
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.TopN <= 0 {
		c.TopN = 10
	}
	if c.SeenTTL <= 0 {
		c.SeenTTL = 3 * time.Hour
	}
	if c.SeenMaxSize <= 0 {
		c.SeenMaxSize = 5000
	}
}

// pollState is the per-token cycle state:
// Idle → Fetching → Processing → Idle, with Backoff entered on source
// failure or rate limit and left once the cool-down elapses.
type pollState uint8

const (
	stateIdle pollState = iota
	stateFetching
	stateProcessing
	stateBackoff
)

func (s pollState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateFetching:
		return "fetching"
	case stateProcessing:
		return "processing"
	case stateBackoff:
		return "backoff"
	}
	return "unknown"
}

// tokenRuntime is the per-token context owned by the scheduler. Its seen-set
// and leaderboard state are mutated only by the single cycle processing the
// token, enforced by the state transition in tryBegin.
type tokenRuntime struct {
	mu           sync.Mutex
	state        pollState
	backoffUntil time.Time

	seen  *SeenTradeSet
	board *LeaderboardState
}

// tryBegin moves Idle→Fetching if the token is eligible this tick. A token
// still in Fetching/Processing skips the tick (no overlapping polls); one in
// Backoff waits out its cool-down.
func (rt *tokenRuntime) tryBegin(now time.Time) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch rt.state {
	case stateFetching, stateProcessing:
		return false
	case stateBackoff:
		if now.Before(rt.backoffUntil) {
			return false
		}
	}
	rt.state = stateFetching
	return true
}

func (rt *tokenRuntime) setState(s pollState) {
	rt.mu.Lock()
	rt.state = s
	rt.mu.Unlock()
}

func (rt *tokenRuntime) enterBackoff(until time.Time) {
	rt.mu.Lock()
	rt.state = stateBackoff
	rt.backoffUntil = until
	rt.mu.Unlock()
}

// Scheduler drives the polling cadence across all tracked tokens.
type Scheduler struct {
	cfg        SchedulerConfig
	source     TradeSource
	registry   Registry
	dispatcher *Dispatcher

	mu            sync.Mutex
	runtimes      map[int64]*tokenRuntime
	cooldownUntil time.Time // global rate-limit cool-down, shared by all tokens

	sem chan struct{}
	wg  sync.WaitGroup
}

func NewScheduler(cfg SchedulerConfig, source TradeSource, registry Registry, dispatcher *Dispatcher) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{
		cfg:        cfg,
		source:     source,
		registry:   registry,
		dispatcher: dispatcher,
		runtimes:   make(map[int64]*tokenRuntime),
		sem:        make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Run polls until ctx is cancelled, then waits for in-flight token work.
func (s *Scheduler) Run(ctx context.Context) {
	log.LogInfo("Starting poll scheduler",
		zap.Duration("interval", s.cfg.PollInterval),
		zap.Int("max_concurrent", s.cfg.MaxConcurrent))

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			log.LogInfo("Poll scheduler stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle fans one tick out across the active token set. The cycle itself
// never blocks on a token: eligibility is checked up front and the bounded
// semaphore is acquired inside each token's goroutine.
func (s *Scheduler) runCycle(ctx context.Context) {
	now := time.Now()
	if s.inCooldown(now) {
		log.LogDebug("Skipping cycle, global rate-limit cool-down active")
		return
	}

	tokens, err := s.registry.ListActiveTokens()
	if err != nil {
		log.LogError("Failed to load active tokens", zap.Error(err))
		return
	}
	s.pruneRuntimes(tokens)

	for _, token := range tokens {
		rt := s.runtime(token.TokenID, now)
		if !rt.tryBegin(now) {
			continue
		}

		s.wg.Add(1)
		go func(token models.TrackedToken, rt *tokenRuntime) {
			defer s.wg.Done()
			select {
			case s.sem <- struct{}{}:
				defer func() { <-s.sem }()
			case <-ctx.Done():
				rt.setState(stateIdle)
				return
			}
			s.pollToken(ctx, token, rt)
		}(token, rt)
	}
}

func (s *Scheduler) runtime(tokenID int64, now time.Time) *tokenRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.runtimes[tokenID]
	if !ok {
		rt = &tokenRuntime{
			seen:  NewSeenTradeSet(s.cfg.SeenTTL, s.cfg.SeenMaxSize),
			board: NewLeaderboardState(now),
		}
		s.runtimes[tokenID] = rt
	}
	return rt
}

// pruneRuntimes drops state for tokens no longer in the active set.
func (s *Scheduler) pruneRuntimes(tokens []models.TrackedToken) {
	active := make(map[int64]struct{}, len(tokens))
	for _, t := range tokens {
		active[t.TokenID] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rt := range s.runtimes {
		if _, ok := active[id]; ok {
			continue
		}
		rt.mu.Lock()
		idle := rt.state == stateIdle || rt.state == stateBackoff
		rt.mu.Unlock()
		if idle {
			delete(s.runtimes, id)
		}
	}
}

func (s *Scheduler) inCooldown(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Before(s.cooldownUntil)
}

func (s *Scheduler) enterCooldown(now time.Time) {
	s.mu.Lock()
	s.cooldownUntil = now.Add(s.cfg.Cooldown)
	s.mu.Unlock()
	log.LogWarn("Entering global rate-limit cool-down", zap.Duration("cooldown", s.cfg.Cooldown))
}

// pollToken runs one token through Fetching and Processing. Every failure is
// contained here; nothing bubbles past the scheduler.
func (s *Scheduler) pollToken(ctx context.Context, token models.TrackedToken, rt *tokenRuntime) {
	now := time.Now()
	if s.inCooldown(now) {
		// A parallel poll hit the shared quota after this token was admitted.
		rt.enterBackoff(now.Add(s.cfg.Cooldown))
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.PerCallTimeout)
	defer cancel()

	pool, err := s.source.BestPool(callCtx, token.TokenAddress)
	if err != nil {
		s.handleSourceError(token, rt, err, now)
		return
	}

	trades, newCursor, err := s.source.RecentTrades(callCtx, pool.Address, token.LastTradeID)
	if err != nil {
		s.handleSourceError(token, rt, err, now)
		return
	}

	rt.setState(stateProcessing)
	defer rt.setState(stateIdle)

	buys := QualifyingBuys(token, rt.seen, trades, now)
	if len(buys) > 0 {
		log.LogInfo("Found qualifying buys",
			zap.Int64("token_id", token.TokenID),
			zap.Int("count", len(buys)))
	}

	for _, buy := range buys {
		if err := s.dispatcher.AlertBuy(ctx, token, buy, pool); err != nil {
			log.LogError("Buy alert delivery failed",
				zap.Int64("token_id", token.TokenID),
				zap.String("trade_id", buy.ID),
				zap.Error(err))
		}

		rt.board.ApplyBuys([]models.TradeRecord{buy}, s.cfg.Window, time.Now())

		text := RenderLeaderboard(rt.board, token, s.cfg.TopN)
		if err := s.dispatcher.UpdateLeaderboard(ctx, &token, text); err != nil {
			log.LogError("Leaderboard update deferred",
				zap.Int64("token_id", token.TokenID),
				zap.Error(err))
		}
	}

	if newCursor != token.LastTradeID {
		if err := s.registry.SetLastTradeID(token.TokenID, newCursor); err != nil {
			if errors.Is(err, models.ErrTokenNotFound) {
				log.LogDebug("Token removed mid-cycle, skipping cursor save",
					zap.Int64("token_id", token.TokenID))
			} else {
				log.LogWarn("Failed to persist poll cursor",
					zap.Int64("token_id", token.TokenID),
					zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) handleSourceError(token models.TrackedToken, rt *tokenRuntime, err error, now time.Time) {
	switch {
	case errors.Is(err, models.ErrRateLimited):
		s.enterCooldown(now)
		rt.enterBackoff(now.Add(s.cfg.Cooldown))
	case errors.Is(err, models.ErrSourceUnavailable):
		log.LogWarn("Trade source unavailable, backing off token",
			zap.Int64("token_id", token.TokenID),
			zap.Duration("backoff", s.cfg.Backoff),
			zap.Error(err))
		rt.enterBackoff(now.Add(s.cfg.Backoff))
	default:
		log.LogError("Unexpected fetch error, backing off token",
			zap.Int64("token_id", token.TokenID),
			zap.Error(err))
		rt.enterBackoff(now.Add(s.cfg.Backoff))
	}
}
