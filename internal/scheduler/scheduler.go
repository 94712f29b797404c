package scheduler

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/oumg-gold/oumg-console/internal/api"
	"github.com/oumg-gold/oumg-console/internal/db"
	"github.com/oumg-gold/oumg-console/internal/pricing"
	"github.com/oumg-gold/oumg-console/internal/render"
	"github.com/oumg-gold/oumg-console/internal/session"
	"github.com/oumg-gold/oumg-console/internal/utils"
)

// historyKeep caps the local snapshot history.
const historyKeep = 5000

// Notifier fans a text message out to every operator chat. The bot
// implements it; the scheduler never talks to Telegram directly.
type Notifier interface {
	NotifyOperators(ctx context.Context, text string)
}

type Scheduler struct {
	db     *db.DB
	api    *api.Client
	notify Notifier

	refreshMinutes int
	thresholdBps   int64
	serviceWallet  string

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu             sync.Mutex
	lastFailNotify time.Time
	serviceSess    session.Session
	seenPending    map[string]bool
}

func New(database *db.DB, client *api.Client, notifier Notifier, refreshMinutes int, thresholdBps int64, serviceWallet string) *Scheduler {
	if refreshMinutes <= 0 {
		refreshMinutes = 5
	}
	return &Scheduler{
		db:             database,
		api:            client,
		notify:         notifier,
		refreshMinutes: refreshMinutes,
		thresholdBps:   thresholdBps,
		serviceWallet:  serviceWallet,
		stopCh:         make(chan struct{}),
		seenPending:    map[string]bool{},
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) loop() {
	for {
		// Sleep until the next minute boundary in Kuala Lumpur time.
		now := utils.NowKL()
		next := now.Truncate(time.Minute).Add(time.Minute)
		select {
		case <-time.After(time.Until(next)):
			// tick
		case <-s.stopCh:
			return
		}

		now = utils.NowKL()
		minuteOfDay := now.Hour()*60 + now.Minute()
		if minuteOfDay%s.refreshMinutes != 0 {
			continue
		}
		s.runTick()
	}
}

// RefreshNow drops the cached price and runs one refresh cycle
// immediately, outside the minute grid.
func (s *Scheduler) RefreshNow() {
	s.api.InvalidatePrice()
	s.runTick()
}

func (s *Scheduler) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Second)
	defer cancel()

	s.refreshPrice(ctx)
	if s.serviceWallet != "" {
		s.watchRedemptions(ctx)
	}
}

func (s *Scheduler) refreshPrice(ctx context.Context) {
	snap, err := s.api.CurrentPrice(ctx)
	if err != nil {
		log.Printf("[scheduler] price fetch: %v", err)
		s.notifyFetchFail(ctx, err)
		return
	}
	if snap.IsZero() {
		return
	}

	last, found, err := s.db.LastSnapshot(ctx)
	if err != nil {
		log.Printf("[scheduler] last snapshot: %v", err)
		return
	}
	if found && sameSnapshot(last.Snapshot, snap) {
		return
	}
	if err := s.db.InsertSnapshot(ctx, time.Now(), snap); err != nil {
		log.Printf("[scheduler] insert snapshot: %v", err)
		return
	}
	if err := s.db.PruneHistory(ctx, historyKeep); err != nil {
		log.Printf("[scheduler] prune history: %v", err)
	}
	if !found {
		return
	}

	prev, okPrev := last.Snapshot.EffectiveUserBuy()
	cur, okCur := snap.EffectiveUserBuy()
	if okPrev && okCur && exceedsThreshold(prev, cur, s.alertThreshold(ctx)) && s.notify != nil {
		s.notify.NotifyOperators(ctx, priceMoveText(prev, cur, snap))
	}
}

// alertThreshold reads the runtime override, falling back to the
// configured value when unset or unparseable.
func (s *Scheduler) alertThreshold(ctx context.Context) int64 {
	v, found, err := s.db.GetGlobalSetting(ctx, "alert_threshold_bps")
	if err != nil || !found {
		return s.thresholdBps
	}
	var bps int64
	if _, err := fmt.Sscanf(v, "%d", &bps); err != nil || bps < 0 {
		return s.thresholdBps
	}
	return bps
}

// exceedsThreshold reports whether the move from prev to cur is at
// least threshold basis points of prev. A non-positive previous value
// treats any change as a move.
func exceedsThreshold(prev, cur float64, threshold int64) bool {
	if threshold <= 0 {
		return prev != cur
	}
	if prev <= 0 {
		return prev != cur
	}
	moved := math.Abs(cur-prev) / prev * 10000
	return moved >= float64(threshold)
}

func sameSnapshot(a, b pricing.Snapshot) bool {
	return eqF(a.Base, b.Base) &&
		eqF(a.Buy, b.Buy) &&
		eqF(a.Sell, b.Sell) &&
		eqF(a.UserBuy, b.UserBuy) &&
		eqF(a.UserSell, b.UserSell) &&
		eqF(a.SpreadMYR, b.SpreadMYR) &&
		eqI(a.SpreadBps, b.SpreadBps) &&
		a.Source == b.Source &&
		a.UpdatedAt == b.UpdatedAt
}

func eqF(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqI(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func priceMoveText(prev, cur float64, snap pricing.Snapshot) string {
	arrow := "📈"
	if cur < prev {
		arrow = "📉"
	}
	// A non-positive previous value has no meaningful bps figure; report
	// the move in MYR instead.
	moved := render.MYRValue(math.Abs(cur - prev))
	if prev > 0 {
		moved = fmt.Sprintf("%d bps", int64(math.Round(math.Abs(cur-prev)/prev*10000)))
	}
	return fmt.Sprintf("%s Price moved %s\n%s → %s\n\n%s",
		arrow, moved, render.MYRValue(prev), render.MYRValue(cur), render.SnapshotRow(snap))
}

// watchRedemptions notifies operators once per newly seen pending
// redemption, using the service wallet's read session.
func (s *Scheduler) watchRedemptions(ctx context.Context) {
	sess := s.serviceSession()
	rows, err := s.api.ListRedemptions(ctx, sess, api.RedemptionQuery{
		Page:   api.Page{Limit: 50},
		Status: api.RedemptionPending,
	})
	if err != nil {
		log.Printf("[scheduler] redemption poll: %v", err)
		return
	}

	s.mu.Lock()
	var fresh []api.Redemption
	for _, r := range rows {
		if !s.seenPending[r.ID] {
			s.seenPending[r.ID] = true
			fresh = append(fresh, r)
		}
	}
	// Forget ids that left the pending queue so the map stays bounded.
	pending := make(map[string]bool, len(rows))
	for _, r := range rows {
		pending[r.ID] = true
	}
	for id := range s.seenPending {
		if !pending[id] {
			delete(s.seenPending, id)
		}
	}
	s.mu.Unlock()

	if len(fresh) == 0 || s.notify == nil {
		return
	}
	for _, r := range fresh {
		s.notify.NotifyOperators(ctx, "🔔 New pending redemption\n"+render.RedemptionRow(r))
	}
}

func (s *Scheduler) serviceSession() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.serviceSess.Valid() {
		if sess, ok := session.New(s.serviceWallet); ok {
			s.serviceSess = sess
		}
	}
	return s.serviceSess
}

func (s *Scheduler) notifyFetchFail(ctx context.Context, err error) {
	s.mu.Lock()
	if time.Since(s.lastFailNotify) < 30*time.Minute {
		s.mu.Unlock()
		return
	}
	s.lastFailNotify = time.Now()
	s.mu.Unlock()

	if s.notify != nil {
		s.notify.NotifyOperators(ctx, fmt.Sprintf("⚠️ Price refresh failed\nError: %v\n\nThe backend may be down; the last stored sheet stays in effect.", err))
	}
}
