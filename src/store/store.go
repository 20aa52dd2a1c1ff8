package store

import (
	"sync"

	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/models"
	"mark-price-dashboard/src/utils"
)

// -----------------------------------------------------------------------------
// Reactive Store
// -----------------------------------------------------------------------------

// Store is the single writer of all UI-relevant state. Every mutation that
// affects derived tables re-derives them before the lock is released, so a
// subscriber never observes a partially updated generation.
type Store struct {
	mu     sync.Mutex
	Logger *logger.Logger

	tz           int
	triggerDigit string

	price          models.MPriceState
	formattedPrice string
	snapshot       *models.MSnapshot
	selection      models.MSelection
	loading        bool
	analyseTime    string
	startTime      string

	table1      []models.MTable1Row
	table2      []models.MTable2Row
	table3      []models.MTable3Row
	table4      []models.MTable4Row
	table5      []models.MTable5Row
	latestDate  string
	latestValue string

	// generation numbers published snapshots of derived state; loadGen and
	// appliedGen guard snapshot reloads against stale completion.
	generation int64
	loadGen    int64
	appliedGen int64

	lastTriggerMinute string
	reloadCh          chan struct{}

	subscribers map[chan models.MDerivedState]struct{}
}

// -----------------------------------------------------------------------------

func New(cfg *models.MConfig, log *logger.Logger) *Store {
	s := &Store{
		Logger:       log,
		tz:           cfg.Timezone,
		triggerDigit: cfg.Feed.TriggerDigit,
		loading:      true,
		reloadCh:     make(chan struct{}, 1),
		subscribers:  make(map[chan models.MDerivedState]struct{}),
	}

	s.price.Direction = models.DirectionNone
	s.selection = models.MSelection{ShowAll: true}
	if now, err := utils.NowString(cfg.Timezone); err == nil {
		s.selection.YearMonth = utils.YearMonthOf(now)
	}
	return s
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

// OnTick applies one feed tick: rotates the price pair, recomputes the
// direction, and arms a snapshot reload when the tick minute matches the
// trigger digit for the first time in that minute.
func (s *Store) OnTick(tick models.MTick) {
	current, err := utils.RoundFixed(tick.Price, 2)
	if err != nil {
		// Feed guarantees parseable prices, anything else is a data
		// integrity bug.
		s.Logger.Error("Tick price rejected: %v", err)
		return
	}

	s.mu.Lock()
	s.price.Previous = s.price.Current
	s.price.Current = &current
	s.price.Direction = models.DirectionOf(s.price.Current, s.price.Previous)
	if formatted, err := utils.FormatFixed(current, 2); err == nil {
		s.formattedPrice = formatted
	}

	if utils.MinuteDigitOf(tick.Time) == s.triggerDigit {
		minute := utils.MinuteOf(tick.Time)
		if minute != s.lastTriggerMinute {
			s.lastTriggerMinute = minute
			s.requestReloadLocked()
		}
	}

	// Price fields feed no table, publish without re-deriving.
	s.publishLocked()
	s.mu.Unlock()
}

// -----------------------------------------------------------------------------

// OnSnapshotLoaded replaces the snapshot wholesale and re-derives all
// tables. Results of loads superseded by a newer applied generation are
// discarded.
func (s *Store) OnSnapshotLoaded(snap *models.MSnapshot, gen int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen <= s.appliedGen {
		s.Logger.Warning("Discarding stale snapshot load (generation %d <= %d)", gen, s.appliedGen)
		return
	}
	s.appliedGen = gen
	s.snapshot = snap
	s.analyseTime = snap.AnalyseTime
	s.startTime = snap.StartTime

	// Asymmetric seeding: a live tick already received is never overwritten.
	if s.price.Current == nil {
		if seeded, err := utils.RoundFixed(snap.NowPrice, 2); err == nil {
			s.price.Current = &seeded
		}
	} else if s.price.Previous == nil {
		if seeded, err := utils.RoundFixed(snap.NowPrice, 2); err == nil {
			s.price.Previous = &seeded
		}
	}
	s.price.Direction = models.DirectionOf(s.price.Current, s.price.Previous)
	if s.price.Current != nil {
		if formatted, err := utils.FormatFixed(*s.price.Current, 2); err == nil {
			s.formattedPrice = formatted
		}
	}

	s.deriveAllLocked()
	s.loading = false
	s.publishLocked()
}

// -----------------------------------------------------------------------------

// OnSelectionChange replaces the whole selection and re-derives.
func (s *Store) OnSelectionChange(sel models.MSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = sel
	s.deriveAllLocked()
	s.publishLocked()
}

// -----------------------------------------------------------------------------

func (s *Store) SetYearMonth(yearMonth string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection.YearMonth = yearMonth
	s.deriveAllLocked()
	s.publishLocked()
}

// -----------------------------------------------------------------------------

func (s *Store) SetShowAll(showAll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection.ShowAll = showAll
	s.deriveAllLocked()
	s.publishLocked()
}

// -----------------------------------------------------------------------------

func (s *Store) ToggleChart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection.ShowChart = !s.selection.ShowChart
	s.deriveAllLocked()
	s.publishLocked()
}

// -----------------------------------------------------------------------------
// Reload coordination
// -----------------------------------------------------------------------------

// RequestReload arms a snapshot reload. Requests coalesce: one pending
// request at a time.
func (s *Store) RequestReload() {
	s.mu.Lock()
	s.requestReloadLocked()
	s.mu.Unlock()
}

func (s *Store) requestReloadLocked() {
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

// -----------------------------------------------------------------------------

// ReloadRequests is consumed by the refresh loop that runs the Snapshot
// Loader.
func (s *Store) ReloadRequests() <-chan struct{} {
	return s.reloadCh
}

// -----------------------------------------------------------------------------

// NextLoadGeneration issues a monotonic generation number for a reload about
// to start. Pass it to OnSnapshotLoaded so stale completions are dropped.
func (s *Store) NextLoadGeneration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadGen++
	return s.loadGen
}

// -----------------------------------------------------------------------------
// Reads and subscriptions
// -----------------------------------------------------------------------------

// State returns a copy of the current derived state.
func (s *Store) State() models.MDerivedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// -----------------------------------------------------------------------------

// Subscribe registers a read-only subscription. The current state is
// delivered immediately; afterwards every published generation is pushed.
// A slow consumer loses intermediate generations, never the latest one.
// The returned cancel func unregisters and closes the channel.
func (s *Store) Subscribe() (<-chan models.MDerivedState, func()) {
	ch := make(chan models.MDerivedState, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.stateLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// -----------------------------------------------------------------------------

func (s *Store) stateLocked() models.MDerivedState {
	state := models.MDerivedState{
		Generation:     s.generation,
		Loading:        s.loading,
		Price:          s.price,
		FormattedPrice: s.formattedPrice,
		AnalyseTime:    s.analyseTime,
		StartTime:      s.startTime,
		Selection:      s.selection,
		Table1:         s.table1,
		Table2:         s.table2,
		Table3:         s.table3,
		Table4:         s.table4,
		Table5:         s.table5,
		LatestDate:     s.latestDate,
		LatestValue:    s.latestValue,
	}
	if s.snapshot != nil {
		state.ErrorLog = s.snapshot.ErrorLog
		if s.selection.ShowChart {
			state.DateValue = s.snapshot.DateValue
		}
	}
	return state
}

// -----------------------------------------------------------------------------

// publishLocked bumps the generation and fans the new state out. Must be
// called with the lock held, after derivation.
func (s *Store) publishLocked() {
	s.generation++
	state := s.stateLocked()

	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// Full buffer: drop the oldest pending generation so the
			// subscriber still converges on the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
			}
		}
	}
}
