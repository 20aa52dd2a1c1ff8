package store

import (
	"math"
	"testing"
	"time"

	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &models.MConfig{
		Timezone: 8,
		Feed:     models.MFeedConfig{TriggerDigit: "5"},
	}
	return New(cfg, logger.NewLogger("store-test"))
}

func tick(timeStr string, price float64) models.MTick {
	return models.MTick{Time: timeStr, Price: price}
}

// -----------------------------------------------------------------------------
// Price rotation and direction
// -----------------------------------------------------------------------------

func TestOnTick_RotatesPricePair(t *testing.T) {
	s := newTestStore(t)

	s.OnTick(tick("2024-05-06 15:04:09.123 +08", 100.004))
	state := s.State()
	require.NotNil(t, state.Price.Current)
	assert.Equal(t, 100.0, *state.Price.Current)
	assert.Nil(t, state.Price.Previous)
	assert.Equal(t, models.DirectionNone, state.Price.Direction)
	assert.Equal(t, "100.00", state.FormattedPrice)

	s.OnTick(tick("2024-05-06 15:04:10.456 +08", 105.499))
	state = s.State()
	assert.Equal(t, 105.5, *state.Price.Current)
	assert.Equal(t, 100.0, *state.Price.Previous)
	assert.Equal(t, models.DirectionUp, state.Price.Direction)
	assert.Equal(t, "105.50", state.FormattedPrice)

	s.OnTick(tick("2024-05-06 15:04:11.789 +08", 99.0))
	state = s.State()
	assert.Equal(t, models.DirectionDown, state.Price.Direction)
}

func TestOnTick_EqualRoundedPriceIsNone(t *testing.T) {
	s := newTestStore(t)

	s.OnTick(tick("2024-05-06 15:04:09.123 +08", 105.501))
	// Rounds to the same displayed value, so there is no movement to show.
	s.OnTick(tick("2024-05-06 15:04:10.456 +08", 105.504))

	state := s.State()
	assert.Equal(t, 105.5, *state.Price.Current)
	assert.Equal(t, 105.5, *state.Price.Previous)
	assert.Equal(t, models.DirectionNone, state.Price.Direction)
}

// -----------------------------------------------------------------------------
// Snapshot application and price seeding
// -----------------------------------------------------------------------------

func TestOnSnapshotLoaded_SeedsMissingPrices(t *testing.T) {
	s := newTestStore(t)
	snap := fixtureSnapshot()

	s.OnSnapshotLoaded(snap, s.NextLoadGeneration())
	state := s.State()
	assert.False(t, state.Loading)
	assert.Equal(t, snap.AnalyseTime, state.AnalyseTime)
	assert.Equal(t, snap.StartTime, state.StartTime)
	require.NotNil(t, state.Price.Current)
	assert.Equal(t, 64000.5, *state.Price.Current)
	assert.Nil(t, state.Price.Previous, "first load seeds only the current price")
	assert.Equal(t, models.DirectionNone, state.Price.Direction)
	assert.Equal(t, "64000.50", state.FormattedPrice)

	// A second load backfills the previous price with the same value, which
	// still shows no movement.
	s.OnSnapshotLoaded(fixtureSnapshot(), s.NextLoadGeneration())
	state = s.State()
	require.NotNil(t, state.Price.Previous)
	assert.Equal(t, 64000.5, *state.Price.Previous)
	assert.Equal(t, models.DirectionNone, state.Price.Direction)
}

func TestOnSnapshotLoaded_NeverOverwritesLiveTick(t *testing.T) {
	s := newTestStore(t)

	s.OnTick(tick("2024-05-06 15:04:09.123 +08", 100.0))
	s.OnSnapshotLoaded(fixtureSnapshot(), s.NextLoadGeneration())

	state := s.State()
	assert.Equal(t, 100.0, *state.Price.Current, "live tick wins over snapshot price")
	require.NotNil(t, state.Price.Previous)
	assert.Equal(t, 64000.5, *state.Price.Previous, "snapshot backfills the empty slot")
	assert.Equal(t, models.DirectionDown, state.Price.Direction)
}

func TestOnSnapshotLoaded_DiscardsStaleGeneration(t *testing.T) {
	s := newTestStore(t)

	genOld := s.NextLoadGeneration()
	genNew := s.NextLoadGeneration()

	fresh := fixtureSnapshot()
	s.OnSnapshotLoaded(fresh, genNew)

	stale := fixtureSnapshot()
	stale.AnalyseTime = "2020-01-01 00:00:00.000 +08"
	s.OnSnapshotLoaded(stale, genOld)

	state := s.State()
	assert.Equal(t, fresh.AnalyseTime, state.AnalyseTime, "slower older load must not clobber the newer one")
}

func TestOnSnapshotLoaded_DerivesTables(t *testing.T) {
	s := newTestStore(t)
	s.SetYearMonth("2024-05")
	s.OnSnapshotLoaded(fixtureSnapshot(), s.NextLoadGeneration())

	state := s.State()
	require.Len(t, state.Table1, 1)
	assert.Equal(t, "2024-05", state.Table1[0].Month)
	assert.Len(t, state.Table2, 3)
	assert.Len(t, state.Table3, 2)
	assert.Len(t, state.Table4, 2)
	assert.Len(t, state.Table5, 2)
	assert.Equal(t, "1.2345", state.LatestValue)
	assert.Empty(t, state.DateValue, "chart series withheld until the chart is shown")
}

func TestDerivationFailureKeepsPreviousTables(t *testing.T) {
	s := newTestStore(t)
	s.SetYearMonth("2024-05")
	s.OnSnapshotLoaded(fixtureSnapshot(), s.NextLoadGeneration())
	require.Len(t, s.State().Table2, 3)

	bad := fixtureSnapshot()
	bad.Lever = math.NaN()
	s.OnSnapshotLoaded(bad, s.NextLoadGeneration())

	state := s.State()
	assert.Len(t, state.Table2, 3, "failed derivation cycle leaves the prior tables in place")
}

// -----------------------------------------------------------------------------
// Selection mutations
// -----------------------------------------------------------------------------

func TestSelectionMutationsRederive(t *testing.T) {
	s := newTestStore(t)
	s.SetYearMonth("2024-05")
	s.OnSnapshotLoaded(fixtureSnapshot(), s.NextLoadGeneration())
	require.Len(t, s.State().Table2, 3)

	s.SetShowAll(false)
	assert.Len(t, s.State().Table2, 1, "hedge runs collapse when the full view is off")

	s.SetShowAll(true)
	assert.Len(t, s.State().Table2, 3)

	s.SetYearMonth("2024-04")
	state := s.State()
	require.Len(t, state.Table1, 1)
	assert.Equal(t, "2024-04", state.Table1[0].Month)
	assert.Len(t, state.Table2, 1)
}

func TestToggleChartGatesDateValue(t *testing.T) {
	s := newTestStore(t)
	s.OnSnapshotLoaded(fixtureSnapshot(), s.NextLoadGeneration())

	assert.Empty(t, s.State().DateValue)

	s.ToggleChart()
	state := s.State()
	assert.True(t, state.Selection.ShowChart)
	assert.Len(t, state.DateValue, 2)

	s.ToggleChart()
	assert.Empty(t, s.State().DateValue)
}

func TestOnSelectionChangeReplacesWholeSelection(t *testing.T) {
	s := newTestStore(t)
	s.OnSnapshotLoaded(fixtureSnapshot(), s.NextLoadGeneration())

	s.OnSelectionChange(models.MSelection{YearMonth: "2024-04", ShowAll: false, ShowChart: true})

	state := s.State()
	assert.Equal(t, "2024-04", state.Selection.YearMonth)
	assert.False(t, state.Selection.ShowAll)
	assert.True(t, state.Selection.ShowChart)
	assert.Len(t, state.DateValue, 2)
}

// -----------------------------------------------------------------------------
// Reload trigger
// -----------------------------------------------------------------------------

func drainReload(s *Store) bool {
	select {
	case <-s.ReloadRequests():
		return true
	default:
		return false
	}
}

func TestTriggerMinuteArmsOneReload(t *testing.T) {
	s := newTestStore(t)

	s.OnTick(tick("2024-05-06 15:04:09.123 +08", 100.0))
	assert.False(t, drainReload(s), "non-matching minute digit must not arm a reload")

	s.OnTick(tick("2024-05-06 15:05:01.000 +08", 100.1))
	assert.True(t, drainReload(s))

	// Same minute again: debounced.
	s.OnTick(tick("2024-05-06 15:05:59.999 +08", 100.2))
	assert.False(t, drainReload(s))

	// A later matching minute re-arms.
	s.OnTick(tick("2024-05-06 15:15:00.000 +08", 100.3))
	assert.True(t, drainReload(s))
}

func TestRequestReloadCoalesces(t *testing.T) {
	s := newTestStore(t)

	s.RequestReload()
	s.RequestReload()
	s.RequestReload()

	assert.True(t, drainReload(s))
	assert.False(t, drainReload(s), "pending requests coalesce into one")
}

func TestLoadGenerationsAreMonotonic(t *testing.T) {
	s := newTestStore(t)
	first := s.NextLoadGeneration()
	second := s.NextLoadGeneration()
	assert.Greater(t, second, first)
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

func receiveState(t *testing.T, ch <-chan models.MDerivedState) models.MDerivedState {
	t.Helper()
	select {
	case state, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return state
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a published state")
		return models.MDerivedState{}
	}
}

func TestSubscribeDeliversCurrentStateImmediately(t *testing.T) {
	s := newTestStore(t)
	s.OnTick(tick("2024-05-06 15:04:09.123 +08", 100.0))

	ch, cancel := s.Subscribe()
	defer cancel()

	state := receiveState(t, ch)
	assert.Equal(t, "100.00", state.FormattedPrice)
}

func TestSubscribeReceivesPublishedGenerations(t *testing.T) {
	s := newTestStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	initial := receiveState(t, ch)

	s.OnTick(tick("2024-05-06 15:04:09.123 +08", 105.5))
	next := receiveState(t, ch)
	assert.Greater(t, next.Generation, initial.Generation)
	assert.Equal(t, "105.50", next.FormattedPrice)
}

func TestSlowSubscriberConvergesOnLatest(t *testing.T) {
	s := newTestStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	// Publish far more generations than the subscription buffer holds.
	for i := 0; i < 50; i++ {
		s.OnTick(tick("2024-05-06 15:04:09.123 +08", 100.0+float64(i)))
	}

	var last models.MDerivedState
	for {
		select {
		case state := <-ch:
			last = state
			continue
		default:
		}
		break
	}
	require.NotNil(t, last.Price.Current)
	assert.Equal(t, 149.0, *last.Price.Current, "the latest published state survives the drops")
}

func TestCancelClosesSubscription(t *testing.T) {
	s := newTestStore(t)
	ch, cancel := s.Subscribe()

	receiveState(t, ch)
	cancel()
	cancel() // idempotent

	// Publishing after cancel must not panic or deliver.
	s.OnTick(tick("2024-05-06 15:04:09.123 +08", 100.0))

	_, ok := <-ch
	assert.False(t, ok)
}
