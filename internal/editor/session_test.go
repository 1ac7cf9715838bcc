package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type saveCall struct {
	collection      []sections.Section
	expectedVersion int64
}

// fakeBackend stores one portfolio in memory. When gate is set, every save
// blocks until a value is sent on it.
type fakeBackend struct {
	mu        sync.Mutex
	found     bool
	fetchErr  error
	saveErr   error
	stored    []sections.Section
	version   int64
	saves     []saveCall
	inFlight  int
	maxFlight int
	gate      chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{found: true, stored: []sections.Section{}, version: 1}
}

func (b *fakeBackend) Fetch(context.Context, string) (Snapshot, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return Snapshot{}, false, b.fetchErr
	}
	if !b.found {
		return Snapshot{}, false, nil
	}
	return Snapshot{Name: "Demo", Sections: sections.CloneAll(b.stored), Version: b.version}, true, nil
}

func (b *fakeBackend) SaveSections(ctx context.Context, _ string, collection []sections.Section, expectedVersion int64) (int64, error) {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.maxFlight {
		b.maxFlight = b.inFlight
	}
	gate := b.gate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			b.mu.Lock()
			b.inFlight--
			b.mu.Unlock()
			return 0, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFlight--
	b.saves = append(b.saves, saveCall{collection: collection, expectedVersion: expectedVersion})
	if b.saveErr != nil {
		return 0, b.saveErr
	}
	if expectedVersion != b.version {
		return 0, ErrConflict
	}
	b.stored = sections.CloneAll(collection)
	b.version++
	return b.version, nil
}

func (b *fakeBackend) snapshot() ([]saveCall, []sections.Section, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]saveCall(nil), b.saves...), sections.CloneAll(b.stored), b.maxFlight
}

func openSession(t *testing.T, backend *fakeBackend, logger *zap.Logger) *Session {
	t.Helper()
	session, err := Open(context.Background(), Config{
		Backend:        backend,
		PortfolioID:    "portfolio-1",
		PersistTimeout: time.Second,
		Logger:         logger,
	})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func waitIdle(t *testing.T, session *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.Wait(ctx))
}

func TestOpenLoadsSections(t *testing.T) {
	backend := newFakeBackend()
	backend.stored = sections.Insert(nil, sections.Create(sections.TypeAbout, 0, sections.NewUUIDSource()))
	backend.version = 4

	session := openSession(t, backend, nil)
	assert.Equal(t, StateReady, session.State())
	assert.Equal(t, "Demo", session.Name())
	assert.Equal(t, int64(4), session.Version())
	require.Len(t, session.Sections(), 1)
	assert.False(t, session.Saving())
}

func TestOpenMissingPortfolioExposesNotFound(t *testing.T) {
	backend := newFakeBackend()
	backend.found = false

	session := openSession(t, backend, nil)
	assert.Equal(t, StateNotFound, session.State())
	assert.ErrorIs(t, session.Err(), ErrNotFound)

	_, added := session.AddSection(sections.TypeHero)
	assert.False(t, added)
	saves, _, _ := backend.snapshot()
	assert.Empty(t, saves)
}

func TestOpenBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.fetchErr = errors.New("store offline")

	session, err := Open(context.Background(), Config{Backend: backend, PortfolioID: "portfolio-1"})
	require.Error(t, err)
	require.NotNil(t, session)
	assert.Equal(t, StateFailed, session.State())
}

func TestOpenValidatesConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{PortfolioID: "portfolio-1"})
	assert.ErrorIs(t, err, errMissingBackend)
	_, err = Open(context.Background(), Config{Backend: newFakeBackend()})
	assert.ErrorIs(t, err, errMissingPortfolioID)
}

func TestGesturesApplyLocallyBeforePersisting(t *testing.T) {
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	session := openSession(t, backend, nil)

	hero, added := session.AddSection(sections.TypeHero)
	require.True(t, added)

	local := session.Sections()
	require.Len(t, local, 1)
	assert.Equal(t, hero.ID, local[0].ID)
	assert.Equal(t, 0, local[0].Order)
	assert.True(t, session.Saving())

	_, stored, _ := backend.snapshot()
	assert.Empty(t, stored)

	close(backend.gate)
	waitIdle(t, session)
	assert.False(t, session.Saving())

	_, stored, _ = backend.snapshot()
	require.Len(t, stored, 1)
	assert.Equal(t, hero.ID, stored[0].ID)
	assert.Equal(t, int64(2), session.Version())
}

func TestRapidGesturesCoalesceIntoOneSaveInFlight(t *testing.T) {
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	session := openSession(t, backend, nil)

	_, _ = session.AddSection(sections.TypeHero)
	_, _ = session.AddSection(sections.TypeAbout)
	_, _ = session.AddSection(sections.TypeContact)
	local := session.Sections()
	require.Len(t, local, 3)

	session.Reorder(local[0].ID, local[2].ID)

	close(backend.gate)
	waitIdle(t, session)

	saves, stored, maxFlight := backend.snapshot()
	assert.Equal(t, 1, maxFlight)
	assert.LessOrEqual(t, len(saves), 2)
	for index, save := range saves {
		assert.Equal(t, int64(index+1), save.expectedVersion)
	}

	final := session.Sections()
	require.Len(t, stored, 3)
	for index := range final {
		assert.Equal(t, final[index].ID, stored[index].ID)
		assert.Equal(t, index, stored[index].Order)
	}
	assert.Equal(t, local[0].ID, final[2].ID)
}

func TestConflictStopsPersistingUntilReload(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	backend := newFakeBackend()
	session := openSession(t, backend, zap.New(core))

	backend.mu.Lock()
	backend.version = 7
	backend.mu.Unlock()

	_, added := session.AddSection(sections.TypeHero)
	require.True(t, added)
	waitIdle(t, session)

	assert.Equal(t, StateConflict, session.State())
	assert.ErrorIs(t, session.Err(), ErrConflict)
	assert.Len(t, session.Sections(), 1)
	assert.Equal(t, 1, logs.FilterMessage("portfolio save conflicted").Len())

	_, added = session.AddSection(sections.TypeAbout)
	assert.True(t, added)
	assert.False(t, session.Saving())
	saves, _, _ := backend.snapshot()
	assert.Len(t, saves, 1)

	require.NoError(t, session.Reload(context.Background()))
	assert.Equal(t, StateReady, session.State())
	assert.Equal(t, int64(7), session.Version())
	assert.Empty(t, session.Sections())
}

func TestSaveFailureKeepsLocalStateWithoutRetry(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	backend := newFakeBackend()
	backend.saveErr = errors.New("network down")
	session := openSession(t, backend, zap.New(core))

	_, added := session.AddSection(sections.TypeSkills)
	require.True(t, added)
	waitIdle(t, session)

	assert.Equal(t, StateReady, session.State())
	assert.Len(t, session.Sections(), 1)
	assert.EqualError(t, session.Err(), "network down")
	assert.Equal(t, 1, logs.FilterMessage("portfolio save failed").Len())
	saves, stored, _ := backend.snapshot()
	assert.Len(t, saves, 1)
	assert.Empty(t, stored)

	backend.mu.Lock()
	backend.saveErr = nil
	backend.mu.Unlock()
	_, _ = session.AddSection(sections.TypeContact)
	waitIdle(t, session)
	assert.NoError(t, session.Err())
	_, stored, _ = backend.snapshot()
	assert.Len(t, stored, 2)
}

func TestPersistTimeout(t *testing.T) {
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	session, err := Open(context.Background(), Config{
		Backend:        backend,
		PortfolioID:    "portfolio-1",
		PersistTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	defer session.Close()

	_, _ = session.AddSection(sections.TypeHero)
	waitIdle(t, session)
	assert.ErrorIs(t, session.Err(), context.DeadlineExceeded)
	assert.False(t, session.Saving())
}

func TestGesturesOnAbsentIDsDoNotPersist(t *testing.T) {
	backend := newFakeBackend()
	session := openSession(t, backend, nil)

	assert.False(t, session.DeleteSection("missing"))
	assert.False(t, session.DuplicateSection("missing"))
	assert.False(t, session.Reorder("missing", "other"))
	patch, err := sections.NewPatch(map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.False(t, session.UpdateField("missing", patch))

	waitIdle(t, session)
	saves, _, _ := backend.snapshot()
	assert.Empty(t, saves)
}

func TestUpdateFieldAndDuplicate(t *testing.T) {
	backend := newFakeBackend()
	session := openSession(t, backend, nil)

	hero, _ := session.AddSection(sections.TypeHero)
	patch, err := sections.NewPatch(map[string]any{"title": "Staff Engineer"})
	require.NoError(t, err)
	require.True(t, session.UpdateField(hero.ID, patch))
	require.True(t, session.DuplicateSection(hero.ID))

	bad, err := sections.NewPatch(map[string]any{"title": 42})
	require.NoError(t, err)
	assert.False(t, session.UpdateField(hero.ID, bad))

	waitIdle(t, session)
	local := session.Sections()
	require.Len(t, local, 2)
	assert.NotEqual(t, local[0].ID, local[1].ID)
	assert.Equal(t, "Staff Engineer", local[1].Data.(*sections.HeroData).Title)

	require.True(t, session.DeleteSection(local[0].ID))
	waitIdle(t, session)
	_, stored, _ := backend.snapshot()
	require.Len(t, stored, 1)
	assert.Equal(t, 0, stored[0].Order)
}

func TestAddSectionRejectsTypesOutsideCatalog(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	backend := newFakeBackend()
	session := openSession(t, backend, zap.New(core))

	_, added := session.AddSection(sections.Type("bogus"))
	assert.False(t, added)
	assert.Empty(t, session.Sections())
	assert.False(t, session.Saving())
	assert.Equal(t, 1, logs.FilterMessage("gesture rejected").Len())

	hero, added := session.AddSection(sections.TypeHero)
	require.True(t, added)
	waitIdle(t, session)

	assert.NoError(t, session.Err())
	_, stored, _ := backend.snapshot()
	require.Len(t, stored, 1)
	assert.Equal(t, hero.ID, stored[0].ID)
}

func TestReloadIgnoresGesturesUntilFetched(t *testing.T) {
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	session := openSession(t, backend, nil)

	_, added := session.AddSection(sections.TypeHero)
	require.True(t, added)

	reloaded := make(chan error, 1)
	go func() {
		reloaded <- session.Reload(context.Background())
	}()
	require.Eventually(t, func() bool {
		return session.State() == StateLoading
	}, 2*time.Second, 5*time.Millisecond)

	_, added = session.AddSection(sections.TypeAbout)
	assert.False(t, added)

	close(backend.gate)
	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reload did not finish")
	}

	assert.Equal(t, StateReady, session.State())
	assert.Equal(t, int64(2), session.Version())
	require.Len(t, session.Sections(), 1)
	saves, _, _ := backend.snapshot()
	assert.Len(t, saves, 1)
}

func TestReloadCancelledWhileSaving(t *testing.T) {
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	session := openSession(t, backend, nil)
	_, _ = session.AddSection(sections.TypeHero)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, session.Reload(ctx), context.Canceled)
	assert.Equal(t, StateReady, session.State())

	close(backend.gate)
	waitIdle(t, session)
}
