package grid

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"backend/models"
)

type fakeStore struct {
	mu      sync.Mutex
	nextID  int
	ops     []string
	creates []models.PartidaRequest
	updates []int
	deletes []int

	failUpdate map[int]error
	failCreate error
	failDelete error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 100, failUpdate: map[int]error{}}
}

func (f *fakeStore) CreatePartida(ctx context.Context, tenderID int, req models.PartidaRequest) (*models.Partida, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.nextID++
	f.creates = append(f.creates, req)
	f.ops = append(f.ops, fmt.Sprintf("create:%d", f.nextID))
	row := models.Partida{IDDetalle: f.nextID, IDLicitacion: tenderID, Lote: req.Lote}
	if req.IDProducto != nil {
		row.IDProducto = req.IDProducto
	}
	return &row, nil
}

func (f *fakeStore) UpdatePartida(ctx context.Context, tenderID, detailID int, req models.PartidaRequest) (*models.Partida, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdate[detailID]; err != nil {
		return nil, err
	}
	f.updates = append(f.updates, detailID)
	f.ops = append(f.ops, fmt.Sprintf("update:%d", detailID))
	return &models.Partida{IDDetalle: detailID, IDLicitacion: tenderID, Lote: req.Lote}, nil
}

func (f *fakeStore) DeletePartida(ctx context.Context, tenderID, detailID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deletes = append(f.deletes, detailID)
	return nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ops)
}

type fakeAnalytics struct {
	mu      sync.Mutex
	calls   int
	respond func(name string, price float64) (*models.PriceDeviationResult, error)
}

func (f *fakeAnalytics) CheckPriceDeviation(ctx context.Context, name string, price float64) (*models.PriceDeviationResult, error) {
	f.mu.Lock()
	f.calls++
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return &models.PriceDeviationResult{}, nil
	}
	return respond(name, price)
}

type fakeProducts struct {
	mu      sync.Mutex
	queries []string
	results []models.ProductoSearchResult
}

func (f *fakeProducts) SearchProducts(ctx context.Context, query string, limit int) ([]models.ProductoSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results, nil
}

func newTestController(t *testing.T, store TenderAPI, analytics *fakeAnalytics, cfg Config) *Controller {
	t.Helper()
	if cfg.TenderID == 0 {
		cfg.TenderID = 1
	}
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 5 * time.Millisecond
	}
	if analytics == nil {
		analytics = &fakeAnalytics{}
	}
	c := New(cfg, store, analytics, &fakeProducts{})
	t.Cleanup(c.Close)
	return c
}

func requireTrailingGhost(t *testing.T, c *Controller) {
	t.Helper()
	rows := c.Rows()
	require.NotEmpty(t, rows)
	ghosts := 0
	for _, r := range rows {
		if r.State == StateGhost {
			ghosts++
		}
	}
	require.Equal(t, 1, ghosts, "expected exactly one ghost row")
	last := rows[len(rows)-1]
	require.Equal(t, StateGhost, last.State, "ghost row must be trailing")
	require.Zero(t, last.DetailID)
	require.Zero(t, last.ProductID)
}

func TestInitializeEmptyTenderHasSingleGhost(t *testing.T) {
	c := newTestController(t, newFakeStore(), nil, Config{})
	c.Initialize(nil)

	rows := c.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, StateGhost, rows[0].State)
	require.Equal(t, "General", rows[0].Lot)
}

func TestInitializeServerRowsAreCleanPlusGhost(t *testing.T) {
	c := newTestController(t, newFakeStore(), nil, Config{})
	productID := 55
	c.Initialize([]models.Partida{
		{IDDetalle: 10, IDProducto: &productID, ProductNombre: "Cemento", Lote: "Lote 1", Unidades: 100, PVU: 12.5},
		{IDDetalle: 11, ProductNombre: "Arena", Unidades: 50, PVU: 3},
	})

	rows := c.Rows()
	require.Len(t, rows, 3)
	require.Equal(t, StateClean, rows[0].State)
	require.Equal(t, 55, rows[0].ProductID)
	require.Equal(t, "Lote 1", rows[0].Lot)
	require.Equal(t, StateClean, rows[1].State)
	require.Equal(t, "General", rows[1].Lot)
	requireTrailingGhost(t, c)
}

func TestSelectProductPromotesGhostAndAppends(t *testing.T) {
	c := newTestController(t, newFakeStore(), nil, Config{})
	c.Initialize(nil)
	c.EditField(0, FieldLot, "Lote Norte")

	c.SelectProduct(0, 55, "Cemento")

	rows := c.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, StateDirty, rows[0].State)
	require.Equal(t, "Cemento", rows[0].ProductName)
	require.Equal(t, StateGhost, rows[1].State)
	require.Equal(t, "Lote Norte", rows[1].Lot, "new ghost keeps the promoted row's lot")
	requireTrailingGhost(t, c)
}

func TestEditFieldCoercesMalformedNumbers(t *testing.T) {
	c := newTestController(t, newFakeStore(), nil, Config{})
	c.Initialize(nil)
	c.SelectProduct(0, 55, "Cemento")

	c.EditField(0, FieldUnits, "12,5")
	c.EditField(0, FieldSalePrice, "abc")
	c.EditField(0, FieldCostPrice, "-4")
	c.EditField(0, FieldMaxPrice, " 14 ")

	rows := c.Rows()
	require.Equal(t, 12.5, rows[0].Units)
	require.Equal(t, 0.0, rows[0].SalePrice)
	require.Equal(t, 0.0, rows[0].CostPrice)
	require.Equal(t, 14.0, rows[0].MaxPrice)
}

func TestEditEmptyGhostStaysGhost(t *testing.T) {
	c := newTestController(t, newFakeStore(), nil, Config{})
	c.Initialize(nil)

	c.EditField(0, FieldUnits, "10")

	rows := c.Rows()
	require.Equal(t, StateGhost, rows[0].State, "ancillary edits before product selection do not promote")
}

func TestSaveAllPendingPersistsNewRow(t *testing.T) {
	store := newFakeStore()
	notified := make(chan struct{}, 1)
	c := newTestController(t, store, nil, Config{OnPersisted: func() { notified <- struct{}{} }})
	c.Initialize(nil)

	c.SelectProduct(0, 55, "Cemento")
	c.EditField(0, FieldUnits, "100")
	c.EditField(0, FieldSalePrice, "12.5")

	c.SaveAllPending(context.Background())

	rows := c.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, StateClean, rows[0].State)
	require.NotZero(t, rows[0].DetailID)
	requireTrailingGhost(t, c)
	require.Len(t, store.creates, 1)
	require.Equal(t, "General", store.creates[0].Lote)
	select {
	case <-notified:
	default:
		t.Fatal("expected OnPersisted notification after a new row persisted")
	}
}

func TestSaveAllPendingIdempotent(t *testing.T) {
	store := newFakeStore()
	c := newTestController(t, store, nil, Config{})
	c.Initialize(nil)
	c.SelectProduct(0, 55, "Cemento")
	c.EditField(0, FieldUnits, "100")

	c.SaveAllPending(context.Background())
	calls := store.callCount()
	require.Equal(t, 1, calls)

	c.SaveAllPending(context.Background())
	require.Equal(t, calls, store.callCount(), "second save with no edits must issue zero network calls")
}

func TestSaveAllPendingEmptyGhostNeverSubmitted(t *testing.T) {
	store := newFakeStore()
	c := newTestController(t, store, nil, Config{})
	c.Initialize(nil)

	c.SaveAllPending(context.Background())
	require.Zero(t, store.callCount())

	// A product with all amounts zero does not qualify either.
	c.SelectProduct(0, 55, "Cemento")
	c.SaveAllPending(context.Background())
	require.Zero(t, store.callCount())
}

func TestSaveAllPendingUpdatesBeforeAddsInDisplayOrder(t *testing.T) {
	store := newFakeStore()
	c := newTestController(t, store, nil, Config{})
	p1, p2 := 1, 2
	c.Initialize([]models.Partida{
		{IDDetalle: 10, IDProducto: &p1, ProductNombre: "Cemento", Unidades: 5, PVU: 2},
		{IDDetalle: 11, IDProducto: &p2, ProductNombre: "Arena", Unidades: 5, PVU: 2},
	})
	c.EditField(0, FieldUnits, "6")
	c.EditField(1, FieldUnits, "7")
	c.SelectProduct(2, 3, "Grava")
	c.EditField(2, FieldUnits, "8")

	c.SaveAllPending(context.Background())

	require.Equal(t, []string{"update:10", "update:11", "create:101"}, store.ops)
}

func TestPartialFailureContainment(t *testing.T) {
	store := newFakeStore()
	store.failUpdate[11] = fmt.Errorf("boom")
	c := newTestController(t, store, nil, Config{})
	p1, p2, p3 := 1, 2, 3
	c.Initialize([]models.Partida{
		{IDDetalle: 10, IDProducto: &p1, ProductNombre: "Cemento", Unidades: 5, PVU: 2},
		{IDDetalle: 11, IDProducto: &p2, ProductNombre: "Arena", Unidades: 5, PVU: 2},
		{IDDetalle: 12, IDProducto: &p3, ProductNombre: "Grava", Unidades: 5, PVU: 2},
	})
	c.EditField(0, FieldUnits, "6")
	c.EditField(1, FieldUnits, "7")
	c.EditField(2, FieldUnits, "8")
	c.SelectProduct(3, 4, "Ladrillo")
	c.EditField(3, FieldUnits, "9")

	require.NotPanics(t, func() { c.SaveAllPending(context.Background()) })

	rows := c.Rows()
	require.Equal(t, StateClean, rows[0].State, "row before the failure stays clean")
	require.Equal(t, StateDirty, rows[1].State, "failed row returns to dirty")
	require.Equal(t, StateDirty, rows[2].State, "rows after the failure return to dirty")
	require.Equal(t, StateDirty, rows[3].State, "add partition returns to dirty")
	require.Zero(t, rows[3].DetailID)
	require.Empty(t, store.creates, "add phase must not run after an update failure")

	// Next cycle retries the remainder.
	delete(store.failUpdate, 11)
	c.SaveAllPending(context.Background())
	rows = c.Rows()
	require.Equal(t, StateClean, rows[1].State)
	require.Equal(t, StateClean, rows[2].State)
	require.Equal(t, StateClean, rows[3].State)
	requireTrailingGhost(t, c)
}

func TestCreateFailureRevertsRemainingAdds(t *testing.T) {
	store := newFakeStore()
	store.failCreate = fmt.Errorf("boom")
	c := newTestController(t, store, nil, Config{})
	c.Initialize(nil)
	c.SelectProduct(0, 55, "Cemento")
	c.EditField(0, FieldUnits, "100")

	require.NotPanics(t, func() { c.SaveAllPending(context.Background()) })

	rows := c.Rows()
	require.Equal(t, StateDirty, rows[0].State)
	require.Zero(t, rows[0].DetailID)
	requireTrailingGhost(t, c)
}

func TestRemoveRowPersistedCallsRemoteFirst(t *testing.T) {
	store := newFakeStore()
	c := newTestController(t, store, nil, Config{})
	p1 := 1
	c.Initialize([]models.Partida{
		{IDDetalle: 10, IDProducto: &p1, ProductNombre: "Cemento", Unidades: 5, PVU: 2},
	})

	err := c.RemoveRow(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, []int{10}, store.deletes)
	require.Len(t, c.Rows(), 1)
	requireTrailingGhost(t, c)
}

func TestRemoveRowDeleteFailureAbortsRemoval(t *testing.T) {
	store := newFakeStore()
	store.failDelete = fmt.Errorf("boom")
	c := newTestController(t, store, nil, Config{})
	p1 := 1
	c.Initialize([]models.Partida{
		{IDDetalle: 10, IDProducto: &p1, ProductNombre: "Cemento", Unidades: 5, PVU: 2},
	})

	err := c.RemoveRow(context.Background(), 0)
	require.Error(t, err)

	rows := c.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, 10, rows[0].DetailID, "row keeps its data after a failed delete")
	require.Equal(t, "Cemento", rows[0].ProductName)
}

func TestRemoveTrailingGhostReappends(t *testing.T) {
	c := newTestController(t, newFakeStore(), nil, Config{})
	c.Initialize(nil)

	err := c.RemoveRow(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, c.Rows(), 1)
	requireTrailingGhost(t, c)
}

func TestGhostInvariantAfterMixedOperations(t *testing.T) {
	store := newFakeStore()
	c := newTestController(t, store, nil, Config{})
	c.Initialize(nil)

	c.SelectProduct(0, 1, "Cemento")
	c.EditField(0, FieldUnits, "10")
	c.SelectProduct(1, 2, "Arena")
	c.EditField(1, FieldSalePrice, "4")
	c.SaveAllPending(context.Background())
	require.NoError(t, c.RemoveRow(context.Background(), 0))
	c.SelectProduct(1, 3, "Grava")
	c.EditField(1, FieldCostPrice, "2")
	c.SaveAllPending(context.Background())

	requireTrailingGhost(t, c)
}

func TestDeviationFlagSetAfterDebounce(t *testing.T) {
	analytics := &fakeAnalytics{respond: func(name string, price float64) (*models.PriceDeviationResult, error) {
		return &models.PriceDeviationResult{IsDeviated: true, DeviationPercentage: 15.3, HistoricalAvg: 11.2}, nil
	}}
	c := newTestController(t, newFakeStore(), analytics, Config{})
	c.Initialize(nil)
	c.SelectProduct(0, 55, "Cemento")
	c.EditField(0, FieldSalePrice, "12.5")

	require.Eventually(t, func() bool {
		v := c.Deviation(0)
		return v != nil && *v
	}, time.Second, 2*time.Millisecond)
}

func TestDeviationClearedSynchronouslyWhenPriceZeroed(t *testing.T) {
	analytics := &fakeAnalytics{respond: func(name string, price float64) (*models.PriceDeviationResult, error) {
		return &models.PriceDeviationResult{IsDeviated: true}, nil
	}}
	c := newTestController(t, newFakeStore(), analytics, Config{})
	c.Initialize(nil)
	c.SelectProduct(0, 55, "Cemento")
	c.EditField(0, FieldSalePrice, "12.5")
	require.Eventually(t, func() bool {
		return c.Deviation(0) != nil
	}, time.Second, 2*time.Millisecond)

	c.EditField(0, FieldSalePrice, "0")

	require.Nil(t, c.Deviation(0), "flag must clear before the debounce fires")
}

func TestStaleDeviationResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	analytics := &fakeAnalytics{respond: func(name string, price float64) (*models.PriceDeviationResult, error) {
		if price == 12.5 {
			<-release
			return &models.PriceDeviationResult{IsDeviated: true}, nil
		}
		return &models.PriceDeviationResult{IsDeviated: false}, nil
	}}
	c := newTestController(t, newFakeStore(), analytics, Config{})
	c.Initialize(nil)
	c.SelectProduct(0, 55, "Cemento")

	// First check hangs until released; a newer price supersedes it.
	c.EditField(0, FieldSalePrice, "12.5")
	time.Sleep(20 * time.Millisecond)
	c.EditField(0, FieldSalePrice, "15")

	require.Eventually(t, func() bool {
		v := c.Deviation(0)
		return v != nil && !*v
	}, time.Second, 2*time.Millisecond)

	close(release)
	time.Sleep(20 * time.Millisecond)
	v := c.Deviation(0)
	require.NotNil(t, v)
	require.False(t, *v, "stale response for the old price must not overwrite the newer verdict")
}

func TestEditDuringSaveKeepsNewerValueDirty(t *testing.T) {
	store := newFakeStore()
	block := make(chan struct{})
	slow := &slowStore{fakeStore: store, block: block}
	c := newTestController(t, slow, nil, Config{})
	p1 := 1
	c.Initialize([]models.Partida{
		{IDDetalle: 10, IDProducto: &p1, ProductNombre: "Cemento", Unidades: 5, PVU: 2},
	})
	c.EditField(0, FieldUnits, "6")

	done := make(chan struct{})
	go func() {
		c.SaveAllPending(context.Background())
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	c.EditField(0, FieldUnits, "7")
	close(block)
	<-done

	rows := c.Rows()
	require.Equal(t, StateDirty, rows[0].State, "edit during save re-marks the row dirty")
	require.Equal(t, 7.0, rows[0].Units)

	c.SaveAllPending(context.Background())
	require.Equal(t, StateClean, c.Rows()[0].State)
}

type slowStore struct {
	*fakeStore
	block       chan struct{}
	blockCreate chan struct{}
}

func (s *slowStore) UpdatePartida(ctx context.Context, tenderID, detailID int, req models.PartidaRequest) (*models.Partida, error) {
	<-s.block
	return s.fakeStore.UpdatePartida(ctx, tenderID, detailID, req)
}

func (s *slowStore) CreatePartida(ctx context.Context, tenderID int, req models.PartidaRequest) (*models.Partida, error) {
	if s.blockCreate != nil {
		<-s.blockCreate
	}
	return s.fakeStore.CreatePartida(ctx, tenderID, req)
}

func TestNoPersistCallbackAfterClose(t *testing.T) {
	store := newFakeStore()
	blockCreate := make(chan struct{})
	slow := &slowStore{fakeStore: store, blockCreate: blockCreate}
	fired := false
	c := newTestController(t, slow, nil, Config{OnPersisted: func() { fired = true }})
	c.Initialize(nil)
	c.SelectProduct(0, 55, "Cemento")
	c.EditField(0, FieldUnits, "6")

	done := make(chan struct{})
	go func() {
		c.SaveAllPending(context.Background())
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	c.Close()
	close(blockCreate)
	<-done

	require.False(t, fired, "batch finishing after Close must not notify")
}

func TestTotalsSkipRowsWithoutProduct(t *testing.T) {
	c := newTestController(t, newFakeStore(), nil, Config{})
	c.Initialize(nil)
	c.SelectProduct(0, 1, "Cemento")
	c.EditField(0, FieldUnits, "10")
	c.EditField(0, FieldSalePrice, "12.5")
	c.EditField(0, FieldCostPrice, "9")
	c.EditField(1, FieldUnits, "99")

	sale, cost := c.Totals()
	require.Equal(t, 125.0, sale)
	require.Equal(t, 90.0, cost)
}

func TestSearchDebouncedAndStaleQueriesDropped(t *testing.T) {
	products := &fakeProducts{results: []models.ProductoSearchResult{{ID: 55, Nombre: "Cemento"}}}
	var mu sync.Mutex
	var got []string
	cfg := Config{OnSearchResults: func(query string, results []models.ProductoSearchResult) {
		mu.Lock()
		got = append(got, query)
		mu.Unlock()
	}}
	cfg.TenderID = 1
	cfg.DebounceDelay = 20 * time.Millisecond
	c := New(cfg, newFakeStore(), &fakeAnalytics{}, products)
	t.Cleanup(c.Close)

	c.Search("ce")
	c.Search("cem")
	c.Search("cemen")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "cemen"
	}, time.Second, 5*time.Millisecond)

	products.mu.Lock()
	require.Equal(t, []string{"cemen"}, products.queries, "superseded keystrokes never reach the API")
	products.mu.Unlock()
}

func TestCloseIsIdempotentAndStopsCallbacks(t *testing.T) {
	c := newTestController(t, newFakeStore(), nil, Config{})
	c.Initialize(nil)
	c.Start()
	c.Close()
	require.NotPanics(t, c.Close)

	// Scheduling after close is a no-op.
	c.Search("cemento")
	c.EditField(0, FieldSalePrice, "10")
}
