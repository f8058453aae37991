package grid

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"backend/models"
)

const (
	// DefaultAutosaveInterval drives the periodic background save.
	DefaultAutosaveInterval = 30 * time.Second
	// DefaultDebounceDelay is the quiet period after the last edit before
	// deviation checks and product searches fire.
	DefaultDebounceDelay = 500 * time.Millisecond
	// DefaultSearchLimit caps autocomplete results.
	DefaultSearchLimit = 30
)

// Config wires a Controller to its tender and callbacks.
type Config struct {
	TenderID         int
	AutosaveInterval time.Duration
	DebounceDelay    time.Duration
	SearchLimit      int

	// OnPersisted is called after a save batch persisted at least one new
	// row, so the owner can refetch authoritative tender totals.
	OnPersisted func()

	// OnSearchResults receives debounced product search results. Responses
	// for queries the user has already typed past are dropped.
	OnSearchResults func(query string, results []models.ProductoSearchResult)
}

// Controller owns the ordered budget row list for one tender. All state is
// guarded by a single mutex; remote calls are made outside the lock with
// snapshot payloads, so the user can keep editing while a batch is in
// flight. A row edited while Saving is re-marked Dirty and picked up by the
// next cycle.
type Controller struct {
	mu        sync.Mutex
	cfg       Config
	store     TenderAPI
	analytics AnalyticsAPI
	products  ProductAPI

	rows      []*Row
	deviation map[int]*bool
	devSeq    map[int]uint64
	saving    bool

	devTimer    *time.Timer
	searchTimer *time.Timer
	searchQuery string

	ticker *time.Ticker
	stop   chan struct{}
	closed bool
}

// New builds a Controller for the given tender. Call Start to enable the
// periodic autosave and Close on teardown.
func New(cfg Config, store TenderAPI, analytics AnalyticsAPI, products ProductAPI) *Controller {
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = DefaultAutosaveInterval
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	c := &Controller{
		cfg:       cfg,
		store:     store,
		analytics: analytics,
		products:  products,
		deviation: make(map[int]*bool),
		devSeq:    make(map[int]uint64),
		stop:      make(chan struct{}),
	}
	c.rows = []*Row{{Lot: DefaultLot, State: StateGhost}}
	return c
}

// Start launches the periodic autosave loop.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.closed || c.ticker != nil {
		c.mu.Unlock()
		return
	}
	c.ticker = time.NewTicker(c.cfg.AutosaveInterval)
	ticker := c.ticker
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				c.SaveAllPending(context.Background())
			case <-c.stop:
				return
			}
		}
	}()
}

// Close cancels the autosave loop and any pending debounce timers. No
// callbacks fire after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.devTimer != nil {
		c.devTimer.Stop()
	}
	if c.searchTimer != nil {
		c.searchTimer.Stop()
	}
	ticker := c.ticker
	c.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}
	close(c.stop)
}

// Initialize replaces the row list with server rows (Clean) plus exactly one
// trailing Ghost row. Any in-flight deviation responses are discarded.
func (c *Controller) Initialize(serverRows []models.Partida) {
	c.mu.Lock()
	c.rows = make([]*Row, 0, len(serverRows)+1)
	for _, sr := range serverRows {
		r := &Row{
			DetailID:    sr.IDDetalle,
			ProductName: sr.ProductNombre,
			Lot:         sr.Lote,
			Units:       sr.Unidades,
			SalePrice:   sr.PVU,
			CostPrice:   sr.PCU,
			MaxPrice:    sr.PMaxU,
			State:       StateClean,
		}
		if sr.IDProducto != nil {
			r.ProductID = *sr.IDProducto
		}
		if r.ProductName == "" {
			r.ProductName = sr.NombreProductoLibre
		}
		if r.Lot == "" {
			r.Lot = DefaultLot
		}
		c.rows = append(c.rows, r)
	}
	c.rows = append(c.rows, &Row{Lot: DefaultLot, State: StateGhost})
	c.deviation = make(map[int]*bool)
	c.devSeq = make(map[int]uint64)
	c.mu.Unlock()

	c.scheduleDeviationCheck()
}

// EditField updates one field of a row from raw user input. Malformed
// numeric input is coerced to 0. The row becomes Dirty unless it is still an
// empty Ghost; a row edited mid-save becomes Dirty again so the newer value
// wins on the next cycle.
func (c *Controller) EditField(i int, f Field, raw string) {
	c.mu.Lock()
	if i < 0 || i >= len(c.rows) {
		c.mu.Unlock()
		return
	}
	r := c.rows[i]
	switch f {
	case FieldLot:
		r.Lot = strings.TrimSpace(raw)
		if r.Lot == "" {
			r.Lot = DefaultLot
		}
	case FieldUnits:
		r.Units = parseAmount(raw)
	case FieldSalePrice:
		r.SalePrice = parseAmount(raw)
	case FieldCostPrice:
		r.CostPrice = parseAmount(raw)
	case FieldMaxPrice:
		r.MaxPrice = parseAmount(raw)
	}
	if !(r.State == StateGhost && r.ProductID == 0) {
		r.State = StateDirty
	}
	// A row that no longer qualifies for a deviation check is cleared
	// synchronously, before the debounce fires.
	if r.ProductName == "" || r.SalePrice <= 0 {
		c.devSeq[i]++
		delete(c.deviation, i)
	}
	c.mu.Unlock()

	c.scheduleDeviationCheck()
}

// SelectProduct sets the product of a row and marks it Dirty. Selecting a
// product in the trailing Ghost row promotes it and appends a fresh Ghost
// with the same lot, so multi-row entry keeps the lot grouping.
func (c *Controller) SelectProduct(i, productID int, productName string) {
	c.mu.Lock()
	if i < 0 || i >= len(c.rows) {
		c.mu.Unlock()
		return
	}
	r := c.rows[i]
	wasTrailingGhost := i == len(c.rows)-1 && r.State == StateGhost
	r.ProductID = productID
	r.ProductName = productName
	r.State = StateDirty
	if wasTrailingGhost {
		c.rows = append(c.rows, &Row{Lot: r.Lot, State: StateGhost})
	}
	if r.ProductName == "" || r.SalePrice <= 0 {
		c.devSeq[i]++
		delete(c.deviation, i)
	}
	c.mu.Unlock()

	c.scheduleDeviationCheck()
}

// RemoveRow deletes a row. Persisted rows are deleted remotely first; a
// failed remote delete aborts the removal and the row keeps its data. If the
// trailing Ghost was removed a fresh one is appended.
func (c *Controller) RemoveRow(ctx context.Context, i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.rows) {
		c.mu.Unlock()
		return fmt.Errorf("row index %d out of range", i)
	}
	r := c.rows[i]
	if r.Persisted() {
		tenderID, detailID := c.cfg.TenderID, r.DetailID
		c.mu.Unlock()
		if err := c.store.DeletePartida(ctx, tenderID, detailID); err != nil {
			return fmt.Errorf("delete partida %d: %w", detailID, err)
		}
		c.mu.Lock()
		i = c.indexOfLocked(r)
		if i < 0 {
			c.mu.Unlock()
			return nil
		}
	}
	c.removeAtLocked(i)
	c.ensureTrailingGhostLocked()
	c.mu.Unlock()
	return nil
}

// SaveAllPending persists every Dirty persisted row (updates, in display
// order) and then every qualifying unpersisted row (creates, in display
// order). Each phase fails fast: the first error reverts the failed row and
// everything after it to Dirty for the next cycle. Errors never escape; they
// are logged and retried on the next autosave tick.
func (c *Controller) SaveAllPending(ctx context.Context) {
	type pending struct {
		row      *Row
		detailID int
		req      models.PartidaRequest
	}

	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return
	}
	var toUpdate, toAdd []pending
	for _, r := range c.rows {
		switch {
		case r.Persisted() && r.State == StateDirty:
			toUpdate = append(toUpdate, pending{row: r, detailID: r.DetailID, req: r.toRequest()})
		case !r.Persisted() && r.qualifiesForAdd():
			toAdd = append(toAdd, pending{row: r, req: r.toRequest()})
		}
	}
	if len(toUpdate) == 0 && len(toAdd) == 0 {
		c.mu.Unlock()
		return
	}
	for _, p := range toUpdate {
		p.row.State = StateSaving
	}
	for _, p := range toAdd {
		p.row.State = StateSaving
	}
	c.saving = true
	tenderID := c.cfg.TenderID
	c.mu.Unlock()

	// revert returns the still-Saving remainder of the batch to Dirty so
	// nothing is silently lost.
	revert := func(remaining ...[]pending) {
		c.mu.Lock()
		for _, group := range remaining {
			for _, p := range group {
				if p.row.State == StateSaving {
					p.row.State = StateDirty
				}
			}
		}
		c.mu.Unlock()
	}

	persistedAny := false
	finish := func() {
		c.mu.Lock()
		c.saving = false
		c.ensureTrailingGhostLocked()
		notify := persistedAny && c.cfg.OnPersisted != nil && !c.closed
		c.mu.Unlock()
		if notify {
			c.cfg.OnPersisted()
		}
	}

	for k, p := range toUpdate {
		if _, err := c.store.UpdatePartida(ctx, tenderID, p.detailID, p.req); err != nil {
			log.Printf("[grid] update partida %d failed: %v", p.detailID, err)
			revert(toUpdate[k:], toAdd)
			finish()
			return
		}
		c.mu.Lock()
		if p.row.State == StateSaving {
			p.row.State = StateClean
		}
		c.mu.Unlock()
	}

	for k, p := range toAdd {
		created, err := c.store.CreatePartida(ctx, tenderID, p.req)
		if err != nil {
			log.Printf("[grid] create partida failed: %v", err)
			revert(toAdd[k:])
			finish()
			return
		}
		c.mu.Lock()
		p.row.DetailID = created.IDDetalle
		if p.row.State == StateSaving {
			p.row.State = StateClean
		}
		c.mu.Unlock()
		persistedAny = true
	}

	finish()
}

// Deviation returns the cached deviation verdict for a row: true/false once
// checked, nil while unknown or not applicable.
func (c *Controller) Deviation(i int) *bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.deviation[i]
	if !ok || v == nil {
		return nil
	}
	out := *v
	return &out
}

// Rows returns a snapshot of the current row list.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Row, len(c.rows))
	for i, r := range c.rows {
		out[i] = *r
	}
	return out
}

// Totals returns the summed sale and cost amounts over rows with a product.
func (c *Controller) Totals() (sale, cost float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.rows {
		if r.ProductID == 0 {
			continue
		}
		sale += r.Units * r.SalePrice
		cost += r.Units * r.CostPrice
	}
	return sale, cost
}

// Search schedules a debounced product autocomplete query. Results for
// superseded queries are discarded.
func (c *Controller) Search(query string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.searchQuery = query
	if c.searchTimer != nil {
		c.searchTimer.Stop()
	}
	c.searchTimer = time.AfterFunc(c.cfg.DebounceDelay, func() {
		c.runSearch(query)
	})
	c.mu.Unlock()
}

func (c *Controller) runSearch(query string) {
	results, err := c.products.SearchProducts(context.Background(), query, c.cfg.SearchLimit)
	if err != nil {
		log.Printf("[grid] product search %q failed: %v", query, err)
		return
	}
	c.mu.Lock()
	wanted := !c.closed && c.searchQuery == query
	cb := c.cfg.OnSearchResults
	c.mu.Unlock()
	if wanted && cb != nil {
		cb(query, results)
	}
}

func (c *Controller) scheduleDeviationCheck() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.devTimer != nil {
		c.devTimer.Stop()
	}
	c.devTimer = time.AfterFunc(c.cfg.DebounceDelay, c.recomputeDeviations)
	c.mu.Unlock()
}

// recomputeDeviations queries the deviation service for every row with a
// product name and a positive sale price. Each check carries a per-row token
// so a stale response never overwrites a newer one.
func (c *Controller) recomputeDeviations() {
	type check struct {
		idx   int
		tok   uint64
		name  string
		price float64
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var checks []check
	for i, r := range c.rows {
		if r.ProductName != "" && r.SalePrice > 0 {
			c.devSeq[i]++
			checks = append(checks, check{idx: i, tok: c.devSeq[i], name: r.ProductName, price: r.SalePrice})
		}
	}
	c.mu.Unlock()

	for _, chk := range checks {
		go func(chk check) {
			res, err := c.analytics.CheckPriceDeviation(context.Background(), chk.name, chk.price)
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.devSeq[chk.idx] != chk.tok {
				return
			}
			if err != nil {
				log.Printf("[grid] deviation check for %q failed: %v", chk.name, err)
				delete(c.deviation, chk.idx)
				return
			}
			v := res.IsDeviated
			c.deviation[chk.idx] = &v
		}(chk)
	}
}

func (c *Controller) indexOfLocked(r *Row) int {
	for i, x := range c.rows {
		if x == r {
			return i
		}
	}
	return -1
}

func (c *Controller) removeAtLocked(i int) {
	c.rows = append(c.rows[:i], c.rows[i+1:]...)

	// Shift deviation flags down and invalidate every token at or past the
	// removed index so in-flight responses for old positions are dropped.
	deviation := make(map[int]*bool, len(c.deviation))
	devSeq := make(map[int]uint64, len(c.devSeq))
	for k, v := range c.deviation {
		if k < i {
			deviation[k] = v
		} else if k > i {
			deviation[k-1] = v
		}
	}
	for k, v := range c.devSeq {
		if k < i {
			devSeq[k] = v
		} else if k > i {
			devSeq[k-1] = v + 1
		}
	}
	c.deviation = deviation
	c.devSeq = devSeq
}

func (c *Controller) ensureTrailingGhostLocked() {
	if n := len(c.rows); n == 0 {
		c.rows = append(c.rows, &Row{Lot: DefaultLot, State: StateGhost})
	} else if c.rows[n-1].State != StateGhost {
		c.rows = append(c.rows, &Row{Lot: c.rows[n-1].Lot, State: StateGhost})
	}
}
