package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

// productLoader resolves products against current catalog state.
type productLoader interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

// feeSource supplies current fee definitions.
type feeSource interface {
	Get(ctx context.Context, id uint) (*models.Fee, error)
	ListDefaults(ctx context.Context) ([]models.Fee, error)
}

// Item is one cart line: a product snapshot plus quantity. The snapshot
// freezes prices at add time; stock checks always re-read the catalog.
type Item struct {
	Product models.Product
	Qty     int
}

// FeeLine is one computed fee on the totals breakdown.
type FeeLine struct {
	FeeID  uint          `json:"feeId"`
	Name   string        `json:"name"`
	Type   enums.FeeType `json:"type"`
	Value  float64       `json:"value"`
	IsTax  bool          `json:"isTax"`
	Amount int64         `json:"amount"`
}

// Totals is the full price breakdown for the current cart.
type Totals struct {
	Subtotal int64     `json:"subtotal"`
	Discount int64     `json:"discount"`
	FeeTotal int64     `json:"feeTotal"`
	Total    int64     `json:"total"`
	Fees     []FeeLine `json:"fees"`
}

// Session is one in-progress sale. All mutations hold the session lock, so
// two cashier actions racing on the same register serialize here and the
// stock check always sees the other one's outcome.
type Session struct {
	mu sync.Mutex

	products     productLoader
	feeDefs      feeSource
	items        []Item
	fees         []models.Fee
	feesAttached bool
}

// NewSession opens an empty cart. Default fees attach on first use.
func NewSession(products productLoader, feeDefs feeSource) *Session {
	return &Session{products: products, feeDefs: feeDefs}
}

// AddItem puts qty units of a product into the cart. The product is re-read
// from the catalog so the check runs against current stock, counting what the
// cart already holds.
func (s *Session) AddItem(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.Stock <= 0 {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "product is out of stock").
			WithDetails(map[string]any{"productId": productID})
	}

	held := 0
	idx := -1
	for i, item := range s.items {
		if item.Product.ID == productID {
			held = item.Qty
			idx = i
			break
		}
	}
	if held+qty > product.Stock {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").
			WithDetails(map[string]any{"productId": productID, "stock": product.Stock, "requested": held + qty})
	}

	if err := s.ensureDefaultFees(ctx); err != nil {
		return err
	}

	if idx >= 0 {
		s.items[idx].Product = *product
		s.items[idx].Qty += qty
	} else {
		s.items = append(s.items, Item{Product: *product, Qty: qty})
	}
	return nil
}

// ChangeQuantity adjusts a line by a signed delta. A result at or below zero
// removes the line.
func (s *Session) ChangeQuantity(ctx context.Context, productID uint, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, item := range s.items {
		if item.Product.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}

	qty := s.items[idx].Qty + delta
	if qty <= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		return nil
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if qty > product.Stock {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").
			WithDetails(map[string]any{"productId": productID, "stock": product.Stock, "requested": qty})
	}

	s.items[idx].Product = *product
	s.items[idx].Qty = qty
	return nil
}

// RemoveItem drops a line from the cart.
func (s *Session) RemoveItem(productID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.Product.ID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Snapshot is a consistent view of the cart taken under one lock: the lines,
// the applied fees, and the totals computed from exactly those values.
type Snapshot struct {
	Items  []Item
	Fees   []models.Fee
	Totals Totals
}

// Snapshot captures lines, fees and totals atomically. A sale committed from
// a snapshot settles against CompleteSale so lines added in the meantime are
// not swept away with it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, len(s.items))
	copy(items, s.items)
	fees := make([]models.Fee, len(s.fees))
	copy(fees, s.fees)
	return Snapshot{Items: items, Fees: fees, Totals: computeTotals(items, fees)}
}

// CompleteSale removes exactly the snapshotted quantities, keeping any line
// the cashier added while payment was in flight. Fees reset to the current
// default set; if that read fails they re-attach lazily on the next AddItem.
func (s *Session) CompleteSale(ctx context.Context, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sold := range snap.Items {
		for i := range s.items {
			if s.items[i].Product.ID != sold.Product.ID {
				continue
			}
			s.items[i].Qty -= sold.Qty
			if s.items[i].Qty <= 0 {
				s.items = append(s.items[:i], s.items[i+1:]...)
			}
			break
		}
	}
	_ = s.resetFeesLocked(ctx)
}

// Clear empties the cart and resets fees to the current default set.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return s.resetFeesLocked(ctx)
}

// IsEmpty reports whether the cart has no lines.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Items returns a copy of the cart lines.
func (s *Session) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Fees returns a copy of the applied fee snapshots.
func (s *Session) Fees() []models.Fee {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Fee, len(s.fees))
	copy(out, s.fees)
	return out
}

// ApplyFee attaches a fee to this sale only.
func (s *Session) ApplyFee(ctx context.Context, feeID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, applied := range s.fees {
		if applied.ID == feeID {
			return nil
		}
	}
	fee, err := s.feeDefs.Get(ctx, feeID)
	if err != nil {
		return err
	}
	s.fees = append(s.fees, *fee)
	s.sortFees()
	return nil
}

// RemoveFee detaches a fee from this sale.
func (s *Session) RemoveFee(feeID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, applied := range s.fees {
		if applied.ID == feeID {
			s.fees = append(s.fees[:i], s.fees[i+1:]...)
			return
		}
	}
}

// ReconcileFees refreshes applied fees against current definitions: edited
// fees pick up new values, deleted fees drop off, and newly defaulted fees
// attach. Manual one-off fees survive as long as their definition exists.
func (s *Session) ReconcileFees(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.fees[:0]
	for _, applied := range s.fees {
		current, err := s.feeDefs.Get(ctx, applied.ID)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			return err
		}
		kept = append(kept, *current)
	}
	s.fees = kept

	defaults, err := s.feeDefs.ListDefaults(ctx)
	if err != nil {
		return err
	}
	for _, def := range defaults {
		present := false
		for _, applied := range s.fees {
			if applied.ID == def.ID {
				present = true
				break
			}
		}
		if !present {
			s.fees = append(s.fees, def)
		}
	}
	s.sortFees()
	s.feesAttached = true
	return nil
}

// Totals computes the price breakdown. Percentage fees apply to the
// discounted subtotal; the discount line is informational and already folded
// into the subtotal.
func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeTotals(s.items, s.fees)
}

func computeTotals(items []Item, fees []models.Fee) Totals {
	var subtotal, discount int64
	for _, item := range items {
		unit := item.Product.EffectivePrice()
		subtotal += unit * int64(item.Qty)
		discount += (item.Product.SellPrice - unit) * int64(item.Qty)
	}

	totals := Totals{Subtotal: subtotal, Discount: discount}
	subtotalDec := decimal.NewFromInt(subtotal)
	for _, fee := range fees {
		var amount int64
		switch fee.Type {
		case enums.FeeTypePercentage:
			amount = subtotalDec.
				Mul(decimal.NewFromFloat(fee.Value)).
				Div(decimal.NewFromInt(100)).
				Round(0).
				IntPart()
		case enums.FeeTypeFixed:
			amount = decimal.NewFromFloat(fee.Value).Round(0).IntPart()
		}
		totals.Fees = append(totals.Fees, FeeLine{
			FeeID:  fee.ID,
			Name:   fee.Name,
			Type:   fee.Type,
			Value:  fee.Value,
			IsTax:  fee.IsTax,
			Amount: amount,
		})
		totals.FeeTotal += amount
	}
	totals.Total = subtotal + totals.FeeTotal
	return totals
}

func (s *Session) ensureDefaultFees(ctx context.Context) error {
	if s.feesAttached {
		return nil
	}
	defaults, err := s.feeDefs.ListDefaults(ctx)
	if err != nil {
		return err
	}
	s.fees = append(s.fees, defaults...)
	s.sortFees()
	s.feesAttached = true
	return nil
}

// resetFeesLocked replaces applied fees with the current defaults. Callers
// hold the session lock. On a failed read the lazy attach path takes over.
func (s *Session) resetFeesLocked(ctx context.Context) error {
	s.fees = nil
	s.feesAttached = false
	defaults, err := s.feeDefs.ListDefaults(ctx)
	if err != nil {
		return err
	}
	s.fees = append(s.fees, defaults...)
	s.sortFees()
	s.feesAttached = true
	return nil
}

func (s *Session) sortFees() {
	sort.SliceStable(s.fees, func(i, j int) bool { return s.fees[i].ID < s.fees[j].ID })
}
