package reporting

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/mcclellann/hoaLedger/pkg/store"
	"golang.org/x/sync/errgroup"
)

// Dataset is the in-memory snapshot every report is computed from.
type Dataset struct {
	Units    []models.Unit
	Invoices []models.Invoice
	Payments []models.Payment
}

// Loader fetches report inputs from storage.
type Loader struct {
	storage store.Storage
}

func NewLoader(s store.Storage) *Loader {
	return &Loader{storage: s}
}

// Load reads units, live invoices and payments concurrently. The first error
// cancels the remaining reads.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	var ds Dataset
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		units, err := l.storage.ListUnits(ctx)
		if err != nil {
			return fmt.Errorf("failed to list units: %w", err)
		}
		ds.Units = units
		return nil
	})
	group.Go(func() error {
		invoices, err := l.storage.ListInvoices(ctx, store.InvoiceFilter{})
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		ds.Invoices = invoices
		return nil
	})
	group.Go(func() error {
		payments, err := l.storage.ListPayments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list payments: %w", err)
		}
		ds.Payments = payments
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// LivePayments returns the payments recorded against invoices in the dataset.
// Payments on soft-deleted invoices are dropped.
func (ds *Dataset) LivePayments() []models.Payment {
	live := make(map[uuid.UUID]struct{}, len(ds.Invoices))
	for i := range ds.Invoices {
		if !ds.Invoices[i].IsDeleted() {
			live[ds.Invoices[i].ID] = struct{}{}
		}
	}
	out := make([]models.Payment, 0, len(ds.Payments))
	for _, p := range ds.Payments {
		if _, ok := live[p.InvoiceID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CollectionsByMethod totals live payments per month and method.
func (ds *Dataset) CollectionsByMethod() []MonthlyCollections {
	return CollectionsByMethod(ds.LivePayments())
}

// Collections builds the collection report over the whole dataset.
func (ds *Dataset) Collections() CollectionReport {
	units, payments := CollectionInputs(ds.Units, ds.Invoices, ds.Payments)
	return CalculateCollectionReport(units, payments)
}
