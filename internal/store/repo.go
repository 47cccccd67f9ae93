package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
)

// DefaultListLimit bounds per-debtor fact listings.
const DefaultListLimit = 200

// Repo is the typed view of a Store used by pipeline stages.
type Repo struct {
	st Store
}

// NewRepo wraps st.
func NewRepo(st Store) *Repo {
	return &Repo{st: st}
}

// Store returns the underlying record store.
func (r *Repo) Store() Store { return r.st }

func list[T any](ctx context.Context, st Store, collection string, f Filter, limit int) ([]T, error) {
	raws, err := st.List(ctx, collection, f, limit)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, eris.Wrapf(err, "store: decode %s", collection)
		}
		out = append(out, v)
	}
	return out, nil
}

// first returns the first match or nil when there is none.
func first[T any](ctx context.Context, st Store, collection string, f Filter) (*T, error) {
	items, err := list[T](ctx, st, collection, f, 1)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// --- Debtors ---

// Debtor loads one debtor by id.
func (r *Repo) Debtor(ctx context.Context, id string) (*model.Debtor, error) {
	d, err := first[model.Debtor](ctx, r.st, model.CollectionDebtors, Filter{"id": id})
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, eris.Wrapf(ErrNotFound, "debtor %s", id)
	}
	return d, nil
}

// PendingDebtors returns up to limit debtors awaiting enrichment, pending
// first then partial.
func (r *Repo) PendingDebtors(ctx context.Context, limit int) ([]model.Debtor, error) {
	var out []model.Debtor
	for _, status := range []model.EnrichmentStatus{model.EnrichmentPending, model.EnrichmentPartial} {
		remaining := 0
		if limit > 0 {
			remaining = limit - len(out)
			if remaining <= 0 {
				break
			}
		}
		ds, err := list[model.Debtor](ctx, r.st, model.CollectionDebtors, Filter{"enrichment_status": string(status)}, remaining)
		if err != nil {
			return nil, err
		}
		out = append(out, ds...)
	}
	return out, nil
}

// AllDebtors returns every debtor in insertion order.
func (r *Repo) AllDebtors(ctx context.Context) ([]model.Debtor, error) {
	return list[model.Debtor](ctx, r.st, model.CollectionDebtors, nil, 0)
}

// CreateDebtor inserts d as pending and sets its id.
func (r *Repo) CreateDebtor(ctx context.Context, d *model.Debtor) (string, error) {
	if d.EnrichmentStatus == "" {
		d.EnrichmentStatus = model.EnrichmentPending
	}
	id, err := r.st.Create(ctx, model.CollectionDebtors, d)
	if err != nil {
		return "", err
	}
	d.ID = id
	return id, nil
}

// CreateDebtors bulk-inserts debtors, using the COPY path when available.
func (r *Repo) CreateDebtors(ctx context.Context, ds []model.Debtor) (int, error) {
	for i := range ds {
		if ds[i].EnrichmentStatus == "" {
			ds[i].EnrichmentStatus = model.EnrichmentPending
		}
	}
	if bc, ok := r.st.(BulkCreator); ok {
		records := make([]any, len(ds))
		for i := range ds {
			records[i] = ds[i]
		}
		ids, err := bc.CreateMany(ctx, model.CollectionDebtors, records)
		return len(ids), err
	}
	for i := range ds {
		if _, err := r.CreateDebtor(ctx, &ds[i]); err != nil {
			return i, err
		}
	}
	return len(ds), nil
}

// UpdateDebtor applies a partial update. Empty patches are skipped.
func (r *Repo) UpdateDebtor(ctx context.Context, id string, p *model.DebtorPatch) error {
	if p.IsEmpty() {
		return nil
	}
	return r.st.Update(ctx, model.CollectionDebtors, id, p)
}

// --- Phones ---

// Phones lists the phones linked to a debtor.
func (r *Repo) Phones(ctx context.Context, debtorID string, limit int) ([]model.PhoneFact, error) {
	return list[model.PhoneFact](ctx, r.st, model.CollectionPhones, Filter{"debtor_id": debtorID}, limit)
}

// FindPhone returns the phone with the given E.164 number, or nil.
func (r *Repo) FindPhone(ctx context.Context, debtorID, e164 string) (*model.PhoneFact, error) {
	return first[model.PhoneFact](ctx, r.st, model.CollectionPhones, Filter{"debtor_id": debtorID, "phone_e164": e164})
}

func (r *Repo) CreatePhone(ctx context.Context, p *model.PhoneFact) (string, error) {
	id, err := r.st.Create(ctx, model.CollectionPhones, p)
	if err == nil {
		p.ID = id
	}
	return id, err
}

func (r *Repo) UpdatePhone(ctx context.Context, id string, p *model.PhonePatch) error {
	return r.st.Update(ctx, model.CollectionPhones, id, p)
}

func (r *Repo) DeletePhone(ctx context.Context, id string) error {
	return r.st.Delete(ctx, model.CollectionPhones, id)
}

// --- Emails ---

// Emails lists the emails linked to a debtor.
func (r *Repo) Emails(ctx context.Context, debtorID string, limit int) ([]model.EmailFact, error) {
	return list[model.EmailFact](ctx, r.st, model.CollectionEmails, Filter{"debtor_id": debtorID}, limit)
}

// FindEmail returns the email row for addr, compared lowercased, or nil.
func (r *Repo) FindEmail(ctx context.Context, debtorID, addr string) (*model.EmailFact, error) {
	return first[model.EmailFact](ctx, r.st, model.CollectionEmails, Filter{"debtor_id": debtorID, "email": strings.ToLower(addr)})
}

func (r *Repo) CreateEmail(ctx context.Context, e *model.EmailFact) (string, error) {
	e.Email = strings.ToLower(e.Email)
	id, err := r.st.Create(ctx, model.CollectionEmails, e)
	if err == nil {
		e.ID = id
	}
	return id, err
}

func (r *Repo) UpdateEmail(ctx context.Context, id string, p *model.EmailPatch) error {
	return r.st.Update(ctx, model.CollectionEmails, id, p)
}

func (r *Repo) DeleteEmail(ctx context.Context, id string) error {
	return r.st.Delete(ctx, model.CollectionEmails, id)
}

// --- Addresses ---

func (r *Repo) CreateAddress(ctx context.Context, a *model.Address) (string, error) {
	id, err := r.st.Create(ctx, model.CollectionAddresses, a)
	if err == nil {
		a.ID = id
	}
	return id, err
}

// FindAddress returns the debtor's standardized address with the given
// line1 and zip5, or nil.
func (r *Repo) FindAddress(ctx context.Context, debtorID, line1, zip5 string) (*model.Address, error) {
	return first[model.Address](ctx, r.st, model.CollectionAddresses, Filter{"debtor_id": debtorID, "line1": line1, "zip5": zip5})
}

// Address loads a standardized address by id, or nil.
func (r *Repo) Address(ctx context.Context, id string) (*model.Address, error) {
	return first[model.Address](ctx, r.st, model.CollectionAddresses, Filter{"id": id})
}

// --- Bankruptcy ---

func (r *Repo) BankruptcyCases(ctx context.Context, debtorID string) ([]model.BankruptcyCase, error) {
	return list[model.BankruptcyCase](ctx, r.st, model.CollectionBankruptcyCases, Filter{"debtor_id": debtorID}, DefaultListLimit)
}

func (r *Repo) FindBankruptcyCase(ctx context.Context, debtorID, caseNumber string) (*model.BankruptcyCase, error) {
	return first[model.BankruptcyCase](ctx, r.st, model.CollectionBankruptcyCases, Filter{"debtor_id": debtorID, "case_number": caseNumber})
}

func (r *Repo) CreateBankruptcyCase(ctx context.Context, c *model.BankruptcyCase) (string, error) {
	id, err := r.st.Create(ctx, model.CollectionBankruptcyCases, c)
	if err == nil {
		c.ID = id
	}
	return id, err
}

// --- Properties ---

func (r *Repo) Properties(ctx context.Context, debtorID string) ([]model.Property, error) {
	return list[model.Property](ctx, r.st, model.CollectionProperties, Filter{"debtor_id": debtorID}, DefaultListLimit)
}

// FindProperty returns the property at (line1, zip) for the debtor, or nil.
func (r *Repo) FindProperty(ctx context.Context, debtorID, line1, zip string) (*model.Property, error) {
	return first[model.Property](ctx, r.st, model.CollectionProperties, Filter{"debtor_id": debtorID, "address_line1": line1, "zip": zip})
}

func (r *Repo) CreateProperty(ctx context.Context, p *model.Property) (string, error) {
	id, err := r.st.Create(ctx, model.CollectionProperties, p)
	if err == nil {
		p.ID = id
	}
	return id, err
}

// --- Businesses ---

func (r *Repo) FindBusinessByName(ctx context.Context, name string) (*model.Business, error) {
	return first[model.Business](ctx, r.st, model.CollectionBusinesses, Filter{"name": name})
}

func (r *Repo) CreateBusiness(ctx context.Context, b *model.Business) (string, error) {
	id, err := r.st.Create(ctx, model.CollectionBusinesses, b)
	if err == nil {
		b.ID = id
	}
	return id, err
}

func (r *Repo) FindDebtorBusiness(ctx context.Context, debtorID, businessID string) (*model.DebtorBusiness, error) {
	return first[model.DebtorBusiness](ctx, r.st, model.CollectionDebtorBusinesses, Filter{"debtor_id": debtorID, "business_id": businessID})
}

func (r *Repo) LinkBusiness(ctx context.Context, link *model.DebtorBusiness) (string, error) {
	id, err := r.st.Create(ctx, model.CollectionDebtorBusinesses, link)
	if err == nil {
		link.ID = id
	}
	return id, err
}

// --- Scoring snapshots ---

func (r *Repo) CreateSnapshot(ctx context.Context, s *model.ScoringSnapshot) (string, error) {
	id, err := r.st.Create(ctx, model.CollectionSnapshots, s)
	if err == nil {
		s.ID = id
	}
	return id, err
}

func (r *Repo) Snapshots(ctx context.Context, debtorID string) ([]model.ScoringSnapshot, error) {
	return list[model.ScoringSnapshot](ctx, r.st, model.CollectionSnapshots, Filter{"debtor_id": debtorID}, 0)
}

// --- Runs ---

func (r *Repo) CreateRun(ctx context.Context, run *model.EnrichmentRun) (string, error) {
	id, err := r.st.Create(ctx, model.CollectionRuns, run)
	if err == nil {
		run.ID = id
	}
	return id, err
}

func (r *Repo) UpdateRun(ctx context.Context, id string, p *model.RunPatch) error {
	return r.st.Update(ctx, model.CollectionRuns, id, p)
}

// Runs lists the enrichment runs recorded for a debtor.
func (r *Repo) Runs(ctx context.Context, debtorID string) ([]model.EnrichmentRun, error) {
	return list[model.EnrichmentRun](ctx, r.st, model.CollectionRuns, Filter{"debtor_id": debtorID}, 0)
}
