package memory

import (
	"context"
	"sort"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// DocumentRepository implements usecase.DocumentRepository.
type DocumentRepository struct {
	store *Store
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(store *Store) *DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Create(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	return r.store.write(func(d *state) error {
		d.documents[doc.ID] = cloneDocument(doc)
		return nil
	})
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var out *domain.Document
	r.store.read(func(d *state) {
		if doc, ok := d.documents[id]; ok {
			out = cloneDocument(doc)
		}
	})
	if out == nil {
		return nil, domain.ErrDocumentNotFound
	}
	return out, nil
}

// GetByIDsForUpdate returns the documents that exist, in id order.
func (r *DocumentRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Document, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	out := make([]*domain.Document, 0, len(sorted))
	r.store.read(func(d *state) {
		for _, id := range sorted {
			if doc, ok := d.documents[id]; ok {
				out = append(out, cloneDocument(doc))
			}
		}
	})
	return out, nil
}

func (r *DocumentRepository) Update(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	return r.store.write(func(d *state) error {
		if _, ok := d.documents[doc.ID]; !ok {
			return domain.ErrDocumentNotFound
		}
		d.documents[doc.ID] = cloneDocument(doc)
		return nil
	})
}

// ListByCompany lists a company's documents of one kind, newest first.
func (r *DocumentRepository) ListByCompany(ctx context.Context, companyID string, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error) {
	var all []*domain.Document
	r.store.read(func(d *state) {
		for _, doc := range d.documents {
			if doc.CompanyID == companyID && doc.Kind == kind {
				all = append(all, cloneDocument(doc))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].IssueDate.Equal(all[j].IssueDate) {
			return all[i].IssueDate.After(all[j].IssueDate)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, limit, offset), nil
}
