package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// DocumentService defines the behavior needed by DocumentHandler.
type DocumentService interface {
	CreateDocument(ctx context.Context, input usecase.CreateDocumentInput) (*domain.Document, error)
	EditDocument(ctx context.Context, input usecase.EditDocumentInput) (*domain.Document, error)
	VoidDocument(ctx context.Context, id string, expectedVersion *int64) (*domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, companyID string, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error)
}

// DocumentHandler serves one document kind, mounted at /invoices or /bills.
type DocumentHandler struct {
	documentUC DocumentService
	kind       domain.DocumentKind
}

// NewDocumentHandler creates a DocumentHandler for kind.
func NewDocumentHandler(documentUC DocumentService, kind domain.DocumentKind) *DocumentHandler {
	return &DocumentHandler{documentUC: documentUC, kind: kind}
}

// Create stores a document and posts it.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDocumentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(h.kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+string(h.kind), err.Error())
		return
	}

	doc, err := h.documentUC.CreateDocument(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create "+string(h.kind), err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DocumentFromDomain(doc))
}

// Update replaces a document, reposting its journal entry.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.load(w, r, id); !ok {
		return
	}

	var req dto.EditDocumentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+string(h.kind), err.Error())
		return
	}

	doc, err := h.documentUC.EditDocument(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to update "+string(h.kind), err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// Void reverses a document's posting.
func (h *DocumentHandler) Void(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.load(w, r, id); !ok {
		return
	}

	var req dto.VoidRequest
	if !decodeOptionalRequest(w, r, &req) {
		return
	}

	doc, err := h.documentUC.VoidDocument(r.Context(), id, req.ExpectedVersion)
	if err != nil {
		writeDomainError(w, "failed to void "+string(h.kind), err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// Delete removes a document that was never posted.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.load(w, r, id); !ok {
		return
	}

	if err := h.documentUC.DeleteDocument(r.Context(), id); err != nil {
		writeDomainError(w, "failed to delete "+string(h.kind), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves a document by ID.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc))
}

// List lists a company's documents of the handler's kind.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := companyParam(r)
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "missing company ID", "")
		return
	}
	limit, offset := pagination(r)

	docs, err := h.documentUC.ListDocuments(r.Context(), companyID, h.kind, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list "+string(h.kind)+"s", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(docs, dto.DocumentFromDomain, limit, offset))
}

// load fetches a document and hides documents of the other kind, so an
// invoice id under /bills is not found.
func (h *DocumentHandler) load(w http.ResponseWriter, r *http.Request, id string) (*domain.Document, bool) {
	doc, err := h.documentUC.GetDocument(r.Context(), id)
	if err == nil && doc.Kind != h.kind {
		err = domain.ErrDocumentNotFound
	}
	if err != nil {
		writeDomainError(w, "failed to get "+string(h.kind), err)
		return nil, false
	}
	return doc, true
}
