/*
handlers.go - HTTP API handlers for the office supply administration core

PURPOSE:
  Exposes the form workflow, possession report, item catalog, dose scheduler
  and BS calendar via REST. Handles HTTP request/response, JSON
  serialization, and delegates every decision to domain logic.

ENDPOINTS:
  Forms:
    GET    /api/forms/{kind}                  List forms (optional ?fiscal_year=)
    POST   /api/forms/{kind}                  Create a form
    GET    /api/forms/{kind}/{id}             Get one form
    DELETE /api/forms/{kind}/{id}             Delete a demand draft
    POST   /api/forms/{kind}/{id}/transitions Apply verify/approve/reject/receive/issue
    POST   /api/forms/{kind}/{id}/seen        Requester acknowledges a rejection

  Reports:
    GET    /api/holdings                      Net non-expendable possession

  Catalog:
    GET    /api/items                         List catalog items
    POST   /api/items                         Register a catalog item

  Patients:
    GET    /api/patients                      List patients
    POST   /api/patients                      Register on a regimen
    GET    /api/patients/{id}                 Get one patient
    POST   /api/patients/{id}/doses/{n}/confirm  Record an administered dose

  Calendar:
    GET    /api/calendar/convert?bs=...|ad=...   BS<->AD conversion
    GET    /api/calendar/today                   Today as a BS date

ERROR HANDLING:
  Domain errors map to HTTP status by category:
  - 400: Validation failures, wrong-state transitions, bad dates
  - 403: Role not permitted for the transition
  - 404: Unknown form or patient
  - 409: Concurrent modification (reload and retry)
  - 500: Everything else

SECURITY NOTE:
  Actors are self-declared in request bodies. There is no authentication
  layer; this service is deployed behind the institution gateway.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/sajha/inventory-engine/bikram"
	"github.com/sajha/inventory-engine/docflow"
	"github.com/sajha/inventory-engine/supplies"
	"github.com/sajha/inventory-engine/vaccine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// CatalogStore is a catalog that also accepts writes. Both the sqlite store
// and supplies.MemoryCatalog satisfy it.
type CatalogStore interface {
	supplies.Catalog
	PutItem(ctx context.Context, item supplies.Item) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Supplies *supplies.Service
	Patients *vaccine.Registry
	Catalog  CatalogStore

	log      logrus.FieldLogger
	validate *validator.Validate
}

// NewHandler creates a handler over the supply service, patient registry
// and item catalog.
func NewHandler(svc *supplies.Service, patients *vaccine.Registry, catalog CatalogStore, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Supplies: svc,
		Patients: patients,
		Catalog:  catalog,
		log:      log,
		validate: validator.New(),
	}
}

var knownKinds = map[string]docflow.Kind{
	"demand":      supplies.KindDemand,
	"transfer":    supplies.KindTransfer,
	"return":      supplies.KindReturn,
	"maintenance": supplies.KindMaintenance,
	"stock_entry": supplies.KindStockEntry,
}

func (h *Handler) kindParam(w http.ResponseWriter, r *http.Request) (docflow.Kind, bool) {
	kind, ok := knownKinds[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown form kind", docflow.ErrUnknownKind)
		return "", false
	}
	return kind, true
}

// decodeAndValidate parses the body into dst and runs its validation tags.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// =============================================================================
// FORM HANDLERS
// =============================================================================

// ListForms returns all forms of a kind, optionally one fiscal year.
func (h *Handler) ListForms(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}

	docs, err := h.Supplies.List(r.Context(), kind, r.URL.Query().Get("fiscal_year"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list forms", err)
		return
	}

	dtos := make([]DocumentDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = toDocumentDTO(doc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateForm registers a new form: number assignment, fiscal year and the
// requester stamp all happen in the engine.
func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}

	var req CreateFormRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := bikram.Parse(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use BS YYYY-MM-DD)", err)
		return
	}

	doc := &docflow.Document{
		Kind:         kind,
		Date:         date,
		HolderName:   req.HolderName,
		SourceOffice: req.SourceOffice,
		TargetOffice: req.TargetOffice,
	}
	for _, l := range req.Lines {
		line, err := l.toDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid line item", err)
			return
		}
		doc.Lines = append(doc.Lines, line)
	}

	created, err := h.Supplies.Create(r.Context(), doc, req.Actor.toDomain())
	if err != nil {
		h.writeDomainError(w, r, "Failed to create form", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"kind":    created.Kind,
		"form_no": created.FormNo,
		"fy":      created.FiscalYear,
	}).Info("form created")
	writeJSON(w, http.StatusCreated, toDocumentDTO(created))
}

// GetForm returns a single form.
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.kindParam(w, r); !ok {
		return
	}

	doc, err := h.Supplies.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get form", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// DeleteForm removes a demand in any state. Other kinds refuse.
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.kindParam(w, r); !ok {
		return
	}

	if err := h.Supplies.DeleteDemand(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, "Failed to delete form", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ApplyTransition runs one lifecycle action against a form.
func (h *Handler) ApplyTransition(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.kindParam(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req TransitionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	actor := req.Actor.toDomain()

	var (
		doc *docflow.Document
		err error
	)
	switch docflow.Action(req.Action) {
	case supplies.ActionVerify:
		if req.Fulfillment == nil {
			writeError(w, http.StatusBadRequest, "Verification requires a fulfillment decision", docflow.ErrValidation)
			return
		}
		doc, err = h.Supplies.Verify(r.Context(), id, actor, docflow.Fulfillment{
			FromStock: req.Fulfillment.FromStock,
			StoreName: req.Fulfillment.StoreName,
			Category:  req.Fulfillment.Category,
		})
	case supplies.ActionApprove:
		doc, err = h.Supplies.Approve(r.Context(), id, actor)
	case supplies.ActionReject:
		doc, err = h.Supplies.Reject(r.Context(), id, actor, req.Reason)
	case supplies.ActionReceive:
		doc, err = h.Supplies.Receive(r.Context(), id, actor)
	case supplies.ActionIssue:
		doc, err = h.Supplies.Issue(r.Context(), id, actor)
	default:
		writeError(w, http.StatusBadRequest, "Unknown action", docflow.ErrValidation)
		return
	}
	if err != nil {
		h.writeDomainError(w, r, "Transition failed", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"form_no": doc.FormNo,
		"action":  req.Action,
		"status":  doc.Status,
	}).Info("transition applied")
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// MarkSeen acknowledges a rejection for the requester.
func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.kindParam(w, r); !ok {
		return
	}

	doc, err := h.Supplies.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to open form", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// =============================================================================
// HOLDINGS AND CATALOG HANDLERS
// =============================================================================

// GetHoldings replays the issuance and return registers into the current
// possession report.
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.Supplies.Holdings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute holdings", err)
		return
	}

	dtos := make([]HoldingDTO, 0, len(holdings))
	for _, hold := range holdings {
		dtos = append(dtos, HoldingDTO{
			ItemName:     hold.ItemName,
			ItemCode:     hold.ItemCode,
			HolderName:   hold.HolderName,
			Quantity:     hold.Quantity.String(),
			Unit:         hold.Unit,
			Rate:         hold.Rate.String(),
			SourceFormNo: hold.SourceFormNo,
		})
	}
	sort.Slice(dtos, func(i, j int) bool {
		if dtos[i].HolderName != dtos[j].HolderName {
			return dtos[i].HolderName < dtos[j].HolderName
		}
		return dtos[i].ItemName < dtos[j].ItemName
	})
	writeJSON(w, http.StatusOK, dtos)
}

// ListItems returns the item catalog.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}
	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateItem registers a catalog record.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	item := supplies.Item{
		Name:           req.Name,
		Code:           req.Code,
		Classification: docflow.Classification(req.Classification),
		Specification:  req.Specification,
		Unit:           req.Unit,
		BatchNo:        req.BatchNo,
	}
	var err error
	if req.Quantity != "" {
		if item.Quantity, err = decimal.NewFromString(req.Quantity); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid quantity", err)
			return
		}
	}
	if req.Rate != "" {
		if item.Rate, err = decimal.NewFromString(req.Rate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rate", err)
			return
		}
	}
	if req.Expiry != "" {
		expiry, err := time.Parse("2006-01-02", req.Expiry)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid expiry (use AD YYYY-MM-DD)", err)
			return
		}
		item.Expiry = &expiry
	}

	if err := h.Catalog.PutItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(item))
}

// =============================================================================
// PATIENT HANDLERS
// =============================================================================

// ListPatients returns all registered patients.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.Patients.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list patients", err)
		return
	}
	dtos := make([]PatientDTO, len(patients))
	for i, p := range patients {
		dtos[i] = toPatientDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RegisterPatient registers a patient and generates the dose schedule.
func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterPatientRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	registeredAt, err := bikram.Parse(req.RegisteredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid registration date (use BS YYYY-MM-DD)", err)
		return
	}

	p, err := h.Patients.Register(r.Context(), req.Name, registeredAt, vaccine.Regimen(req.Regimen))
	if err != nil {
		h.writeDomainError(w, r, "Failed to register patient", err)
		return
	}

	h.log.WithFields(logrus.Fields{"patient": p.ID, "regimen": p.Regimen}).Info("patient registered")
	writeJSON(w, http.StatusCreated, toPatientDTO(p))
}

// GetPatient returns one patient with their schedule.
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.Patients.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get patient", err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientDTO(p))
}

// ConfirmDose records one administered dose.
func (h *Handler) ConfirmDose(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dose index", err)
		return
	}

	var req ConfirmDoseRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	givenAt, err := time.Parse("2006-01-02", req.GivenAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid given_at (use AD YYYY-MM-DD)", err)
		return
	}

	p, err := h.Patients.Confirm(r.Context(), chi.URLParam(r, "id"), index, givenAt)
	if err != nil {
		h.writeDomainError(w, r, "Failed to confirm dose", err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientDTO(p))
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ConvertDate converts between BS and AD. Exactly one of ?bs= or ?ad= is
// expected; BS wins when both are present.
func (h *Handler) ConvertDate(w http.ResponseWriter, r *http.Request) {
	if bsParam := r.URL.Query().Get("bs"); bsParam != "" {
		bs, err := bikram.Parse(bsParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid BS date", err)
			return
		}
		ad, err := bikram.ToAd(bs)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BS date out of range", err)
			return
		}
		writeJSON(w, http.StatusOK, toConvertResponse(bs, ad))
		return
	}

	adParam := r.URL.Query().Get("ad")
	if adParam == "" {
		writeError(w, http.StatusBadRequest, "Provide ?bs= or ?ad=", nil)
		return
	}
	ad, err := time.Parse("2006-01-02", adParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid AD date (use YYYY-MM-DD)", err)
		return
	}
	bs, err := bikram.FromAd(ad)
	if err != nil {
		writeError(w, http.StatusBadRequest, "AD date out of range", err)
		return
	}
	writeJSON(w, http.StatusOK, toConvertResponse(bs, ad))
}

// Today returns the current date as BS.
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	bs := bikram.Today()
	if bs.IsZero() {
		writeError(w, http.StatusInternalServerError, "Current date outside supported BS range", bikram.ErrOutOfRange)
		return
	}
	ad, err := bikram.ToAd(bs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Conversion failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toConvertResponse(bs, ad))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeDomainError maps domain error categories onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case docflow.IsNotFound(err) || errors.Is(err, vaccine.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, docflow.ErrNotActionable):
		writeError(w, http.StatusForbidden, message, err)
	case docflow.IsRetryable(err):
		writeError(w, http.StatusConflict, message, err)
	case docflow.IsClientError(err),
		errors.Is(err, vaccine.ErrInvalidSequence),
		errors.Is(err, vaccine.ErrAlreadyGiven),
		errors.Is(err, vaccine.ErrNoSuchDose),
		errors.Is(err, bikram.ErrInvalidDateFormat),
		errors.Is(err, bikram.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
