/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: dates travel as
  BS "YYYY-MM-DD" strings, quantities and rates as decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; decodeAndValidate
  in handlers.go runs them before a handler touches domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - docflow/types.go: The domain model these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sajha/inventory-engine/bikram"
	"github.com/sajha/inventory-engine/docflow"
	"github.com/sajha/inventory-engine/supplies"
	"github.com/sajha/inventory-engine/vaccine"
)

// =============================================================================
// FORM REQUEST/RESPONSE TYPES
// =============================================================================

// ActorRequest identifies who performs a creation or transition.
type ActorRequest struct {
	Name        string `json:"name" validate:"required"`
	Designation string `json:"designation"`
	Role        string `json:"role" validate:"required,oneof=storekeeper admin superadmin approval staff"`
}

func (a ActorRequest) toDomain() docflow.Actor {
	return docflow.Actor{Name: a.Name, Designation: a.Designation, Role: docflow.Role(a.Role)}
}

// LineItemRequest is one requested line. Quantity and rate arrive as strings
// so clients never push float rounding into the ledger.
type LineItemRequest struct {
	ItemName       string `json:"item_name" validate:"required"`
	ItemCode       string `json:"item_code"`
	Specification  string `json:"specification"`
	Unit           string `json:"unit"`
	Classification string `json:"classification" validate:"omitempty,oneof=expendable non_expendable"`
	Quantity       string `json:"quantity" validate:"required"`
	Rate           string `json:"rate"`
	Remarks        string `json:"remarks"`
}

func (l LineItemRequest) toDomain() (docflow.LineItem, error) {
	qty, err := decimal.NewFromString(l.Quantity)
	if err != nil {
		return docflow.LineItem{}, &docflow.ValidationError{Field: "quantity", Reason: "not a number"}
	}
	rate := decimal.Zero
	if l.Rate != "" {
		if rate, err = decimal.NewFromString(l.Rate); err != nil {
			return docflow.LineItem{}, &docflow.ValidationError{Field: "rate", Reason: "not a number"}
		}
	}
	return docflow.LineItem{
		ItemName:       l.ItemName,
		ItemCode:       l.ItemCode,
		Specification:  l.Specification,
		Unit:           l.Unit,
		Classification: docflow.Classification(l.Classification),
		Quantity:       qty,
		Rate:           rate,
		Remarks:        l.Remarks,
	}, nil
}

// CreateFormRequest creates a form of the kind named in the URL.
type CreateFormRequest struct {
	Date         string            `json:"date" validate:"required"`
	Lines        []LineItemRequest `json:"lines" validate:"required,min=1,dive"`
	HolderName   string            `json:"holder_name"`
	SourceOffice string            `json:"source_office"`
	TargetOffice string            `json:"target_office"`
	Actor        ActorRequest      `json:"actor" validate:"required"`
}

// TransitionRequest applies one lifecycle action to a stored form.
type TransitionRequest struct {
	Action      string              `json:"action" validate:"required,oneof=verify approve reject receive issue"`
	Actor       ActorRequest        `json:"actor" validate:"required"`
	Reason      string              `json:"reason"`
	Fulfillment *FulfillmentRequest `json:"fulfillment"`
}

// FulfillmentRequest is the storekeeper's verify-time sourcing decision.
type FulfillmentRequest struct {
	FromStock bool   `json:"from_stock"`
	StoreName string `json:"store_name"`
	Category  string `json:"category"`
}

// SignoffDTO is one filled approval slot.
type SignoffDTO struct {
	Name        string `json:"name"`
	Designation string `json:"designation,omitempty"`
	Date        string `json:"date"`
}

// LineItemDTO is one form line in responses.
type LineItemDTO struct {
	ItemName       string `json:"item_name"`
	ItemCode       string `json:"item_code,omitempty"`
	Specification  string `json:"specification,omitempty"`
	Unit           string `json:"unit,omitempty"`
	Classification string `json:"classification,omitempty"`
	Quantity       string `json:"quantity"`
	Rate           string `json:"rate"`
	Remarks        string `json:"remarks,omitempty"`
}

// RejectionDTO reports a recorded rejection.
type RejectionDTO struct {
	Reason            string `json:"reason"`
	By                string `json:"by"`
	Date              string `json:"date"`
	UnseenByRequester bool   `json:"unseen_by_requester"`
}

// FulfillmentDTO mirrors FulfillmentRequest in responses.
type FulfillmentDTO struct {
	FromStock bool   `json:"from_stock"`
	StoreName string `json:"store_name,omitempty"`
	Category  string `json:"category,omitempty"`
}

// DocumentDTO is a full form in API responses.
type DocumentDTO struct {
	ID           string                `json:"id"`
	Kind         string                `json:"kind"`
	FiscalYear   string                `json:"fiscal_year"`
	FormNo       string                `json:"form_no"`
	Date         string                `json:"date"`
	Status       string                `json:"status"`
	Lines        []LineItemDTO         `json:"lines"`
	Slots        map[string]SignoffDTO `json:"slots,omitempty"`
	Rejection    *RejectionDTO         `json:"rejection,omitempty"`
	Fulfillment  *FulfillmentDTO       `json:"fulfillment,omitempty"`
	SourceOffice string                `json:"source_office,omitempty"`
	TargetOffice string                `json:"target_office,omitempty"`
	HolderName   string                `json:"holder_name,omitempty"`
	Version      int                   `json:"version"`
}

func toDocumentDTO(doc *docflow.Document) DocumentDTO {
	dto := DocumentDTO{
		ID:           doc.ID,
		Kind:         string(doc.Kind),
		FiscalYear:   doc.FiscalYear,
		FormNo:       doc.FormNo,
		Date:         doc.Date.String(),
		Status:       string(doc.Status),
		SourceOffice: doc.SourceOffice,
		TargetOffice: doc.TargetOffice,
		HolderName:   doc.HolderName,
		Version:      doc.Version,
	}
	dto.Lines = make([]LineItemDTO, len(doc.Lines))
	for i, line := range doc.Lines {
		dto.Lines[i] = LineItemDTO{
			ItemName:       line.ItemName,
			ItemCode:       line.ItemCode,
			Specification:  line.Specification,
			Unit:           line.Unit,
			Classification: string(line.Classification),
			Quantity:       line.Quantity.String(),
			Rate:           line.Rate.String(),
			Remarks:        line.Remarks,
		}
	}
	if len(doc.Slots) > 0 {
		dto.Slots = make(map[string]SignoffDTO, len(doc.Slots))
		for id, s := range doc.Slots {
			dto.Slots[string(id)] = SignoffDTO{
				Name:        s.Name,
				Designation: s.Designation,
				Date:        s.Date.String(),
			}
		}
	}
	if doc.Rejection != nil {
		dto.Rejection = &RejectionDTO{
			Reason:            doc.Rejection.Reason,
			By:                doc.Rejection.By,
			Date:              doc.Rejection.Date.String(),
			UnseenByRequester: doc.Rejection.UnseenByRequester,
		}
	}
	if doc.Fulfillment != nil {
		dto.Fulfillment = &FulfillmentDTO{
			FromStock: doc.Fulfillment.FromStock,
			StoreName: doc.Fulfillment.StoreName,
			Category:  doc.Fulfillment.Category,
		}
	}
	return dto
}

// =============================================================================
// HOLDINGS AND CATALOG TYPES
// =============================================================================

// HoldingDTO is one net possession row.
type HoldingDTO struct {
	ItemName     string `json:"item_name"`
	ItemCode     string `json:"item_code,omitempty"`
	HolderName   string `json:"holder_name"`
	Quantity     string `json:"quantity"`
	Unit         string `json:"unit,omitempty"`
	Rate         string `json:"rate"`
	SourceFormNo string `json:"source_form_no,omitempty"`
}

// ItemDTO is one catalog record.
type ItemDTO struct {
	Name           string `json:"name"`
	Code           string `json:"code"`
	Classification string `json:"classification"`
	Specification  string `json:"specification,omitempty"`
	Unit           string `json:"unit"`
	Quantity       string `json:"quantity"`
	Rate           string `json:"rate"`
	BatchNo        string `json:"batch_no,omitempty"`
	Expiry         string `json:"expiry,omitempty"`
}

func toItemDTO(item supplies.Item) ItemDTO {
	dto := ItemDTO{
		Name:           item.Name,
		Code:           item.Code,
		Classification: string(item.Classification),
		Specification:  item.Specification,
		Unit:           item.Unit,
		Quantity:       item.Quantity.String(),
		Rate:           item.Rate.String(),
		BatchNo:        item.BatchNo,
	}
	if item.Expiry != nil {
		dto.Expiry = item.Expiry.Format("2006-01-02")
	}
	return dto
}

// CreateItemRequest registers or overwrites a catalog record.
type CreateItemRequest struct {
	Name           string `json:"name" validate:"required"`
	Code           string `json:"code" validate:"required"`
	Classification string `json:"classification" validate:"required,oneof=expendable non_expendable"`
	Specification  string `json:"specification"`
	Unit           string `json:"unit"`
	Quantity       string `json:"quantity"`
	Rate           string `json:"rate"`
	BatchNo        string `json:"batch_no"`
	Expiry         string `json:"expiry"` // AD, YYYY-MM-DD
}

// =============================================================================
// PATIENT TYPES
// =============================================================================

// RegisterPatientRequest registers a patient on a dose regimen. The
// registration date is a BS date; the schedule itself runs on AD time.
type RegisterPatientRequest struct {
	Name         string `json:"name" validate:"required"`
	RegisteredAt string `json:"registered_at" validate:"required"`
	Regimen      string `json:"regimen" validate:"required,oneof=intradermal intramuscular"`
}

// ConfirmDoseRequest records an administered dose.
type ConfirmDoseRequest struct {
	GivenAt string `json:"given_at" validate:"required"` // AD, YYYY-MM-DD
}

// DoseDTO is one schedule entry.
type DoseDTO struct {
	OffsetDays  int    `json:"offset_days"`
	ScheduledAt string `json:"scheduled_at"`
	Status      string `json:"status"`
	GivenAt     string `json:"given_at,omitempty"`
}

// PatientDTO is a patient with their full schedule.
type PatientDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	RegisteredAt string    `json:"registered_at"`
	Regimen      string    `json:"regimen"`
	Doses        []DoseDTO `json:"doses"`
	CreatedAt    string    `json:"created_at"`
}

func toPatientDTO(p *vaccine.Patient) PatientDTO {
	dto := PatientDTO{
		ID:           p.ID,
		Name:         p.Name,
		RegisteredAt: p.RegisteredAt.String(),
		Regimen:      string(p.Regimen),
		Doses:        make([]DoseDTO, len(p.Doses)),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	for i, d := range p.Doses {
		dto.Doses[i] = DoseDTO{
			OffsetDays:  d.OffsetDays,
			ScheduledAt: d.ScheduledAt.Format("2006-01-02"),
			Status:      string(d.Status),
		}
		if d.GivenAt != nil {
			dto.Doses[i].GivenAt = d.GivenAt.Format("2006-01-02")
		}
	}
	return dto
}

// =============================================================================
// CALENDAR TYPES
// =============================================================================

// ConvertResponse pairs a BS date with its AD equivalent.
type ConvertResponse struct {
	Bs         string `json:"bs"`
	Ad         string `json:"ad"`
	Weekday    string `json:"weekday"`
	FiscalYear string `json:"fiscal_year"`
}

func toConvertResponse(bs bikram.Date, ad time.Time) ConvertResponse {
	return ConvertResponse{
		Bs:         bs.String(),
		Ad:         ad.Format("2006-01-02"),
		Weekday:    ad.Weekday().String(),
		FiscalYear: bikram.FiscalYear(bs),
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
