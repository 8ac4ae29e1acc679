/*
Package vaccine implements the rabies post-exposure dose scheduler.

PURPOSE:
  A registered patient gets a fixed-offset vaccination schedule generated
  exactly once, from the registration's own business date. Doses then move
  one-way from Pending to Given; the schedule is never regenerated, even if
  the registration date is later edited.

REGIMENS:
  Intradermal:   day offsets {0, 3, 7}
  Intramuscular: day offsets {0, 3, 7, 14, 28}

ORDERING RULE:
  Confirming a dose needs a given date. Dose 0 tolerates any date (same-day
  walk-ins recorded slightly late); every later dose requires
  givenDate >= scheduledDate, else ErrInvalidSequence.

CALENDAR BOUNDARY:
  Registration dates arrive in BS; the schedule itself is plain AD
  calendar-day arithmetic. The BS->AD conversion happens once, on
  registration, and a conversion failure propagates - silently accepting an
  unparseable date would corrupt the schedule.
*/
package vaccine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sajha/inventory-engine/bikram"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidSequence is returned when a dose's given date precedes its
	// scheduled date. Recoverable: the caller corrects the date.
	ErrInvalidSequence = errors.New("dose given before its scheduled date")

	// ErrAlreadyGiven is returned when confirming a dose twice. The
	// Pending -> Given transition is one-way; there is no un-confirm.
	ErrAlreadyGiven = errors.New("dose already given")

	// ErrNoSuchDose is returned for an out-of-range dose index.
	ErrNoSuchDose = errors.New("no such dose")

	// ErrPatientNotFound is returned for an unknown patient ID.
	ErrPatientNotFound = errors.New("patient not found")
)

// =============================================================================
// REGIMEN AND DOSES
// =============================================================================

type Regimen string

const (
	Intradermal   Regimen = "intradermal"
	Intramuscular Regimen = "intramuscular"
)

// Offsets returns the regimen's fixed day offsets.
func (r Regimen) Offsets() ([]int, error) {
	switch r {
	case Intradermal:
		return []int{0, 3, 7}, nil
	case Intramuscular:
		return []int{0, 3, 7, 14, 28}, nil
	default:
		return nil, fmt.Errorf("unknown regimen %q", r)
	}
}

type DoseStatus string

const (
	DosePending DoseStatus = "pending"
	DoseGiven   DoseStatus = "given"
)

type Dose struct {
	OffsetDays  int        `json:"offset_days"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      DoseStatus `json:"status"`
	GivenAt     *time.Time `json:"given_at,omitempty"`
}

// Schedule generates a regimen's doses from the start date: plain
// calendar-day arithmetic, one Pending dose per offset.
func Schedule(start time.Time, regimen Regimen) ([]Dose, error) {
	offsets, err := regimen.Offsets()
	if err != nil {
		return nil, err
	}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	doses := make([]Dose, len(offsets))
	for i, offset := range offsets {
		doses[i] = Dose{
			OffsetDays:  offset,
			ScheduledAt: day.AddDate(0, 0, offset),
			Status:      DosePending,
		}
	}
	return doses, nil
}

// =============================================================================
// PATIENT
// =============================================================================

type Patient struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	RegisteredAt bikram.Date `json:"registered_at"`
	Regimen      Regimen     `json:"regimen"`
	Doses        []Dose      `json:"doses"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Register creates a patient and generates the schedule once, from the
// registration's BS business date. The BS->AD conversion is a validated
// path: failure propagates.
func Register(name string, registeredAt bikram.Date, regimen Regimen) (*Patient, error) {
	startAd, err := bikram.ToAd(registeredAt)
	if err != nil {
		return nil, fmt.Errorf("invalid registration date: %w", err)
	}
	doses, err := Schedule(startAd, regimen)
	if err != nil {
		return nil, err
	}
	return &Patient{
		ID:           uuid.NewString(),
		Name:         name,
		RegisteredAt: registeredAt,
		Regimen:      regimen,
		Doses:        doses,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// ConfirmDose marks dose index as given. One-way: a given dose stays given.
// Dose 0 accepts any date; later doses require givenAt >= scheduledAt.
func (p *Patient) ConfirmDose(index int, givenAt time.Time) error {
	if index < 0 || index >= len(p.Doses) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuchDose, index, len(p.Doses))
	}
	dose := &p.Doses[index]
	if dose.Status == DoseGiven {
		return fmt.Errorf("%w: dose %d", ErrAlreadyGiven, index)
	}

	given := time.Date(givenAt.Year(), givenAt.Month(), givenAt.Day(), 0, 0, 0, 0, time.UTC)
	if dose.OffsetDays != 0 && given.Before(dose.ScheduledAt) {
		return fmt.Errorf("%w: dose %d scheduled %s, given %s",
			ErrInvalidSequence, index,
			dose.ScheduledAt.Format("2006-01-02"), given.Format("2006-01-02"))
	}

	dose.Status = DoseGiven
	dose.GivenAt = &given
	return nil
}

// NextPending returns the first pending dose, or nil when the course is done.
func (p *Patient) NextPending() *Dose {
	for i := range p.Doses {
		if p.Doses[i].Status == DosePending {
			return &p.Doses[i]
		}
	}
	return nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// PatientStore persists patients. Save replaces in place on ID.
type PatientStore interface {
	Save(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
}

// Registry orchestrates registration and dose confirmation over a store.
type Registry struct {
	store PatientStore
}

func NewRegistry(store PatientStore) *Registry {
	return &Registry{store: store}
}

func (r *Registry) Register(ctx context.Context, name string, registeredAt bikram.Date, regimen Regimen) (*Patient, error) {
	p, err := Register(name, registeredAt, regimen)
	if err != nil {
		return nil, err
	}
	if err := r.store.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Confirm validates, applies the dose transition and persists once. On a
// failed save the in-memory change is not committed anywhere.
func (r *Registry) Confirm(ctx context.Context, patientID string, index int, givenAt time.Time) (*Patient, error) {
	p, err := r.store.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := p.ConfirmDose(index, givenAt); err != nil {
		return nil, err
	}
	if err := r.store.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Registry) Get(ctx context.Context, id string) (*Patient, error) {
	return r.store.Get(ctx, id)
}

func (r *Registry) List(ctx context.Context) ([]*Patient, error) {
	return r.store.List(ctx)
}
