package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	bookingDomain "github.com/Kilat-Travel/service-booking/internal/domain/booking"
	"github.com/Kilat-Travel/service-booking/internal/domain/pricing"
	"github.com/Kilat-Travel/service-booking/internal/domain/serviceline"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/Kilat-Travel/service-booking/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PromoValidator answers promo code lookups. *PromoService implements it.
type PromoValidator interface {
	ValidateCode(ctx context.Context, code string, subtotal *decimal.Decimal) (wizard.PromoResult, error)
	Redeem(ctx context.Context, code string) error
}

// BookingCreator persists submissions. *BookingService implements it.
type BookingCreator interface {
	CreateBooking(ctx context.Context, p bookingDomain.Payload) (*BookingDTO, error)
}

// ClientLookup resolves directory clients. *ClientService implements it.
type ClientLookup interface {
	ClientSnapshot(ctx context.Context, clientID uuid.UUID) (*wizard.Client, error)
}

// SelectClientRequest picks a directory client by id or attaches one inline.
type SelectClientRequest struct {
	ClientID *uuid.UUID     `json:"clientId"`
	Client   *wizard.Client `json:"client"`
}

// SubmitRequest carries the target status and the fields the wizard does not collect.
type SubmitRequest struct {
	Status               string     `json:"status" binding:"required,oneof=draft quotation confirmed"`
	TermsAccepted        bool       `json:"termsAccepted"`
	Priority             string     `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	BookingSource        string     `json:"bookingSource" binding:"omitempty,oneof=direct website phone email walk_in referral agent social_media"`
	CancellationPolicyID *uuid.UUID `json:"cancellationPolicyId"`
	CampaignID           *uuid.UUID `json:"campaignId"`
	Notes                string     `json:"notes" binding:"max=2000"`
	InternalNotes        string     `json:"internalNotes" binding:"max=2000"`
	DepositDueDate       *time.Time `json:"depositDueDate"`
	BalanceDueDate       *time.Time `json:"balanceDueDate"`
}

// StepResultDTO is the outcome of a step validation.
type StepResultDTO struct {
	Step     int                 `json:"step"`
	Name     string              `json:"name,omitempty"`
	Valid    bool                `json:"valid"`
	Issues   []domain.FieldIssue `json:"issues"`
	Warnings []string            `json:"warnings"`
}

// DraftDTO is a wizard draft with its derived price.
type DraftDTO struct {
	wizard.State
	Breakdown     pricing.Breakdown `json:"breakdown"`
	Validation    *StepResultDTO    `json:"validation,omitempty"`
	LastSaveError string            `json:"lastSaveError,omitempty"`
}

type draft struct {
	mu     sync.Mutex
	store  *wizard.Store
	closed bool
}

// WizardService owns the in-progress booking drafts. Each draft is serialized by its own lock;
// drafts evicted from memory are restored from their recovery snapshot.
type WizardService struct {
	snapshots SnapshotStore
	autosaver *Autosaver
	promos    PromoValidator
	bookings  BookingCreator
	clients   ClientLookup
	pricing   *PricingService
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	drafts map[uuid.UUID]*draft
	loads  singleflight.Group
}

// NewWizardService creates a new WizardService.
func NewWizardService(
	snapshots SnapshotStore,
	autosaver *Autosaver,
	promos PromoValidator,
	bookings BookingCreator,
	clients ClientLookup,
	pricingService *PricingService,
	logger *zap.Logger,
) *WizardService {
	return &WizardService{
		snapshots: snapshots,
		autosaver: autosaver,
		promos:    promos,
		bookings:  bookings,
		clients:   clients,
		pricing:   pricingService,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		drafts:    make(map[uuid.UUID]*draft),
	}
}

// CreateDraft starts an empty wizard on the client step.
func (s *WizardService) CreateDraft(ctx context.Context) (*DraftDTO, error) {
	id := uuid.New()
	d := &draft{store: wizard.NewStore(id).WithClock(s.now)}

	s.mu.Lock()
	s.drafts[id] = d
	s.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	s.scheduleAutosave(d)

	s.logger.Info("draft created", zap.String("draft_id", id.String()))
	return s.view(d, nil), nil
}

// GetDraft returns the current state of a draft.
func (s *WizardService) GetDraft(ctx context.Context, draftID uuid.UUID) (*DraftDTO, error) {
	return s.read(ctx, draftID, func(d *draft) (*DraftDTO, error) {
		return s.view(d, nil), nil
	})
}

// SelectClient attaches a client from the directory or an inline one.
func (s *WizardService) SelectClient(ctx context.Context, draftID uuid.UUID, req SelectClientRequest) (*DraftDTO, error) {
	c := req.Client
	if req.ClientID != nil {
		found, err := s.clients.ClientSnapshot(ctx, *req.ClientID)
		if err != nil {
			return nil, err
		}
		c = found
	}
	if c == nil {
		return nil, domain.NewValidationError("clientId or client is required")
	}
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.SetClient(c)
	})
}

// SetTripDetails replaces the trip details.
func (s *WizardService) SetTripDetails(ctx context.Context, draftID uuid.UUID, t wizard.TripDetails) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.SetTripDetails(t)
	})
}

// SetChildCount changes the number of children and resizes their ages.
func (s *WizardService) SetChildCount(ctx context.Context, draftID uuid.UUID, n int) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.SetChildCount(n)
	})
}

// SetPassengers replaces the passenger list.
func (s *WizardService) SetPassengers(ctx context.Context, draftID uuid.UUID, ps []wizard.Passenger) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		st.SetPassengers(ps)
		return nil
	})
}

// SetLeadPassenger makes passenger i the only lead.
func (s *WizardService) SetLeadPassenger(ctx context.Context, draftID uuid.UUID, i int) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.SetLeadPassenger(i)
	})
}

// AddService appends a fully specified line.
func (s *WizardService) AddService(ctx context.Context, draftID uuid.UUID, l serviceline.Line) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.AddService(l)
	})
}

// RemoveService removes the line at index i.
func (s *WizardService) RemoveService(ctx context.Context, draftID uuid.UUID, i int) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.RemoveService(i)
	})
}

// SetPricingInputs replaces markup, commission, tax, discount and deposit. The applied promo is kept.
func (s *WizardService) SetPricingInputs(ctx context.Context, draftID uuid.UUID, p pricing.Params) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.SetPricingInputs(p)
	})
}

// SetPaymentSchedule sets the deposit and balance due dates.
func (s *WizardService) SetPaymentSchedule(ctx context.Context, draftID uuid.UUID, ps wizard.PaymentSchedule) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.SetPaymentSchedule(ps)
	})
}

// ApplyPromoCode starts a lookup and applies its result unless a newer code was entered meanwhile.
// An empty code removes the promo.
func (s *WizardService) ApplyPromoCode(ctx context.Context, draftID uuid.UUID, code string) (*DraftDTO, error) {
	d, err := s.draft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if err := s.writable(d, draftID); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	seq := d.store.BeginPromoLookup(code)
	st := d.store.State()
	s.scheduleAutosave(d)
	d.mu.Unlock()

	if st.Promo.Status == wizard.PromoChecking {
		subtotal := st.Breakdown().Subtotal
		res, err := s.promos.ValidateCode(ctx, st.Promo.Code, &subtotal)
		if err != nil {
			s.logger.Warn("promo lookup failed", zap.String("draft_id", draftID.String()), zap.Error(err))
			res = wizard.PromoResult{Message: "promo code could not be checked"}
		}

		d.mu.Lock()
		if !d.store.ApplyPromoResult(seq, res) {
			s.logger.Debug("stale promo result dropped",
				zap.String("draft_id", draftID.String()),
				zap.Uint64("seq", seq),
			)
		}
		s.scheduleAutosave(d)
		d.mu.Unlock()
	}

	return s.GetDraft(ctx, draftID)
}

// NextStep validates the current step and advances on success.
func (s *WizardService) NextStep(ctx context.Context, draftID uuid.UUID) (*DraftDTO, error) {
	var result wizard.Result
	dto, err := s.mutate(ctx, draftID, func(st *wizard.Store) error {
		r, err := st.NextStep()
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	dto.Validation = toStepResultDTO(result)
	return dto, nil
}

// PreviousStep moves back one step.
func (s *WizardService) PreviousStep(ctx context.Context, draftID uuid.UUID) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		st.PreviousStep()
		return nil
	})
}

// GoToStep jumps to a step whose predecessors are all complete.
func (s *WizardService) GoToStep(ctx context.Context, draftID uuid.UUID, step wizard.Step) (*DraftDTO, error) {
	return s.mutate(ctx, draftID, func(st *wizard.Store) error {
		return st.GoToStep(step)
	})
}

// ValidateStep runs a step validator without changing the draft. Step 0 means the current step.
func (s *WizardService) ValidateStep(ctx context.Context, draftID uuid.UUID, step wizard.Step) (*StepResultDTO, error) {
	var out *StepResultDTO
	_, err := s.read(ctx, draftID, func(d *draft) (*DraftDTO, error) {
		if step == 0 {
			step = d.store.CurrentStep()
		}
		if !step.IsValid() {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid step: %d", step))
		}
		out = toStepResultDTO(wizard.ValidateStep(d.store.State(), step))
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Pricing returns the current breakdown of a draft.
func (s *WizardService) Pricing(ctx context.Context, draftID uuid.UUID) (*pricing.Breakdown, error) {
	dto, err := s.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return &dto.Breakdown, nil
}

// Submit assembles the draft into a booking payload and creates the booking. On failure the draft is
// left as it was so the submission can be retried; on success the draft is reset and its snapshot removed.
func (s *WizardService) Submit(ctx context.Context, draftID uuid.UUID, req SubmitRequest) (*BookingDTO, error) {
	d, err := s.draft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, domain.NewNotFoundError("Draft", draftID.String())
	}
	if err := d.store.BeginSubmit(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	st := d.store.State()
	d.mu.Unlock()

	log := logger.WithDraft(s.logger, draftID.String())
	fail := func(err error) (*BookingDTO, error) {
		d.mu.Lock()
		d.store.EndSubmit()
		d.mu.Unlock()
		return nil, err
	}

	target := wizard.TargetStatus(req.Status)
	b := s.pricing.compute(st.Services, st.Pricing)
	check := wizard.ValidateSubmission(st, wizard.SubmissionCheck{
		Target:        target,
		TermsAccepted: req.TermsAccepted,
		TotalAmount:   b.TotalAmount,
	})
	if !check.Valid() {
		return fail(check.Err())
	}
	if !b.SellingDivergence.IsZero() && len(st.Services) > 0 {
		log.Warn("submitting with line selling prices that differ from the markup total",
			zap.String("divergence", b.SellingDivergence.StringFixed(2)),
		)
	}

	payload, err := bookingDomain.Assemble(st, b, bookingDomain.Extras{
		BookingSource:        wizard.BookingSource(req.BookingSource),
		Priority:             bookingDomain.Priority(req.Priority),
		CancellationPolicyID: req.CancellationPolicyID,
		CampaignID:           req.CampaignID,
		Notes:                req.Notes,
		InternalNotes:        req.InternalNotes,
		DepositDueDate:       req.DepositDueDate,
		BalanceDueDate:       req.BalanceDueDate,
		TermsAccepted:        req.TermsAccepted,
		SubmittedAt:          s.now(),
	}, target)
	if err != nil {
		return fail(err)
	}

	created, err := s.bookings.CreateBooking(ctx, payload)
	if err != nil {
		log.Warn("draft submission failed",
			zap.String("status", req.Status),
			zap.Error(err),
		)
		return fail(err)
	}

	if st.Pricing.Promo != nil && target != wizard.TargetDraft {
		if err := s.promos.Redeem(ctx, st.Pricing.Promo.Code); err != nil {
			log.Warn("failed to redeem promo code",
				zap.String("code", st.Pricing.Promo.Code),
				zap.String("booking_id", created.ID.String()),
				zap.Error(err),
			)
		}
	}

	d.mu.Lock()
	d.store.Reset()
	d.mu.Unlock()
	if err := s.autosaver.Discard(draftID, func() error { return s.snapshots.Delete(ctx, draftID) }); err != nil {
		log.Warn("failed to delete draft snapshot", zap.Error(err))
	}

	log.Info("draft submitted",
		zap.String("booking_id", created.ID.String()),
		zap.String("booking_number", created.BookingNumber),
	)
	return created, nil
}

// CancelDraft discards a draft and its snapshot.
func (s *WizardService) CancelDraft(ctx context.Context, draftID uuid.UUID) error {
	d, err := s.draft(ctx, draftID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	if err := s.writable(d, draftID); err != nil {
		d.mu.Unlock()
		return err
	}
	d.closed = true
	d.mu.Unlock()

	s.mu.Lock()
	delete(s.drafts, draftID)
	s.mu.Unlock()

	if err := s.autosaver.Discard(draftID, func() error { return s.snapshots.Delete(ctx, draftID) }); err != nil {
		return err
	}
	s.logger.Info("draft cancelled", zap.String("draft_id", draftID.String()))
	return nil
}

// FlushDraft saves a draft's snapshot immediately.
func (s *WizardService) FlushDraft(ctx context.Context, draftID uuid.UUID) error {
	d, err := s.draft(ctx, draftID)
	if err != nil {
		return err
	}
	return s.autosaver.Flush(ctx, draftID, s.snapshotFunc(d))
}

// FlushAll saves every draft that still has a pending autosave. Used on shutdown.
func (s *WizardService) FlushAll(ctx context.Context) {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.drafts))
	for id := range s.drafts {
		if s.autosaver.Pending(id) {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.FlushDraft(ctx, id); err != nil {
			s.logger.Warn("failed to flush draft", zap.String("draft_id", id.String()), zap.Error(err))
		}
	}
}

// --- Helpers ---

// draft returns the in-memory draft, restoring it from its snapshot when needed.
func (s *WizardService) draft(ctx context.Context, draftID uuid.UUID) (*draft, error) {
	s.mu.Lock()
	d, ok := s.drafts[draftID]
	s.mu.Unlock()
	if ok {
		return d, nil
	}

	v, err, _ := s.loads.Do(draftID.String(), func() (interface{}, error) {
		data, err := s.snapshots.Load(ctx, draftID)
		if err != nil {
			return nil, err
		}
		st, err := wizard.Restore(data)
		if err != nil || st.ID() != draftID {
			s.logger.Warn("discarding unreadable draft snapshot",
				zap.String("draft_id", draftID.String()),
				zap.Error(err),
			)
			return nil, domain.NewNotFoundError("Draft", draftID.String())
		}
		st.WithClock(s.now)

		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.drafts[draftID]; ok {
			return existing, nil
		}
		restored := &draft{store: st}
		s.drafts[draftID] = restored
		s.logger.Info("draft restored from snapshot", zap.String("draft_id", draftID.String()))
		return restored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*draft), nil
}

func (s *WizardService) mutate(ctx context.Context, draftID uuid.UUID, fn func(st *wizard.Store) error) (*DraftDTO, error) {
	d, err := s.draft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := s.writable(d, draftID); err != nil {
		return nil, err
	}
	if err := fn(d.store); err != nil {
		return nil, err
	}
	s.scheduleAutosave(d)
	return s.view(d, nil), nil
}

func (s *WizardService) read(ctx context.Context, draftID uuid.UUID, fn func(d *draft) (*DraftDTO, error)) (*DraftDTO, error) {
	d, err := s.draft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, domain.NewNotFoundError("Draft", draftID.String())
	}
	return fn(d)
}

// writable must be called with d.mu held.
func (s *WizardService) writable(d *draft, draftID uuid.UUID) error {
	if d.closed {
		return domain.NewNotFoundError("Draft", draftID.String())
	}
	if d.store.IsSubmitting() {
		return domain.NewConflictError("draft is being submitted")
	}
	return nil
}

// scheduleAutosave must be called with d.mu held. Drafts on the review step are not autosaved.
func (s *WizardService) scheduleAutosave(d *draft) {
	if d.store.CurrentStep() >= wizard.StepReview {
		return
	}
	s.autosaver.Schedule(d.store.ID(), s.snapshotFunc(d))
}

func (s *WizardService) snapshotFunc(d *draft) SnapshotFunc {
	return func() ([]byte, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed {
			return nil, errDraftClosed
		}
		return d.store.Snapshot()
	}
}

// view must be called with d.mu held.
func (s *WizardService) view(d *draft, r *wizard.Result) *DraftDTO {
	st := d.store.State()
	dto := &DraftDTO{
		State:     st,
		Breakdown: s.pricing.compute(st.Services, st.Pricing),
	}
	if r != nil {
		dto.Validation = toStepResultDTO(*r)
	}
	if err := s.autosaver.LastError(st.DraftID); err != nil {
		dto.LastSaveError = err.Error()
	}
	return dto
}

func toStepResultDTO(r wizard.Result) *StepResultDTO {
	dto := &StepResultDTO{
		Step:     int(r.Step),
		Valid:    r.Valid(),
		Issues:   r.Issues,
		Warnings: r.Warnings,
	}
	if r.Step.IsValid() {
		dto.Name = r.Step.String()
	}
	if dto.Issues == nil {
		dto.Issues = []domain.FieldIssue{}
	}
	if dto.Warnings == nil {
		dto.Warnings = []string{}
	}
	return dto
}
