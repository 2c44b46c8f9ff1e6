package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	bookingDomain "github.com/Kilat-Travel/service-booking/internal/domain/booking"
	clientDomain "github.com/Kilat-Travel/service-booking/internal/domain/client"
	promoDomain "github.com/Kilat-Travel/service-booking/internal/domain/promo"
	"github.com/Kilat-Travel/service-booking/internal/kafka"
	"github.com/google/uuid"
)

// --- Booking repository ---

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	versions map[uuid.UUID]int64
	saveErr  error
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		versions: make(map[uuid.UUID]int64),
	}
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return b, nil
}

func (r *memBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BookingNumber() == number {
			return b, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (r *memBookingRepo) List(_ context.Context, f bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if f.Status != "" && b.Status() != f.Status {
			continue
		}
		if f.ClientID != uuid.Nil && b.ClientID() != f.ClientID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return []*bookingDomain.Booking{}, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *memBookingRepo) FindBalanceDue(_ context.Context, on time.Time) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.BalanceDue(on) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range r.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.bookings[b.ID()] = b
	r.versions[b.ID()] = b.Version()
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.versions[b.ID()] != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another request")
	}
	r.bookings[b.ID()] = b
	r.versions[b.ID()] = b.Version()
	return nil
}

// --- Promo repository ---

type memPromoRepo struct {
	mu    sync.Mutex
	codes map[string]*promoDomain.PromoCode
	finds int
	delay time.Duration
}

func newMemPromoRepo() *memPromoRepo {
	return &memPromoRepo{codes: make(map[string]*promoDomain.PromoCode)}
}

func (r *memPromoRepo) FindByCode(_ context.Context, code string) (*promoDomain.PromoCode, error) {
	r.mu.Lock()
	r.finds++
	delay := r.delay
	r.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.codes[promoDomain.NormalizeCode(code)]
	if !ok {
		return nil, domain.NewNotFoundError("PromoCode", code)
	}
	return p, nil
}

func (r *memPromoRepo) List(_ context.Context, activeOnly bool, page, limit int) ([]*promoDomain.PromoCode, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*promoDomain.PromoCode
	for _, p := range r.codes {
		if activeOnly && !p.IsActive() {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out, int64(len(out)), nil
}

func (r *memPromoRepo) Save(_ context.Context, p *promoDomain.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[p.Code()]; ok {
		return domain.NewConflictError("promo code already exists")
	}
	r.codes[p.Code()] = p
	return nil
}

func (r *memPromoRepo) Update(_ context.Context, p *promoDomain.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[p.Code()] = p
	return nil
}

func (r *memPromoRepo) findCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finds
}

// --- Client repository ---

type memClientRepo struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*clientDomain.Client
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{clients: make(map[uuid.UUID]*clientDomain.Client)}
}

func (r *memClientRepo) FindByID(_ context.Context, id uuid.UUID) (*clientDomain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, domain.NewNotFoundError("Client", id.String())
	}
	return c, nil
}

func (r *memClientRepo) Search(_ context.Context, query string, page, limit int) ([]*clientDomain.Client, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	var out []*clientDomain.Client
	for _, c := range r.clients {
		if !c.IsActive() {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(c.Name()+" "+c.CompanyName()+" "+c.Email()), q) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, int64(len(out)), nil
}

func (r *memClientRepo) Save(_ context.Context, c *clientDomain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID()] = c
	return nil
}

func (r *memClientRepo) Update(_ context.Context, c *clientDomain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID()] = c
	return nil
}

// --- Event publisher ---

type recordedEvent struct {
	topic string
	key   string
	event kafka.CloudEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.event.Type
	}
	return out
}

// --- Snapshot store ---

var errStoreDown = errors.New("snapshot store unavailable")

type memSnapshots struct {
	mu       sync.Mutex
	data     map[uuid.UUID][]byte
	saves    int
	failures int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: make(map[uuid.UUID][]byte)}
}

func (s *memSnapshots) Save(_ context.Context, id uuid.UUID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failures > 0 {
		s.failures--
		return errStoreDown
	}
	s.data[id] = append([]byte(nil), data...)
	return nil
}

func (s *memSnapshots) Load(_ context.Context, id uuid.UUID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[id]
	if !ok {
		return nil, domain.NewNotFoundError("Draft", id.String())
	}
	return d, nil
}

func (s *memSnapshots) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *memSnapshots) has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[id]
	return ok
}

func (s *memSnapshots) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memSnapshots) failNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}
