package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/booking-api/internal/models"
	"github.com/noah-isme/booking-api/internal/repository"
	"github.com/noah-isme/booking-api/internal/scheduling"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
)

var cot = time.FixedZone("COT", -5*60*60)

// 2024-06-03 is a Monday.
func local(day, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", day+" "+clock, cot)
	if err != nil {
		panic(err)
	}
	return t
}

func strRef(v string) *string { return &v }

type serviceRepoStub struct {
	mu    sync.Mutex
	items map[string]models.Service
	calls int
}

func (s *serviceRepoStub) FindByID(_ context.Context, id string) (*models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	svc, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &svc, nil
}

func (s *serviceRepoStub) ListActiveByOwner(_ context.Context, ownerID string) ([]models.Service, error) {
	var out []models.Service
	for _, svc := range s.items {
		if svc.OwnerID == ownerID && svc.Active {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type employeeRepoStub struct {
	items map[string]models.Employee
}

func (s *employeeRepoStub) FindByID(_ context.Context, scope models.TenantScope, id string) (*models.Employee, error) {
	emp, ok := s.items[id]
	if !ok || emp.OwnerID != scope.OwnerID() {
		return nil, sql.ErrNoRows
	}
	return &emp, nil
}

func (s *employeeRepoStub) ListByOwner(_ context.Context, ownerID string) ([]models.Employee, error) {
	var out []models.Employee
	for _, emp := range s.items {
		if emp.OwnerID == ownerID {
			out = append(out, emp)
		}
	}
	return out, nil
}

type availabilityRepoStub struct {
	mu   sync.Mutex
	days map[string]map[int]models.WeeklyAvailability
}

func (s *availabilityRepoStub) set(employeeID string, dow int, start, end string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.days == nil {
		s.days = make(map[string]map[int]models.WeeklyAvailability)
	}
	if s.days[employeeID] == nil {
		s.days[employeeID] = make(map[int]models.WeeklyAvailability)
	}
	s.days[employeeID][dow] = models.WeeklyAvailability{ID: uuid.NewString(), EmployeeID: employeeID, DayOfWeek: dow, IsAvailable: true, WindowStart: strRef(start), WindowEnd: strRef(end)}
}

func (s *availabilityRepoStub) FindByDay(_ context.Context, employeeID string, dow int) (*models.WeeklyAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.days[employeeID][dow]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (s *availabilityRepoStub) ListByEmployee(_ context.Context, employeeID string) ([]models.WeeklyAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WeeklyAvailability
	for _, row := range s.days[employeeID] {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (s *availabilityRepoStub) Upsert(_ context.Context, employeeID string, days []models.WeeklyAvailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.days == nil {
		s.days = make(map[string]map[int]models.WeeklyAvailability)
	}
	if s.days[employeeID] == nil {
		s.days[employeeID] = make(map[int]models.WeeklyAvailability)
	}
	for _, day := range days {
		day.EmployeeID = employeeID
		s.days[employeeID][day.DayOfWeek] = day
	}
	return nil
}

// memAppointments serialises commits with a mutex the way the database serialises them with the
// employee advisory lock.
type memAppointments struct {
	mu    sync.Mutex
	items map[string]models.Appointment
}

func newMemAppointments() *memAppointments {
	return &memAppointments{items: make(map[string]models.Appointment)}
}

func (m *memAppointments) put(appt models.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[appt.ID] = appt
}

func (m *memAppointments) get(id string) models.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memAppointments) FindByID(_ context.Context, scope models.TenantScope, id string) (*models.Appointment, error) {
	if !scope.Valid() {
		return nil, repository.ErrInvalidScope
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok || appt.OwnerID != scope.OwnerID() {
		return nil, sql.ErrNoRows
	}
	return &appt, nil
}

func (m *memAppointments) FindByCancelToken(_ context.Context, token models.CancelToken) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, appt := range m.items {
		if appt.CancelToken == token {
			a := appt
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAppointments) List(_ context.Context, scope models.TenantScope, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, appt := range m.items {
		if appt.OwnerID != scope.OwnerID() {
			continue
		}
		if filter.EmployeeID != "" && appt.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && appt.Status != filter.Status {
			continue
		}
		if filter.From != nil && appt.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !appt.StartTime.Before(*filter.To) {
			continue
		}
		out = append(out, appt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, len(out), nil
}

func (m *memAppointments) ListForDay(_ context.Context, employeeID string, from, to time.Time) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, appt := range m.items {
		if appt.EmployeeID == employeeID && scheduling.Occupies(appt.Status) && scheduling.Overlaps(appt.StartTime, appt.EndTime, from, to) {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memAppointments) overlapsLocked(appt *models.Appointment, ignoreID string) bool {
	for _, other := range m.items {
		if other.ID == ignoreID || other.EmployeeID != appt.EmployeeID || !scheduling.Occupies(other.Status) {
			continue
		}
		if scheduling.Overlaps(appt.StartTime, appt.EndTime, other.StartTime, other.EndTime) {
			return true
		}
	}
	return false
}

func (m *memAppointments) CreateIfFree(_ context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlapsLocked(appt, "") {
		return repository.ErrSlotTaken
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	m.items[appt.ID] = *appt
	return nil
}

func (m *memAppointments) RescheduleIfFree(_ context.Context, scope models.TenantScope, appt *models.Appointment, expected models.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlapsLocked(appt, appt.ID) {
		return repository.ErrSlotTaken
	}
	current, ok := m.items[appt.ID]
	if !ok || current.OwnerID != scope.OwnerID() || current.Status != expected {
		return repository.ErrStatusChanged
	}
	m.items[appt.ID] = *appt
	return nil
}

func (m *memAppointments) TransitionStatus(_ context.Context, scope models.TenantScope, id string, from, to models.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok || appt.OwnerID != scope.OwnerID() || appt.Status != from {
		return repository.ErrStatusChanged
	}
	appt.Status = to
	m.items[id] = appt
	return nil
}

func (m *memAppointments) CancelByToken(_ context.Context, token models.CancelToken, from models.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, appt := range m.items {
		if appt.CancelToken == token && appt.Status == from {
			appt.Status = models.AppointmentStatusCancelled
			m.items[id] = appt
			return nil
		}
	}
	return repository.ErrStatusChanged
}

func (m *memAppointments) Delete(_ context.Context, scope models.TenantScope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok || appt.OwnerID != scope.OwnerID() {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

type clientRepoStub struct {
	mu    sync.Mutex
	items map[string]models.Client
}

func (s *clientRepoStub) FindByID(_ context.Context, scope models.TenantScope, id string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok || c.OwnerID != scope.OwnerID() {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *clientRepoStub) UpsertByPhone(_ context.Context, scope models.TenantScope, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.items {
		if existing.OwnerID == scope.OwnerID() && existing.Phone == client.Phone {
			existing.Name = client.Name
			if client.Email != nil {
				existing.Email = client.Email
			}
			s.items[id] = existing
			client.ID = id
			return nil
		}
	}
	client.ID = uuid.NewString()
	client.OwnerID = scope.OwnerID()
	s.items[client.ID] = *client
	return nil
}

type memCacheRepo struct {
	mu          sync.Mutex
	values      map[string][]byte
	gets        int
	invalidated []string
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{values: make(map[string][]byte)}
}

func (c *memCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func (c *memCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
		}
	}
	return nil
}

func (c *memCacheRepo) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

type recordingEvents struct {
	mu     sync.Mutex
	events []models.AppointmentEvent
}

func (r *recordingEvents) Publish(_ context.Context, event models.AppointmentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEvents) types() []models.AppointmentEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AppointmentEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type bookingFixture struct {
	services     *serviceRepoStub
	employees    *employeeRepoStub
	availability *availabilityRepoStub
	appointments *memAppointments
	clients      *clientRepoStub
	cacheRepo    *memCacheRepo
	events       *recordingEvents
	clock        *scheduling.FixedClock
	catalog      *ServiceCatalog
	slots        *AvailabilityService
	booking      *BookingService
	scope        models.TenantScope
}

// newBookingFixture wires owner-1 with employee emp-1 (Mondays 09:00-12:00), a 30 minute service
// svc-30, client client-1, and a foreign service svc-foreign owned by owner-2.
func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		services: &serviceRepoStub{items: map[string]models.Service{
			"svc-30":      {ID: "svc-30", OwnerID: "owner-1", Name: "Haircut", DurationMinutes: 30, Active: true},
			"svc-60":      {ID: "svc-60", OwnerID: "owner-1", Name: "Colour", DurationMinutes: 60, Active: true},
			"svc-foreign": {ID: "svc-foreign", OwnerID: "owner-2", Name: "Massage", DurationMinutes: 30, Active: true},
		}},
		employees: &employeeRepoStub{items: map[string]models.Employee{
			"emp-1":     {ID: "emp-1", OwnerID: "owner-1", Name: "Ana"},
			"emp-other": {ID: "emp-other", OwnerID: "owner-2", Name: "Bea"},
		}},
		availability: &availabilityRepoStub{},
		appointments: newMemAppointments(),
		clients: &clientRepoStub{items: map[string]models.Client{
			"client-1": {ID: "client-1", OwnerID: "owner-1", Name: "Luis", Phone: "3001234567"},
		}},
		cacheRepo: newMemCacheRepo(),
		events:    &recordingEvents{},
		clock:     &scheduling.FixedClock{At: local("2024-06-01", "08:00")},
		scope:     models.NewTenantScope("owner-1"),
	}
	f.availability.set("emp-1", int(time.Monday), "09:00", "12:00")

	cache := NewCacheService(f.cacheRepo, nil, time.Minute, nil, true)
	f.catalog = NewServiceCatalog(f.services, f.employees, CatalogConfig{}, nil)
	f.slots = NewAvailabilityService(f.availability, f.appointments, f.catalog, cache, nil, nil, nil, AvailabilityConfig{Location: cot})
	f.booking = NewBookingService(BookingDeps{
		Appointments: f.appointments,
		Clients:      f.clients,
		Catalog:      f.catalog,
		Availability: f.slots,
		Events:       f.events,
		Cache:        cache,
		Clock:        clockFunc(func() time.Time { return f.clock.At }),
	})
	return f
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

func (f *bookingFixture) seed(id, employeeID string, start time.Time, minutes int, status models.AppointmentStatus) models.Appointment {
	appt := models.Appointment{
		ID:          id,
		OwnerID:     "owner-1",
		EmployeeID:  employeeID,
		ServiceID:   "svc-30",
		ClientID:    "client-1",
		StartTime:   start.UTC(),
		EndTime:     start.Add(time.Duration(minutes) * time.Minute).UTC(),
		Status:      status,
		CancelToken: models.CancelToken("token-" + id),
	}
	f.appointments.put(appt)
	return appt
}
