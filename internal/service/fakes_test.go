package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/doctor"
	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medicine"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/payment"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// store is an in-memory database shared by the fake repositories. Values are
// stored by value and copied on the way in and out, like rows.
type store struct {
	mu           sync.Mutex
	slots        map[uuid.UUID]schedule.Slot
	appointments map[uuid.UUID]appointment.Appointment
	doctors      map[uuid.UUID]doctor.Doctor // keyed by user id
	links        map[uuid.UUID]map[uuid.UUID]bool
	records      map[uuid.UUID]mr.MedicalRecord
	medicines    map[uuid.UUID]medicine.Medicine
	channels     map[uuid.UUID]chat.Channel // keyed by appointment id
	users        map[uuid.UUID]domain.User
}

func newStore() *store {
	return &store{
		slots:        map[uuid.UUID]schedule.Slot{},
		appointments: map[uuid.UUID]appointment.Appointment{},
		doctors:      map[uuid.UUID]doctor.Doctor{},
		links:        map[uuid.UUID]map[uuid.UUID]bool{},
		records:      map[uuid.UUID]mr.MedicalRecord{},
		medicines:    map[uuid.UUID]medicine.Medicine{},
		channels:     map[uuid.UUID]chat.Channel{},
		users:        map[uuid.UUID]domain.User{},
	}
}

func cloneMap[K comparable, V any](m map[K]V, clone func(V) V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

func same[V any](v V) V { return v }

func cloneRecord(r mr.MedicalRecord) mr.MedicalRecord {
	if r.PrescribedMedicines != nil {
		r.PrescribedMedicines = append([]mr.PrescribedMedicine(nil), r.PrescribedMedicines...)
	}
	if r.OrderCode != nil {
		code := *r.OrderCode
		r.OrderCode = &code
	}
	return r
}

func (s *store) snapshot() *store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &store{
		slots:        cloneMap(s.slots, same[schedule.Slot]),
		appointments: cloneMap(s.appointments, same[appointment.Appointment]),
		doctors:      cloneMap(s.doctors, same[doctor.Doctor]),
		links: cloneMap(s.links, func(m map[uuid.UUID]bool) map[uuid.UUID]bool {
			return cloneMap(m, same[bool])
		}),
		records:   cloneMap(s.records, cloneRecord),
		medicines: cloneMap(s.medicines, same[medicine.Medicine]),
		channels:  cloneMap(s.channels, same[chat.Channel]),
		users:     cloneMap(s.users, same[domain.User]),
	}
}

func (s *store) restore(from *store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = from.slots
	s.appointments = from.appointments
	s.doctors = from.doctors
	s.links = from.links
	s.records = from.records
	s.medicines = from.medicines
	s.channels = from.channels
	s.users = from.users
}

// fakeTx serializes transactions and rolls the whole store back when fn
// fails. Nested calls join the outer transaction.
type fakeTx struct {
	db *store
	mu sync.Mutex

	rollbacks int
}

type fakeTxKey struct{}

func (t *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		t.db.restore(snap)
		t.rollbacks++
		return err
	}
	return nil
}

// Slots.

type fakeSlots struct{ db *store }

func (f *fakeSlots) Create(_ context.Context, s *schedule.Slot) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.slots {
		if existing.Matches(s.DoctorID, s.Date, s.Window()) {
			return schedule.ErrSlotConflict
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.db.slots[s.ID] = *s
	return nil
}

func (f *fakeSlots) GetByID(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	return &s, nil
}

func (f *fakeSlots) Update(_ context.Context, s *schedule.Slot) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.slots[s.ID]; !ok {
		return schedule.ErrSlotNotFound
	}
	f.db.slots[s.ID] = *s
	return nil
}

func (f *fakeSlots) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*schedule.Slot, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*schedule.Slot
	for _, s := range f.db.slots {
		if s.DoctorID == doctorID {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (f *fakeSlots) find(doctorID uuid.UUID, date time.Time, w schedule.Window, onlyFree bool) (*schedule.Slot, bool) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.slots {
		if s.Matches(doctorID, date, w) && (!onlyFree || s.IsAvailable) {
			return &s, true
		}
	}
	return nil, false
}

func (f *fakeSlots) FindByKey(_ context.Context, doctorID uuid.UUID, date time.Time, w schedule.Window) (*schedule.Slot, error) {
	if s, ok := f.find(doctorID, date, w, false); ok {
		return s, nil
	}
	return nil, schedule.ErrSlotNotFound
}

func (f *fakeSlots) FindAvailable(_ context.Context, doctorID uuid.UUID, date time.Time, w schedule.Window) (*schedule.Slot, error) {
	if s, ok := f.find(doctorID, date, w, true); ok {
		return s, nil
	}
	return nil, schedule.ErrSlotUnavailable
}

func (f *fakeSlots) Reserve(_ context.Context, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.slots[id]
	if !ok || !s.IsAvailable {
		return schedule.ErrSlotUnavailable
	}
	s.IsAvailable = false
	f.db.slots[id] = s
	return nil
}

func (f *fakeSlots) Release(_ context.Context, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.slots[id]
	if !ok {
		return schedule.ErrSlotNotFound
	}
	s.IsAvailable = true
	f.db.slots[id] = s
	return nil
}

// Appointments.

type fakeAppointments struct{ db *store }

func (f *fakeAppointments) Create(_ context.Context, a *appointment.Appointment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	f.db.appointments[a.ID] = *a
	return nil
}

func (f *fakeAppointments) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeAppointments) Update(_ context.Context, a *appointment.Appointment, expected appointment.Status) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	stored, ok := f.db.appointments[a.ID]
	if !ok || stored.Status != expected {
		return appointment.ErrConcurrentUpdate
	}
	f.db.appointments[a.ID] = *a
	return nil
}

func (f *fakeAppointments) list(match func(appointment.Appointment) bool) []*appointment.Appointment {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range f.db.appointments {
		if match(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f *fakeAppointments) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	return f.list(func(a appointment.Appointment) bool { return a.PatientID == patientID }), nil
}

func (f *fakeAppointments) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*appointment.Appointment, error) {
	return f.list(func(a appointment.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (f *fakeAppointments) HasActiveForSlot(_ context.Context, doctorID uuid.UUID, date time.Time, w schedule.Window, excludeID uuid.UUID) (bool, error) {
	found := f.list(func(a appointment.Appointment) bool {
		return a.ID != excludeID &&
			a.DoctorID == doctorID &&
			a.Date.Equal(schedule.NormalizeDate(date)) &&
			a.SlotWindow() == w &&
			a.Status != appointment.StatusCancelled
	})
	return len(found) > 0, nil
}

func (f *fakeAppointments) status(t *testing.T, id uuid.UUID) appointment.Status {
	t.Helper()
	a, err := f.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("loading appointment: %v", err)
	}
	return a.Status
}

// Doctors.

type fakeDoctors struct{ db *store }

func (f *fakeDoctors) GetByUserID(_ context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	d, ok := f.db.doctors[userID]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return &d, nil
}

func (f *fakeDoctors) ListByUserIDs(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*doctor.Doctor, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make(map[uuid.UUID]*doctor.Doctor, len(userIDs))
	for _, id := range userIDs {
		if d, ok := f.db.doctors[id]; ok {
			out[id] = &d
		}
	}
	return out, nil
}

func (f *fakeDoctors) AttachAppointment(_ context.Context, doctorID, appointmentID uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.links[doctorID] == nil {
		f.db.links[doctorID] = map[uuid.UUID]bool{}
	}
	f.db.links[doctorID][appointmentID] = true
	return nil
}

func (f *fakeDoctors) DetachAppointment(_ context.Context, doctorID, appointmentID uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.links[doctorID], appointmentID)
	return nil
}

// Medical records.

type fakeRecords struct {
	db        *store
	createErr error
}

func (f *fakeRecords) Create(_ context.Context, r *mr.MedicalRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.records {
		if existing.AppointmentID == r.AppointmentID {
			return domain.NewError(domain.ErrConflict, "medical record exists")
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.db.records[r.ID] = cloneRecord(*r)
	return nil
}

func (f *fakeRecords) first(match func(mr.MedicalRecord) bool, notFound error) (*mr.MedicalRecord, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.records {
		if match(r) {
			r = cloneRecord(r)
			return &r, nil
		}
	}
	return nil, notFound
}

func (f *fakeRecords) GetByID(_ context.Context, id uuid.UUID) (*mr.MedicalRecord, error) {
	return f.first(func(r mr.MedicalRecord) bool { return r.ID == id }, mr.ErrRecordNotFound)
}

func (f *fakeRecords) GetByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*mr.MedicalRecord, error) {
	return f.first(func(r mr.MedicalRecord) bool { return r.AppointmentID == appointmentID }, mr.ErrRecordNotFound)
}

func (f *fakeRecords) LockByID(ctx context.Context, id uuid.UUID) (*mr.MedicalRecord, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRecords) LockByOrderCode(_ context.Context, orderCode int64) (*mr.MedicalRecord, error) {
	return f.first(func(r mr.MedicalRecord) bool {
		return r.OrderCode != nil && *r.OrderCode == orderCode
	}, mr.ErrOrderCodeNotFound)
}

func (f *fakeRecords) Update(_ context.Context, r *mr.MedicalRecord) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.records[r.ID]; !ok {
		return mr.ErrRecordNotFound
	}
	f.db.records[r.ID] = cloneRecord(*r)
	return nil
}

func (f *fakeRecords) DeleteByAppointmentID(_ context.Context, appointmentID uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for id, r := range f.db.records {
		if r.AppointmentID == appointmentID {
			delete(f.db.records, id)
		}
	}
	return nil
}

func (f *fakeRecords) List(_ context.Context, q *mr.ListRecordsQuery) ([]*mr.MedicalRecord, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*mr.MedicalRecord
	for _, r := range f.db.records {
		if q.PatientID != nil && r.PatientID != *q.PatientID {
			continue
		}
		if q.DoctorID != nil && r.DoctorID != *q.DoctorID {
			continue
		}
		if q.OnlyFilled && !r.HasClinicalContent() {
			continue
		}
		r = cloneRecord(r)
		out = append(out, &r)
	}
	return out, nil
}

func (f *fakeRecords) forAppointment(t *testing.T, appointmentID uuid.UUID) *mr.MedicalRecord {
	t.Helper()
	rec, err := f.GetByAppointmentID(context.Background(), appointmentID)
	if err != nil {
		t.Fatalf("loading medical record: %v", err)
	}
	return rec
}

// Medicines.

type fakeMedicines struct{ db *store }

func (f *fakeMedicines) GetByID(_ context.Context, id uuid.UUID) (*medicine.Medicine, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	m, ok := f.db.medicines[id]
	if !ok {
		return nil, medicine.ErrMedicineNotFound
	}
	return &m, nil
}

func (f *fakeMedicines) DecrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	m, ok := f.db.medicines[id]
	if !ok {
		return medicine.ErrMedicineNotFound
	}
	if m.Stock < quantity {
		return &medicine.StockError{MedicineID: id, Requested: quantity, Available: m.Stock}
	}
	m.Stock -= quantity
	f.db.medicines[id] = m
	return nil
}

func (f *fakeMedicines) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	m, err := f.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("loading medicine: %v", err)
	}
	return m.Stock
}

// Chat channels.

type fakeChats struct {
	db  *store
	err error
}

func (f *fakeChats) EnsureChannel(_ context.Context, c *chat.Channel) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.channels[c.AppointmentID]; ok {
		return false, nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.db.channels[c.AppointmentID] = *c
	return true, nil
}

func (f *fakeChats) GetByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*chat.Channel, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.channels[appointmentID]
	if !ok {
		return nil, chat.ErrChannelNotFound
	}
	return &c, nil
}

// Users.

type fakeUsers struct{ db *store }

var errFakeUserNotFound = domain.NewError(domain.ErrNotFound, "user not found")

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, errFakeUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) ListByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make(map[uuid.UUID]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := f.db.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

// Collaborators.

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type fakeGateway struct {
	mu       sync.Mutex
	err      error
	requests []payment.LinkRequest
	orders   map[int64]string
}

func (f *fakeGateway) CreatePaymentLink(_ context.Context, req payment.LinkRequest) (*payment.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.orders == nil {
		f.orders = map[int64]string{}
	}
	f.orders[req.OrderCode] = payment.StatusPending
	return &payment.Link{
		Status:      payment.StatusPending,
		CheckoutURL: "https://pay.example.test/checkout/" + uuid.NewString(),
		QRCode:      "qr-data",
	}, nil
}

func (f *fakeGateway) PaymentStatus(_ context.Context, orderCode int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	status, ok := f.orders[orderCode]
	if !ok {
		return "", payment.ErrGatewayRejected
	}
	return status, nil
}

// settle records what the provider reports for an order.
func (f *fakeGateway) settle(orderCode int64, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orders == nil {
		f.orders = map[int64]string{}
	}
	f.orders[orderCode] = status
}

type sentEmail struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	err  error
	sent chan sentEmail
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan sentEmail, 64)}
}

func (f *fakeNotifier) SendEmail(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent <- sentEmail{To: to, Subject: subject, Body: body}
	return nil
}

func (f *fakeNotifier) next(t *testing.T) sentEmail {
	t.Helper()
	select {
	case e := <-f.sent:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("expected an email notification")
		return sentEmail{}
	}
}

// testEnv wires real services over the fakes.

type testEnv struct {
	db           *store
	tx           *fakeTx
	slots        *fakeSlots
	appointments *fakeAppointments
	doctors      *fakeDoctors
	records      *fakeRecords
	medicines    *fakeMedicines
	chats        *fakeChats
	users        *fakeUsers
	gateway      *fakeGateway
	notifier     *fakeNotifier
	metrics      *metrics.Collector

	audit         *AuditService
	notifications *NotificationService
	scheduleSvc   *ScheduleService
	recordSvc     *MedicalRecordService
	dispatcher    *CompletionDispatcher
	svc           *AppointmentService

	nextOrderCode int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newStore()
	env := &testEnv{
		db:            db,
		tx:            &fakeTx{db: db},
		slots:         &fakeSlots{db: db},
		appointments:  &fakeAppointments{db: db},
		doctors:       &fakeDoctors{db: db},
		records:       &fakeRecords{db: db},
		medicines:     &fakeMedicines{db: db},
		chats:         &fakeChats{db: db},
		users:         &fakeUsers{db: db},
		gateway:       &fakeGateway{},
		notifier:      newFakeNotifier(),
		metrics:       metrics.NewCollector("clinicbook-test", prometheus.NewRegistry()),
		nextOrderCode: 1000,
	}

	log := zap.NewNop()
	locks := NewDoctorLocks()
	env.audit = NewAuditService(&fakeAuditRepo{}, env.metrics, log)
	t.Cleanup(env.audit.Shutdown)
	env.notifications = NewNotificationService(env.users, env.notifier, env.metrics, log)
	t.Cleanup(env.notifications.Shutdown)

	env.scheduleSvc = NewScheduleService(env.slots, env.doctors, env.appointments, locks, env.audit, log)
	env.recordSvc = NewMedicalRecordService(env.records, env.medicines, env.gateway, env.tx,
		func() int64 { env.nextOrderCode++; return env.nextOrderCode }, env.audit, env.metrics, log)
	env.dispatcher = NewCompletionDispatcher(env.chats, env.metrics, log)
	env.svc = NewAppointmentService(AppointmentServiceDeps{
		Appointments: env.appointments,
		Slots:        env.slots,
		Doctors:      env.doctors,
		Users:        env.users,
		Records:      env.recordSvc,
		Completion:   env.dispatcher,
		Tx:           env.tx,
		Locks:        locks,
		Notifier:     env.notifications,
		AuditSvc:     env.audit,
		Metrics:      env.metrics,
		Log:          log,
		DefaultMode:  appointment.ModeStrict,
	})
	return env
}

func (e *testEnv) addUser(role domain.Role) domain.Identity {
	id := uuid.New()
	e.db.mu.Lock()
	e.db.users[id] = domain.User{
		ID:       id,
		Email:    id.String()[:8] + "@clinic.test",
		FullName: string(role) + " " + id.String()[:4],
		Role:     role,
		IsActive: true,
	}
	e.db.mu.Unlock()
	return domain.Identity{UserID: id, Role: role}
}

func (e *testEnv) addDoctor() domain.Identity {
	caller := e.addUser(domain.RoleDoctor)
	e.db.mu.Lock()
	e.db.doctors[caller.UserID] = doctor.Doctor{
		ID:             uuid.New(),
		UserID:         caller.UserID,
		Specialty:      "Cardiology",
		Experience:     7,
		Qualifications: []string{"MD"},
	}
	e.db.mu.Unlock()
	return caller
}

func (e *testEnv) addSlot(t *testing.T, doctorID uuid.UUID, date time.Time, w schedule.Window) *schedule.Slot {
	t.Helper()
	s := &schedule.Slot{DoctorID: doctorID, Date: schedule.NormalizeDate(date), IsAvailable: true}
	s.SetWindow(w)
	if err := e.slots.Create(context.Background(), s); err != nil {
		t.Fatalf("seeding slot: %v", err)
	}
	return s
}

func (e *testEnv) addMedicine(price string, stock int) *medicine.Medicine {
	m := medicine.Medicine{ID: uuid.New(), Name: "Amoxicillin", Unit: "box", Price: decimal.RequireFromString(price), Stock: stock}
	e.db.mu.Lock()
	e.db.medicines[m.ID] = m
	e.db.mu.Unlock()
	return &m
}

func (e *testEnv) slotAvailable(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	s, err := e.slots.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("loading slot: %v", err)
	}
	return s.IsAvailable
}

func (e *testEnv) linked(doctorUserID, appointmentID uuid.UUID) bool {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	d := e.db.doctors[doctorUserID]
	return e.db.links[d.ID][appointmentID]
}

func (e *testEnv) book(t *testing.T, doctorID uuid.UUID, patient domain.Identity, date time.Time, w schedule.Window) *appointment.Appointment {
	t.Helper()
	a, _, err := e.svc.CreateAppointment(context.Background(), &appointment.CreateAppointmentCommand{
		DoctorID: doctorID,
		Date:     date,
		Window:   w,
	}, patient)
	if err != nil {
		t.Fatalf("booking appointment: %v", err)
	}
	return a
}

var (
	morning   = schedule.Window{Shift: schedule.ShiftMorning}
	afternoon = schedule.Window{Shift: schedule.ShiftAfternoon}
	ranged    = schedule.Window{StartTime: "09:00", EndTime: "09:30"}
)

func day(offset int) time.Time {
	return time.Date(2030, time.March, 10+offset, 0, 0, 0, 0, time.UTC)
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected error of kind %v, got %v", kind, err)
	}
}
