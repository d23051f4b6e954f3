package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medicine"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var morning = schedule.Window{Shift: schedule.ShiftMorning}

func seedSlot(t *testing.T, db *gorm.DB, doctorID uuid.UUID, date time.Time) *schedule.Slot {
	t.Helper()
	s := &schedule.Slot{DoctorID: doctorID, Date: date, Shift: morning.Shift, IsAvailable: true}
	if err := NewSlotRepository(db).Create(context.Background(), s); err != nil {
		t.Fatalf("seeding slot: %v", err)
	}
	return s
}

func seedAppointment(t *testing.T, db *gorm.DB, doctorID uuid.UUID, date time.Time, mode appointment.CreationMode) (*appointment.Appointment, error) {
	t.Helper()
	a := &appointment.Appointment{
		PatientID:    uuid.New(),
		DoctorID:     doctorID,
		Date:         schedule.NormalizeDate(date),
		Shift:        morning.Shift,
		Status:       appointment.StatusPending,
		CreationMode: mode,
		CreatedBy:    uuid.New(),
	}
	return a, NewAppointmentRepository(db).Create(context.Background(), a)
}

// run calls fn from n goroutines at once and returns their errors.
func run(n int, fn func() error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()
	return errs
}

func TestSlotRepository_ConcurrentReserve(t *testing.T) {
	db := postgresDB(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()
	slot := seedSlot(t, db, uuid.New(), time.Date(2031, 1, 6, 0, 0, 0, 0, time.UTC))

	errs := run(10, func() error { return repo.Reserve(ctx, slot.ID) })

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case !errors.Is(err, schedule.ErrSlotUnavailable):
			t.Errorf("unexpected reserve error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one reservation to win, got %d", won)
	}

	if _, err := repo.FindAvailable(ctx, slot.DoctorID, slot.Date, morning); !errors.Is(err, schedule.ErrSlotUnavailable) {
		t.Errorf("reserved slot should not be found as available, got %v", err)
	}
	if err := repo.Release(ctx, slot.ID); err != nil {
		t.Fatalf("releasing: %v", err)
	}
	if err := repo.Reserve(ctx, slot.ID); err != nil {
		t.Errorf("released slot should be reservable again: %v", err)
	}
}

func TestSlotRepository_DuplicateKey(t *testing.T) {
	db := postgresDB(t)
	doctorID := uuid.New()
	date := time.Date(2031, 1, 7, 0, 0, 0, 0, time.UTC)
	seedSlot(t, db, doctorID, date)

	dup := &schedule.Slot{DoctorID: doctorID, Date: date, Shift: morning.Shift, IsAvailable: true}
	if err := NewSlotRepository(db).Create(context.Background(), dup); !errors.Is(err, schedule.ErrSlotConflict) {
		t.Errorf("expected ErrSlotConflict, got %v", err)
	}
}

func TestMedicineRepository_DecrementStockFloor(t *testing.T) {
	db := postgresDB(t)
	repo := NewMedicineRepository(db)
	ctx := context.Background()

	m := &medicine.Medicine{ID: uuid.New(), Name: "Amoxicillin", Unit: "capsule", Price: decimal.NewFromInt(3), Stock: 5}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seeding medicine: %v", err)
	}

	if err := repo.DecrementStock(ctx, m.ID, 3); err != nil {
		t.Fatalf("first decrement: %v", err)
	}

	var stockErr *medicine.StockError
	if err := repo.DecrementStock(ctx, m.ID, 3); !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if stockErr.Available != 2 || stockErr.Requested != 3 {
		t.Errorf("unexpected stock error %+v", stockErr)
	}

	errs := run(6, func() error { return repo.DecrementStock(ctx, m.ID, 1) })
	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 2 {
		t.Errorf("expected two concurrent decrements to succeed, got %d", ok)
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("reloading medicine: %v", err)
	}
	if got.Stock != 0 {
		t.Errorf("expected stock to stop at 0, got %d", got.Stock)
	}
}

func TestAppointmentRepository_StaleStatusUpdate(t *testing.T) {
	db := postgresDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	a, err := seedAppointment(t, db, uuid.New(), time.Date(2031, 2, 3, 0, 0, 0, 0, time.UTC), appointment.ModeStrict)
	if err != nil {
		t.Fatalf("seeding appointment: %v", err)
	}

	first, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	stale, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}

	first.Status = appointment.StatusConfirmed
	if err := repo.Update(ctx, first, appointment.StatusPending); err != nil {
		t.Fatalf("first update: %v", err)
	}

	stale.Status = appointment.StatusCancelled
	if err := repo.Update(ctx, stale, appointment.StatusPending); !errors.Is(err, appointment.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if got.Status != appointment.StatusConfirmed {
		t.Errorf("stale update must not win, status is %s", got.Status)
	}
}

func TestAppointmentRepository_HasActiveForSlot(t *testing.T) {
	db := postgresDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()
	doctorID := uuid.New()
	date := time.Date(2031, 2, 4, 0, 0, 0, 0, time.UTC)

	held, err := repo.HasActiveForSlot(ctx, doctorID, date, morning, uuid.Nil)
	if err != nil || held {
		t.Fatalf("expected an empty key, got held=%v err=%v", held, err)
	}

	a, err := seedAppointment(t, db, doctorID, date, appointment.ModeStrict)
	if err != nil {
		t.Fatalf("seeding appointment: %v", err)
	}

	if held, _ := repo.HasActiveForSlot(ctx, doctorID, date, morning, uuid.Nil); !held {
		t.Error("expected the key to be held")
	}
	if held, _ := repo.HasActiveForSlot(ctx, doctorID, date, morning, a.ID); held {
		t.Error("the holder itself must be excluded")
	}
	if held, _ := repo.HasActiveForSlot(ctx, doctorID, date, schedule.Window{Shift: schedule.ShiftEvening}, uuid.Nil); held {
		t.Error("another window must not be held")
	}

	a.Status = appointment.StatusCancelled
	if err := repo.Update(ctx, a, appointment.StatusPending); err != nil {
		t.Fatalf("cancelling: %v", err)
	}
	if held, _ := repo.HasActiveForSlot(ctx, doctorID, date, morning, uuid.Nil); held {
		t.Error("cancelled appointments must not hold the key")
	}
}

func TestAppointmentRepository_OneActiveStrictBookingPerKey(t *testing.T) {
	db := postgresDB(t)
	doctorID := uuid.New()
	date := time.Date(2031, 2, 5, 0, 0, 0, 0, time.UTC)

	if _, err := seedAppointment(t, db, doctorID, date, appointment.ModeStrict); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := seedAppointment(t, db, doctorID, date, appointment.ModeStrict); !errors.Is(err, schedule.ErrSlotUnavailable) {
		t.Errorf("expected ErrSlotUnavailable for a second strict booking, got %v", err)
	}
	if _, err := seedAppointment(t, db, doctorID, date, appointment.ModeUnchecked); err != nil {
		t.Errorf("unchecked bookings are not covered by the index: %v", err)
	}
}

func TestChatRepository_EnsureChannelOnce(t *testing.T) {
	db := postgresDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	appointmentID := uuid.New()

	var (
		mu      sync.Mutex
		created int
	)
	errs := run(5, func() error {
		ok, err := repo.EnsureChannel(ctx, &chat.Channel{
			DoctorID:      uuid.New(),
			PatientID:     uuid.New(),
			AppointmentID: appointmentID,
		})
		if ok {
			mu.Lock()
			created++
			mu.Unlock()
		}
		return err
	})
	for _, err := range errs {
		if err != nil {
			t.Fatalf("ensuring channel: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected one channel created, got %d", created)
	}

	if _, err := repo.GetByAppointmentID(ctx, appointmentID); err != nil {
		t.Errorf("loading channel: %v", err)
	}
	if _, err := repo.GetByAppointmentID(ctx, uuid.New()); !errors.Is(err, chat.ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := postgresDB(t)
	tx := NewTransactor(db)
	slots := NewSlotRepository(db)
	ctx := context.Background()
	slot := seedSlot(t, db, uuid.New(), time.Date(2031, 3, 3, 0, 0, 0, 0, time.UTC))

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := slots.Reserve(ctx, slot.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	got, err := slots.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("reloading slot: %v", err)
	}
	if !got.IsAvailable {
		t.Error("reservation should have been rolled back")
	}
}
