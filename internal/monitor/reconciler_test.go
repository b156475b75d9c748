package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roomwatch/backend/internal/model"
	"github.com/roomwatch/backend/pkg/datetime"
)

// MockSnapshotStore is a mock implementation of SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) GetByDates(ctx context.Context, dates []datetime.Date) ([]model.AvailabilitySnapshot, error) {
	args := m.Called(ctx, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AvailabilitySnapshot), args.Error(1)
}

func (m *MockSnapshotStore) Upsert(ctx context.Context, snap *model.AvailabilitySnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockSnapshotStore) UpdateAvailability(ctx context.Context, id uuid.UUID, isAvailable bool, price *decimal.Decimal, checkedAt time.Time) error {
	args := m.Called(ctx, id, isAvailable, price, checkedAt)
	return args.Error(0)
}

func (m *MockSnapshotStore) TouchChecked(ctx context.Context, id uuid.UUID, price *decimal.Decimal, checkedAt time.Time) error {
	args := m.Called(ctx, id, price, checkedAt)
	return args.Error(0)
}

func (m *MockSnapshotStore) MarkUnavailable(ctx context.Context, ids []uuid.UUID, checkedAt time.Time) error {
	args := m.Called(ctx, ids, checkedAt)
	return args.Error(0)
}

func yen(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func testDate() datetime.Date {
	return datetime.NewDate(2026, time.October, 1)
}

func snapshot(date datetime.Date, roomType string, available bool, price *decimal.Decimal) model.AvailabilitySnapshot {
	return model.AvailabilitySnapshot{
		ID:          uuid.New(),
		Date:        date,
		RoomType:    roomType,
		IsAvailable: available,
		Price:       price,
		Source:      model.SourceRakuten,
	}
}

func TestReconciler_NewAvailableRoomCreatesTransition(t *testing.T) {
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	store.On("GetByDates", ctx, []datetime.Date{date}).Return([]model.AvailabilitySnapshot{}, nil)
	store.On("Upsert", ctx, mock.AnythingOfType("*model.AvailabilitySnapshot")).Return(nil)

	fresh := []model.RoomAvailability{
		{Date: date, RoomType: "ミラコスタ - スイート", IsAvailable: true, Price: yen(150000)},
	}

	result, err := r.Reconcile(ctx, []datetime.Date{date}, fresh)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Transitions, 1)
	assert.True(t, result.Transitions[0].IsNew)
	assert.Equal(t, "ミラコスタ - スイート", result.Transitions[0].Snapshot.RoomType)
	store.AssertExpectations(t)
}

func TestReconciler_NewUnavailableRoomIsSilent(t *testing.T) {
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	store.On("GetByDates", ctx, []datetime.Date{date}).Return([]model.AvailabilitySnapshot{}, nil)
	store.On("Upsert", ctx, mock.AnythingOfType("*model.AvailabilitySnapshot")).Return(nil)

	fresh := []model.RoomAvailability{
		{Date: date, RoomType: "ミラコスタ - スイート", IsAvailable: false},
	}

	result, err := r.Reconcile(ctx, []datetime.Date{date}, fresh)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Empty(t, result.Transitions)
	store.AssertExpectations(t)
}

func TestReconciler_FlipToAvailableEmitsTransition(t *testing.T) {
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	existing := snapshot(date, "ミラコスタ - スイート", false, yen(100000))
	store.On("GetByDates", ctx, []datetime.Date{date}).Return([]model.AvailabilitySnapshot{existing}, nil)
	store.On("UpdateAvailability", ctx, existing.ID, true, yen(120000), mock.AnythingOfType("time.Time")).Return(nil)

	fresh := []model.RoomAvailability{
		{Date: date, RoomType: "ミラコスタ - スイート", IsAvailable: true, Price: yen(120000)},
	}

	result, err := r.Reconcile(ctx, []datetime.Date{date}, fresh)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Transitions, 1)
	assert.False(t, result.Transitions[0].IsNew)
	assert.True(t, result.Transitions[0].Snapshot.IsAvailable)
	// Fresh price wins.
	assert.True(t, result.Transitions[0].Snapshot.Price.Equal(decimal.NewFromInt(120000)))
	store.AssertExpectations(t)
}

func TestReconciler_FlipToUnavailableIsSilent(t *testing.T) {
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	existing := snapshot(date, "ミラコスタ - スイート", true, yen(100000))
	store.On("GetByDates", ctx, []datetime.Date{date}).Return([]model.AvailabilitySnapshot{existing}, nil)
	store.On("UpdateAvailability", ctx, existing.ID, false, (*decimal.Decimal)(nil), mock.AnythingOfType("time.Time")).Return(nil)

	fresh := []model.RoomAvailability{
		{Date: date, RoomType: "ミラコスタ - スイート", IsAvailable: false},
	}

	result, err := r.Reconcile(ctx, []datetime.Date{date}, fresh)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.Transitions)
	store.AssertExpectations(t)
}

func TestReconciler_UnchangedRowIsTouched(t *testing.T) {
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	existing := snapshot(date, "ミラコスタ - スイート", true, yen(100000))
	store.On("GetByDates", ctx, []datetime.Date{date}).Return([]model.AvailabilitySnapshot{existing}, nil)
	store.On("TouchChecked", ctx, existing.ID, yen(110000), mock.AnythingOfType("time.Time")).Return(nil)

	fresh := []model.RoomAvailability{
		{Date: date, RoomType: "ミラコスタ - スイート", IsAvailable: true, Price: yen(110000)},
	}

	result, err := r.Reconcile(ctx, []datetime.Date{date}, fresh)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Touched)
	assert.Empty(t, result.Transitions, "price-only change must not notify")
	store.AssertExpectations(t)
}

func TestReconciler_DisappearanceFlipsOnlyAvailableRows(t *testing.T) {
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	wasAvailable := snapshot(date, "ミラコスタ - スイート", true, yen(100000))
	wasUnavailable := snapshot(date, "ミラコスタ - テラス", false, nil)
	store.On("GetByDates", ctx, []datetime.Date{date}).
		Return([]model.AvailabilitySnapshot{wasAvailable, wasUnavailable}, nil)
	store.On("MarkUnavailable", ctx, []uuid.UUID{wasAvailable.ID}, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := r.Reconcile(ctx, []datetime.Date{date}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.MarkedUnavailable)
	assert.Empty(t, result.Transitions, "disappearance never notifies")
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "UpdateAvailability", mock.Anything, wasUnavailable.ID, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconciler_Idempotence(t *testing.T) {
	// A rerun where the store already reflects the fresh data only touches
	// rows and emits no transitions.
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	existing := snapshot(date, "ミラコスタ - スイート", true, yen(150000))
	store.On("GetByDates", ctx, []datetime.Date{date}).Return([]model.AvailabilitySnapshot{existing}, nil)
	store.On("TouchChecked", ctx, existing.ID, yen(150000), mock.AnythingOfType("time.Time")).Return(nil)

	fresh := []model.RoomAvailability{
		{Date: date, RoomType: "ミラコスタ - スイート", IsAvailable: true, Price: yen(150000)},
	}

	result, err := r.Reconcile(ctx, []datetime.Date{date}, fresh)

	require.NoError(t, err)
	assert.Empty(t, result.Transitions)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Touched)
}

func TestReconciler_WriteFailureSkipsRecordOnly(t *testing.T) {
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	store.On("GetByDates", ctx, []datetime.Date{date}).Return([]model.AvailabilitySnapshot{}, nil)
	store.On("Upsert", ctx, mock.MatchedBy(func(s *model.AvailabilitySnapshot) bool {
		return s.RoomType == "ミラコスタ - スイート"
	})).Return(errors.New("constraint violation"))
	store.On("Upsert", ctx, mock.MatchedBy(func(s *model.AvailabilitySnapshot) bool {
		return s.RoomType == "ミラコスタ - テラス"
	})).Return(nil)

	fresh := []model.RoomAvailability{
		{Date: date, RoomType: "ミラコスタ - スイート", IsAvailable: true},
		{Date: date, RoomType: "ミラコスタ - テラス", IsAvailable: true},
	}

	result, err := r.Reconcile(ctx, []datetime.Date{date}, fresh)

	require.NoError(t, err, "row failures must not abort the pass")
	assert.Equal(t, 1, result.SkippedWrites)
	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Transitions, 1)
	assert.Equal(t, "ミラコスタ - テラス", result.Transitions[0].Snapshot.RoomType)
}

func TestReconciler_ReadFailureAborts(t *testing.T) {
	ctx := context.Background()
	store := new(MockSnapshotStore)
	r := NewReconciler(store, nil)

	date := testDate()
	store.On("GetByDates", ctx, []datetime.Date{date}).Return(nil, errors.New("connection refused"))

	_, err := r.Reconcile(ctx, []datetime.Date{date}, nil)
	assert.Error(t, err)
}
