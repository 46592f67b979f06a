package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Fanatic033/shoro-market/internal/checkout"
	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/ledger"
	"github.com/Fanatic033/shoro-market/pkg/pagination"
)

// --- Mock SnapshotStore ---

type mockSnapshotStore struct {
	mock.Mock
}

func (m *mockSnapshotStore) Load(ctx context.Context, userID string) (domain.Snapshot, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (m *mockSnapshotStore) Save(ctx context.Context, userID string, s domain.Snapshot) error {
	return m.Called(ctx, userID, s).Error(0)
}

func (m *mockSnapshotStore) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// --- Mock ProductLookup ---

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Product(ctx context.Context, id int64) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCartUpdated(ctx context.Context, userID string, snap domain.Snapshot) error {
	return m.Called(ctx, userID, snap).Error(0)
}

func (m *mockPublisher) PublishCartCleared(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockPublisher) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

// --- Mock Submitter ---

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, s checkout.Submission) (checkout.Receipt, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(checkout.Receipt), args.Error(1)
}

// --- Mock OrderRepository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string, page pagination.Params) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

// --- Mock AddressRepository ---

type mockAddressRepository struct {
	mock.Mock
}

func (m *mockAddressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockAddressRepository) Get(ctx context.Context, userID, id string) (*domain.Address, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepository) GetDefault(ctx context.Context, userID string) (*domain.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepository) Create(ctx context.Context, a *domain.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAddressRepository) Update(ctx context.Context, a *domain.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAddressRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockAddressRepository) SetDefault(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

// --- Mock ProfileUpdater ---

type mockProfile struct {
	mock.Mock
}

func (m *mockProfile) UpdateAddress(ctx context.Context, userID, address string) error {
	return m.Called(ctx, userID, address).Error(0)
}

// --- Recording mirror ---

type recordingMirror struct {
	mu    sync.Mutex
	saved map[string][]domain.Snapshot
}

func newRecordingMirror() *recordingMirror {
	return &recordingMirror{saved: map[string][]domain.Snapshot{}}
}

func (r *recordingMirror) Observer(userID string) ledger.Observer {
	return ledger.ObserverFunc(func(s domain.Snapshot) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.saved[userID] = append(r.saved[userID], s)
	})
}

func (r *recordingMirror) count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved[userID])
}
