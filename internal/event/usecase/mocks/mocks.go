// Package mocks provides mock implementations of the event use case interfaces for testing.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/event/usecase"
)

// MockEventUseCase is a mock implementation of usecase.EventUseCase.
type MockEventUseCase struct {
	mock.Mock
}

// Enqueue mocks the Enqueue method.
func (m *MockEventUseCase) Enqueue(ctx context.Context, input usecase.EnqueueInput) (*domain.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

// EnqueueUnique mocks the EnqueueUnique method.
func (m *MockEventUseCase) EnqueueUnique(
	ctx context.Context,
	input usecase.EnqueueInput,
	refPath string,
) (*domain.Event, bool, error) {
	args := m.Called(ctx, input, refPath)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Event), args.Bool(1), args.Error(2)
}

// Get mocks the Get method.
func (m *MockEventUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

// List mocks the List method.
func (m *MockEventUseCase) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

// Requeue mocks the Requeue method.
func (m *MockEventUseCase) Requeue(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

// MockEventRepository is a mock implementation of usecase.EventRepository.
type MockEventRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

// Get mocks the Get method.
func (m *MockEventRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

// FindOne mocks the FindOne method.
func (m *MockEventRepository) FindOne(ctx context.Context, filter domain.EventFilter) (*domain.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

// Find mocks the Find method.
func (m *MockEventRepository) Find(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

// Count mocks the Count method.
func (m *MockEventRepository) Count(ctx context.Context, filter domain.EventFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// Update mocks the Update method.
func (m *MockEventRepository) Update(ctx context.Context, event *domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

// ClaimNext mocks the ClaimNext method.
func (m *MockEventRepository) ClaimNext(
	ctx context.Context,
	now time.Time,
	retryLimit int,
) (*domain.Event, error) {
	args := m.Called(ctx, now, retryLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

var (
	_ usecase.EventUseCase    = (*MockEventUseCase)(nil)
	_ usecase.EventRepository = (*MockEventRepository)(nil)
)
