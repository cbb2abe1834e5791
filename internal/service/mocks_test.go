package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderPlaced(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockNotifier) StatusChanged(ctx context.Context, order *models.Order, status string) error {
	args := m.Called(ctx, order, status)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, ev events.Event) error {
	args := m.Called(ctx, topic, ev)
	return args.Error(0)
}

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) IndexProduct(ctx context.Context, p *models.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockIndex) RemoveProduct(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIndex) Search(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	args := m.Called(ctx, query, from, size)
	ids, _ := args.Get(1).([]uint)
	return args.Get(0).(int64), ids, args.Error(2)
}
