package service

import (
	"context"

	"giveabot/models"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (*models.BotState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BotState), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, state *models.BotState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

// MockMessenger is a mock implementation of Messenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) ResolveChannel(ctx context.Context, channelID int64) (*ChannelInfo, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChannelInfo), args.Error(1)
}

func (m *MockMessenger) PostGiveaway(ctx context.Context, giveaway *models.Giveaway) (int64, error) {
	args := m.Called(ctx, giveaway)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessenger) UpdateGiveaway(ctx context.Context, giveaway *models.Giveaway) error {
	args := m.Called(ctx, giveaway)
	return args.Error(0)
}

func (m *MockMessenger) Announce(ctx context.Context, channelID int64, content string) error {
	args := m.Called(ctx, channelID, content)
	return args.Error(0)
}
