package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"object-designer-client/internal/core/domain"
	ports "object-designer-client/internal/core/ports/output"
)

// MockObjectDesignerClient is a mock of ObjectDesignerClient.
type MockObjectDesignerClient struct {
	mock.Mock
}

func (m *MockObjectDesignerClient) CreateGeneration(ctx context.Context, req ports.CreateGenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockObjectDesignerClient) PollEnded(ctx context.Context, taskID string, longPoll time.Duration) (bool, error) {
	args := m.Called(ctx, taskID, longPoll)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectDesignerClient) GetObjectState(ctx context.Context, taskID string) (*domain.ObjectState, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ObjectState), args.Error(1)
}

func (m *MockObjectDesignerClient) GetContent(ctx context.Context, taskID, version string) (*domain.Artifact, error) {
	args := m.Called(ctx, taskID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}

func (m *MockObjectDesignerClient) GetCode(ctx context.Context, taskID, version string) (string, error) {
	args := m.Called(ctx, taskID, version)
	return args.String(0), args.Error(1)
}

func (m *MockObjectDesignerClient) AddToRooms(ctx context.Context, req ports.AddToRoomsRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockObjectDesignerClient) ContentURL(taskID, version string) string {
	args := m.Called(taskID, version)
	return args.String(0)
}
