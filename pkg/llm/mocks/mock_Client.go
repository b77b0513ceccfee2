// Package mocks provides test doubles for the llm client.
package mocks

import (
	"context"
	"testing"

	mock "github.com/stretchr/testify/mock"

	llm "github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/pkg/llm"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// NewMockClient creates a new mock with cleanup registered on t.
func NewMockClient(t *testing.T) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// CreateMessage provides a mock function with given fields: ctx, req
func (_m *MockClient) CreateMessage(ctx context.Context, req llm.MessageRequest) (*llm.MessageResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for CreateMessage")
	}

	var r0 *llm.MessageResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, llm.MessageRequest) (*llm.MessageResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, llm.MessageRequest) *llm.MessageResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*llm.MessageResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, llm.MessageRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
