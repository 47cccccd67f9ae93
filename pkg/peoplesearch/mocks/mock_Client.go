// Package mocks provides test doubles for the peoplesearch client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SearchPeople provides a mock function with given fields: ctx, first, last, state
func (_m *MockClient) SearchPeople(ctx context.Context, first string, last string, state string) ([]map[string]any, error) {
	ret := _m.Called(ctx, first, last, state)

	if len(ret) == 0 {
		panic("no return value specified for SearchPeople")
	}

	var r0 []map[string]any
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) ([]map[string]any, error)); ok {
		return rf(ctx, first, last, state)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]map[string]any)
	}

	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
