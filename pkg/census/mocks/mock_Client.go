// Package mocks provides test doubles for the census client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ZCTAMedianValue provides a mock function with given fields: ctx, zip5
func (_m *MockClient) ZCTAMedianValue(ctx context.Context, zip5 string) (float64, error) {
	ret := _m.Called(ctx, zip5)

	if len(ret) == 0 {
		panic("no return value specified for ZCTAMedianValue")
	}

	return ret.Get(0).(float64), ret.Error(1)
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
