// Package mocks provides test doubles for the usps client.
package mocks

import (
	"context"

	usps "github.com/KevinSGarrett/DebtCollect/pkg/usps"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Verify provides a mock function with given fields: ctx, addr
func (_m *MockClient) Verify(ctx context.Context, addr usps.Address) (*usps.Result, error) {
	ret := _m.Called(ctx, addr)

	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}

	var r0 *usps.Result
	if rf, ok := ret.Get(0).(func(context.Context, usps.Address) (*usps.Result, error)); ok {
		return rf(ctx, addr)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*usps.Result)
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
