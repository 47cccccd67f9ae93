// Package mocks provides test doubles for the rpv client.
package mocks

import (
	"context"

	rpv "github.com/KevinSGarrett/DebtCollect/pkg/rpv"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Lookup provides a mock function with given fields: ctx, phoneE164
func (_m *MockClient) Lookup(ctx context.Context, phoneE164 string) (*rpv.Response, error) {
	ret := _m.Called(ctx, phoneE164)

	if len(ret) == 0 {
		panic("no return value specified for Lookup")
	}

	var r0 *rpv.Response
	if rf, ok := ret.Get(0).(func(context.Context, string) (*rpv.Response, error)); ok {
		return rf(ctx, phoneE164)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*rpv.Response)
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
