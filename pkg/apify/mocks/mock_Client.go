// Package mocks provides test doubles for the apify client.
package mocks

import (
	"context"

	apify "github.com/KevinSGarrett/DebtCollect/pkg/apify"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SkipTrace provides a mock function with given fields: ctx, q
func (_m *MockClient) SkipTrace(ctx context.Context, q apify.Query) (*apify.Result, error) {
	ret := _m.Called(ctx, q)

	if len(ret) == 0 {
		panic("no return value specified for SkipTrace")
	}

	var r0 *apify.Result
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, apify.Query) (*apify.Result, error)); ok {
		return rf(ctx, q)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*apify.Result)
	}
	r1 = ret.Error(1)

	return r0, r1
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
