// Package mocks provides test doubles for the attom client.
package mocks

import (
	"context"

	attom "github.com/KevinSGarrett/DebtCollect/pkg/attom"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// PropertyDetail provides a mock function with given fields: ctx, address
func (_m *MockClient) PropertyDetail(ctx context.Context, address string) (*attom.DetailResponse, error) {
	ret := _m.Called(ctx, address)

	if len(ret) == 0 {
		panic("no return value specified for PropertyDetail")
	}

	var r0 *attom.DetailResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*attom.DetailResponse)
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
