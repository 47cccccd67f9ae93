// Package mocks provides test doubles for the courtlistener client.
package mocks

import (
	"context"

	courtlistener "github.com/KevinSGarrett/DebtCollect/pkg/courtlistener"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SearchByParty provides a mock function with given fields: ctx, name
func (_m *MockClient) SearchByParty(ctx context.Context, name string) ([]courtlistener.Docket, error) {
	return _m.dockets(_m.Called(ctx, name), "SearchByParty")
}

// SearchByCaseName provides a mock function with given fields: ctx, name
func (_m *MockClient) SearchByCaseName(ctx context.Context, name string) ([]courtlistener.Docket, error) {
	return _m.dockets(_m.Called(ctx, name), "SearchByCaseName")
}

func (_m *MockClient) dockets(ret mock.Arguments, method string) ([]courtlistener.Docket, error) {
	if len(ret) == 0 {
		panic("no return value specified for " + method)
	}

	var r0 []courtlistener.Docket
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]courtlistener.Docket)
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
