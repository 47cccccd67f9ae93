// Package mocks provides test doubles for the apollo client.
package mocks

import (
	"context"

	apollo "github.com/KevinSGarrett/DebtCollect/pkg/apollo"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// PeopleMatch provides a mock function with given fields: ctx, name
func (_m *MockClient) PeopleMatch(ctx context.Context, name string) (*apollo.MatchResponse, error) {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for PeopleMatch")
	}

	var r0 *apollo.MatchResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*apollo.MatchResponse)
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
