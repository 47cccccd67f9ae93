// Package mocks provides test doubles for the twilio client.
package mocks

import (
	"context"

	twilio "github.com/KevinSGarrett/DebtCollect/pkg/twilio"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Lookup provides a mock function with given fields: ctx, phoneE164
func (_m *MockClient) Lookup(ctx context.Context, phoneE164 string) (*twilio.LookupResponse, error) {
	ret := _m.Called(ctx, phoneE164)

	if len(ret) == 0 {
		panic("no return value specified for Lookup")
	}

	var r0 *twilio.LookupResponse
	if rf, ok := ret.Get(0).(func(context.Context, string) (*twilio.LookupResponse, error)); ok {
		return rf(ctx, phoneE164)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*twilio.LookupResponse)
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
