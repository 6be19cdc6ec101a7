// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Code structured by hand in the shape go.uber.org/mock/mockgen generates,
// following the pattern of the teacher's own mockgen output (e.g.
// validator/validatorsmock), for the one collaborator interface this
// module defines but never implements itself: Source.
package chainclient

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockSource is a mock of the Source interface.
type MockSource struct {
	ctrl     *gomock.Controller
	recorder *MockSourceMockRecorder
}

// MockSourceMockRecorder is the mock recorder for MockSource.
type MockSourceMockRecorder struct {
	mock *MockSource
}

// NewMockSource creates a new mock instance.
func NewMockSource(ctrl *gomock.Controller) *MockSource {
	mock := &MockSource{ctrl: ctrl}
	mock.recorder = &MockSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSource) EXPECT() *MockSourceMockRecorder {
	return m.recorder
}

// HeaderAt mocks base method.
func (m *MockSource) HeaderAt(ctx context.Context, height Height) (Header, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HeaderAt", ctx, height)
	ret0, _ := ret[0].(Header)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// HeaderAt indicates an expected call of HeaderAt.
func (mr *MockSourceMockRecorder) HeaderAt(ctx, height any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HeaderAt", reflect.TypeOf((*MockSource)(nil).HeaderAt), ctx, height)
}

// Block mocks base method.
func (m *MockSource) Block(ctx context.Context, height Height) (BlockBody, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Block", ctx, height)
	ret0, _ := ret[0].(BlockBody)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Block indicates an expected call of Block.
func (mr *MockSourceMockRecorder) Block(ctx, height any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Block", reflect.TypeOf((*MockSource)(nil).Block), ctx, height)
}

// BestBlock mocks base method.
func (m *MockSource) BestBlock(ctx context.Context) (Header, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BestBlock", ctx)
	ret0, _ := ret[0].(Header)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BestBlock indicates an expected call of BestBlock.
func (mr *MockSourceMockRecorder) BestBlock(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BestBlock", reflect.TypeOf((*MockSource)(nil).BestBlock), ctx)
}

// SubscribeBlocks mocks base method.
func (m *MockSource) SubscribeBlocks(ctx context.Context) (<-chan Header, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SubscribeBlocks", ctx)
	ret0, _ := ret[0].(<-chan Header)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SubscribeBlocks indicates an expected call of SubscribeBlocks.
func (mr *MockSourceMockRecorder) SubscribeBlocks(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SubscribeBlocks", reflect.TypeOf((*MockSource)(nil).SubscribeBlocks), ctx)
}

var _ Source = (*MockSource)(nil)
