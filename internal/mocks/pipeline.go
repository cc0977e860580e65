package mocks

import (
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/sectrean/filter-kit"
)

// PipelineMock is a testify mock of [filter.Pipeline].
type PipelineMock struct {
	mock.Mock
}

// NewPipelineMock creates a [PipelineMock] whose expectations are asserted when the test ends.
func NewPipelineMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *PipelineMock {
	m := &PipelineMock{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *PipelineMock) Init(sc filter.ServerContext) error {
	args := m.Called(sc)
	return args.Error(0)
}

func (m *PipelineMock) Dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) error {
	args := m.Called(w, r, next)
	return args.Error(0)
}

func (m *PipelineMock) Destroy() error {
	args := m.Called()
	return args.Error(0)
}

var _ filter.Pipeline = (*PipelineMock)(nil)
