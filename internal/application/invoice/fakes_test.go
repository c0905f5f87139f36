package invoice

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/erp/invoice/internal/infrastructure/odata"
	"github.com/stretchr/testify/mock"
)

// handlerFunc answers one query with a JSON body or an error.
type handlerFunc func(q odata.Query) (string, error)

// fakeGateway routes queries by source and records every call.
type fakeGateway struct {
	mu       sync.Mutex
	calls    []odata.Query
	handlers map[odata.Source]handlerFunc
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{handlers: make(map[odata.Source]handlerFunc)}
}

func (f *fakeGateway) on(source odata.Source, h handlerFunc) *fakeGateway {
	f.handlers[source] = h
	return f
}

func (f *fakeGateway) Fetch(_ context.Context, q odata.Query) (odata.Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	h, ok := f.handlers[q.Source]
	f.mu.Unlock()
	if !ok {
		return odata.Payload{}, odata.ErrSourceNotConfigured
	}
	body, err := h(q)
	if err != nil {
		return odata.Payload{}, err
	}
	return odata.Normalize([]byte(body))
}

func (f *fakeGateway) callsTo(source odata.Source) []odata.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []odata.Query
	for _, q := range f.calls {
		if q.Source == source {
			out = append(out, q)
		}
	}
	return out
}

func (f *fakeGateway) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func keyValue(q odata.Query, name string) string {
	for _, p := range q.Key {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

func filterText(q odata.Query) string {
	if q.Filter == nil {
		return ""
	}
	return q.Filter.String()
}

func statusError(source odata.Source, code int, msg string) error {
	return &odata.StatusError{Source: source, StatusCode: code, Message: msg}
}

func notFound(source odata.Source) error {
	return statusError(source, http.StatusNotFound, "Resource not found")
}

// MockMetrics is a testify mock of Metrics.
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ObserveLookup(result string) {
	m.Called(result)
}

func (m *MockMetrics) ObserveAggregation(outcome string, elapsed time.Duration) {
	m.Called(outcome, elapsed)
}

func (m *MockMetrics) ObservePartialFailure(branch string) {
	m.Called(branch)
}
