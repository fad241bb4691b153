package classify

import (
	"context"
	"sync"
	"time"
)

// Mock implements Classifier for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	// If nil, returns Results.
	ClassifyFunc func(ctx context.Context, image []byte) ([]Classification, error)

	// Results are returned when ClassifyFunc is nil.
	Results []Classification

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a Classify invocation.
type MockCall struct {
	Size int
	Time time.Time
}

// NewMock returns a mock that always answers with results.
func NewMock(results ...Classification) *Mock {
	return &Mock{Results: results}
}

// FailingMock returns a mock whose Classify always fails with err.
func FailingMock(err error) *Mock {
	return &Mock{
		ClassifyFunc: func(ctx context.Context, image []byte) ([]Classification, error) {
			return nil, err
		},
	}
}

// Classify records the call and returns the configured answer.
func (m *Mock) Classify(ctx context.Context, image []byte) ([]Classification, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Size: len(image), Time: time.Now()})
	fn := m.ClassifyFunc
	results := m.Results
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, image)
	}
	out := make([]Classification, len(results))
	copy(out, results)
	return out, nil
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// CallCount returns the number of Classify calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var _ Classifier = (*Mock)(nil)
