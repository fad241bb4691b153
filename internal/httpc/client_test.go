package httpc

import (
	"testing"
	"time"
)

func TestNewClientTimeout(t *testing.T) {
	if c := NewClient(0); c.Timeout != DefaultTimeout {
		t.Errorf("zero timeout: got %v, want %v", c.Timeout, DefaultTimeout)
	}
	if c := NewClient(5 * time.Second); c.Timeout != 5*time.Second {
		t.Errorf("got %v, want 5s", c.Timeout)
	}
}
