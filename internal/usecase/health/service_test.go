package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")

	tests := []struct {
		name          string
		backend       *mockPinger
		hydration     Pinger
		wantStatus    Status
		wantBackend   CheckResult
		wantHydration CheckResult
	}{
		{"all healthy", &mockPinger{}, &mockPinger{}, Healthy, CheckOK, CheckOK},
		{"backend down", &mockPinger{err: down}, &mockPinger{}, Degraded, CheckError, CheckOK},
		{"hydration down", &mockPinger{}, &mockPinger{err: down}, Degraded, CheckOK, CheckError},
		{"both down", &mockPinger{err: down}, &mockPinger{err: down}, Degraded, CheckError, CheckError},
		{"no hydration store", &mockPinger{}, nil, Healthy, CheckOK, ""},
		{"no hydration store, backend down", &mockPinger{err: down}, nil, Degraded, CheckError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.backend, tt.hydration).Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", r.Status, tt.wantStatus)
			}
			if r.Checks["backend"] != tt.wantBackend {
				t.Errorf("backend = %q, want %q", r.Checks["backend"], tt.wantBackend)
			}
			got, ok := r.Checks["hydration"]
			if tt.wantHydration == "" {
				if ok {
					t.Error("hydration check should be absent when no store is configured")
				}
				return
			}
			if got != tt.wantHydration {
				t.Errorf("hydration = %q, want %q", got, tt.wantHydration)
			}
		})
	}
}
