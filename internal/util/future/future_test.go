package future

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAwait(t *testing.T) {
	type testCase struct {
		name    string
		future  *Future[int]
		wantVal int
		wantErr string
	}

	testCases := []testCase{
		{
			name:    "value",
			future:  New(func() (int, error) { return 42, nil }),
			wantVal: 42,
		},
		{
			name:    "error",
			future:  New(func() (int, error) { return 0, errors.New("failure") }),
			wantErr: "failure",
		},
		{
			name: "delayed value",
			future: New(func() (int, error) {
				time.Sleep(5 * time.Millisecond)
				return 200, nil
			}),
			wantVal: 200,
		},
		{
			name:    "panic",
			future:  New(func() (int, error) { panic("boom") }),
			wantErr: "panic: boom",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			val, err := tc.future.Await()

			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error %q, got: %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if val != tc.wantVal {
				t.Fatalf("expected value: %d, got: %d", tc.wantVal, val)
			}
		})
	}
}

func TestDone(t *testing.T) {
	release := make(chan struct{})
	f := New(func() (string, error) {
		<-release
		return "done", nil
	})

	select {
	case <-f.Done():
		t.Fatalf("expected the future to be pending")
	default:
	}

	close(release)
	<-f.Done()

	for i := 0; i < 2; i++ {
		if v, err := f.Await(); v != "done" || err != nil {
			t.Fatalf("await %d - expected done, got %q, %v", i, v, err)
		}
	}
}
