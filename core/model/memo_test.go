package model

import (
	"errors"
	"sync"
	"testing"
)

func TestMemo_ComputesOnce(t *testing.T) {
	var m Memo[float64]
	calls := 0
	compute := func() (float64, error) {
		calls++
		return 0.87, nil
	}

	for i := 0; i < 3; i++ {
		got, err := m.Get(compute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0.87 {
			t.Errorf("Get() = %v, want 0.87", got)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestMemo_CachesError(t *testing.T) {
	var m Memo[[]float64]
	wantErr := errors.New("singular")
	calls := 0
	compute := func() ([]float64, error) {
		calls++
		return nil, wantErr
	}

	_, err1 := m.Get(compute)
	_, err2 := m.Get(compute)
	if err1 != wantErr || err2 != wantErr {
		t.Errorf("errors = %v, %v; want %v twice", err1, err2, wantErr)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestMemo_Reset(t *testing.T) {
	var m Memo[int]
	_, _ = m.Get(func() (int, error) { return 1, nil })
	if !m.Done() {
		t.Fatal("Done() = false after Get")
	}
	m.Reset()
	if m.Done() {
		t.Fatal("Done() = true after Reset")
	}
	got, _ := m.Get(func() (int, error) { return 2, nil })
	if got != 2 {
		t.Errorf("Get() after Reset = %d, want 2", got)
	}
}

func TestMemo_Concurrent(t *testing.T) {
	var m Memo[int]
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := m.Get(func() (int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return 42, nil
			})
			if v != 42 {
				t.Errorf("Get() = %d, want 42", v)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestBaseEstimator_States(t *testing.T) {
	var e BaseEstimator
	if e.State() != NotFitted || e.IsFitted() {
		t.Fatalf("zero value state = %v", e.State())
	}
	e.SetFitted()
	if !e.IsFitted() {
		t.Error("IsFitted() = false after SetFitted")
	}
	e.SetFailed()
	if !e.IsFailed() || e.IsFitted() {
		t.Errorf("state = %v, want failed", e.State())
	}
	e.Reset()
	if e.State().String() != "not_fitted" {
		t.Errorf("State().String() = %q, want not_fitted", e.State().String())
	}
}
