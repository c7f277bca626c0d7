package test

import (
	"fmt"
	"testing"
	"time"
)

// TestTimer measures how long a subtest body takes.
type TestTimer struct {
	start time.Time
	name  string
}

func NewTestTimer(name string) *TestTimer {
	return &TestTimer{start: time.Now(), name: name}
}

// Stop returns the elapsed time and prints it.
func (t *TestTimer) Stop() time.Duration {
	d := time.Since(t.start)
	fmt.Printf("⏱️  %s took %v\n", t.name, d)
	return d
}

// PerformanceAssertion fails the test when duration exceeds limit.
func PerformanceAssertion(t *testing.T, name string, duration, limit time.Duration) {
	t.Helper()
	if duration > limit {
		t.Errorf("❌ %s took %v, expected less than %v", name, duration, limit)
		return
	}
	t.Logf("✅ %s took %v (under %v)", name, duration, limit)
}

// SuiteResult collects per-subtest timings for a summary line.
type SuiteResult struct {
	Name    string
	Total   int
	Elapsed time.Duration
}

func NewSuiteResult(name string) *SuiteResult {
	return &SuiteResult{Name: name}
}

func (s *SuiteResult) Add(d time.Duration) {
	s.Total++
	s.Elapsed += d
}

// Track times a subtest and records it on the suite when the subtest ends.
func (s *SuiteResult) Track(t *testing.T, limit time.Duration) {
	t.Helper()
	timer := NewTestTimer(t.Name())
	t.Cleanup(func() {
		d := timer.Stop()
		s.Add(d)
		PerformanceAssertion(t, t.Name(), d, limit)
	})
}

func (s *SuiteResult) PrintSummary() {
	if s.Total == 0 {
		return
	}
	fmt.Printf("\n📊 %s: %d tests in %v (avg %v)\n\n", s.Name, s.Total, s.Elapsed, s.Elapsed/time.Duration(s.Total))
}
