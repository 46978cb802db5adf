package logging_test

import (
	"testing"

	"factorynet/internal/logging"
)

func TestProgressSamplerKnownTotal(t *testing.T) {
	s := logging.NewProgressSampler(25, 0)
	var logged []int
	for done := 1; done <= 20; done++ {
		if s.ShouldLog(done, 20) {
			logged = append(logged, done)
		}
	}
	want := []int{1, 5, 10, 15, 20}
	if len(logged) != len(want) {
		t.Fatalf("logged at %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged at %v, want %v", logged, want)
		}
	}
	if s.ShouldLog(25, 20) {
		t.Fatal("overshooting the total should not log again")
	}
}

func TestProgressSamplerUnknownTotal(t *testing.T) {
	s := logging.NewProgressSampler(0, 3)
	steps := []struct {
		done int
		want bool
	}{
		{0, false},
		{1, true},
		{2, false},
		{3, true},
		{4, false},
		{6, true},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.done, 0); got != step.want {
			t.Fatalf("ShouldLog(%d, 0) = %v, want %v", step.done, got, step.want)
		}
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *logging.ProgressSampler
	if !s.ShouldLog(1, 10) {
		t.Fatal("nil sampler should always log")
	}
}
