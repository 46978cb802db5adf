package logging

// ProgressSampler thins per-episode progress logs. With a known total it
// emits once per percentage bucket; without one it emits every Nth episode.
type ProgressSampler struct {
	bucketPercent float64
	every         int
	lastBucket    int
}

// NewProgressSampler builds a sampler. Non-positive arguments fall back to
// 10% buckets and every 100 episodes.
func NewProgressSampler(bucketPercent float64, every int) *ProgressSampler {
	if bucketPercent <= 0 {
		bucketPercent = 10
	}
	if every <= 0 {
		every = 100
	}
	return &ProgressSampler{bucketPercent: bucketPercent, every: every, lastBucket: -1}
}

// ShouldLog reports whether progress after done of total episodes is worth a
// record. A total of zero or less means the source size is unknown. A nil
// sampler logs everything.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil {
		return true
	}
	if done <= 0 {
		return false
	}
	if total <= 0 {
		return done == 1 || done%s.every == 0
	}
	percent := min(float64(done)/float64(total)*100, 100)
	bucket := int(percent / s.bucketPercent)
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}
