package engine

import (
	"math"
	"time"
)

// RankingConfig holds the weights and windows of the recommendation
// formula. All values are overridable through configuration; the zero
// value is unusable, start from DefaultRankingConfig.
type RankingConfig struct {
	ViewWeight     float64
	LikeWeight     float64
	CommentWeight  float64
	ShareWeight    float64
	RecencyBoost   float64       // score multiplier contribution at age zero
	RecencyWindow  time.Duration // age at which the recency boost fades to zero
	TrendingWindow time.Duration // publication window for the trending feed
	ScoreStaleness time.Duration // lazy recompute threshold on feed reads
}

// DefaultRankingConfig returns the production defaults.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		ViewWeight:     0.3,
		LikeWeight:     0.4,
		CommentWeight:  0.2,
		ShareWeight:    0.1,
		RecencyBoost:   0.5,
		RecencyWindow:  30 * 24 * time.Hour,
		TrendingWindow: 7 * 24 * time.Hour,
		ScoreStaleness: 15 * time.Minute,
	}
}

// Counters is the input to a score computation: the aggregate counters of
// one content item plus its publication time.
type Counters struct {
	Views       int64
	Likes       int64
	Comments    int64
	Shares      int64
	PublishedAt time.Time
}

// Ranking computes recommendation scores and engagement rates. It is a
// pure function of its inputs: same counters and timestamp, same score.
type Ranking struct {
	cfg RankingConfig
}

// NewRanking creates a Ranking calculator with the given configuration.
func NewRanking(cfg RankingConfig) *Ranking {
	return &Ranking{cfg: cfg}
}

// Config returns the active ranking configuration.
func (r *Ranking) Config() RankingConfig { return r.cfg }

// Score computes the recommendation score of an item as of now.
// Zero counters yield a zero score; the result is never negative.
func (r *Ranking) Score(c Counters, now time.Time) float64 {
	weighted := r.cfg.ViewWeight*normalized(c.Views) +
		r.cfg.LikeWeight*normalized(c.Likes) +
		r.cfg.CommentWeight*normalized(c.Comments) +
		r.cfg.ShareWeight*normalized(c.Shares)
	return weighted * (1 + r.cfg.RecencyBoost*r.recency(c.PublishedAt, now))
}

// EngagementRate returns (likes+comments+shares)/views as a percentage,
// zero when the item has no views.
func (r *Ranking) EngagementRate(c Counters) float64 {
	if c.Views == 0 {
		return 0
	}
	return float64(c.Likes+c.Comments+c.Shares) / float64(c.Views) * 100
}

// CompletionRate returns the share of views that reached the completion
// threshold, as a percentage. totalViews of zero yields zero.
func (r *Ranking) CompletionRate(completedViews, totalViews int64) float64 {
	if totalViews == 0 {
		return 0
	}
	return float64(completedViews) / float64(totalViews) * 100
}

// Stale reports whether a score computed at scoredAt needs a lazy
// recompute as of now.
func (r *Ranking) Stale(scoredAt, now time.Time) bool {
	return now.Sub(scoredAt) > r.cfg.ScoreStaleness
}

// recency is 1 at publication, fading linearly to 0 over the configured
// window. Items published "in the future" (clock skew) are treated as
// brand new.
func (r *Ranking) recency(publishedAt, now time.Time) float64 {
	age := now.Sub(publishedAt)
	if age < 0 {
		age = 0
	}
	f := 1 - age.Seconds()/r.cfg.RecencyWindow.Seconds()
	if f < 0 {
		return 0
	}
	return f
}

func normalized(x int64) float64 {
	return math.Log10(float64(x) + 1)
}
