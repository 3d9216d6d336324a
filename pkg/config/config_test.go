package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.RankViewWeight != 0.3 || cfg.RankLikeWeight != 0.4 {
		t.Fatalf("default rank weights = %v/%v, want 0.3/0.4", cfg.RankViewWeight, cfg.RankLikeWeight)
	}
	if cfg.ScoreStaleness != 15*time.Minute {
		t.Fatalf("default score staleness = %v, want 15m", cfg.ScoreStaleness)
	}
	if cfg.ToggleRetries != 3 {
		t.Fatalf("default toggle retries = %d, want 3", cfg.ToggleRetries)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RANK_LIKE_WEIGHT", "0.55")
	t.Setenv("SCORE_STALENESS", "5m")
	t.Setenv("TOGGLE_RETRIES", "7")

	cfg := Load()

	if cfg.RankLikeWeight != 0.55 {
		t.Fatalf("like weight = %v, want 0.55", cfg.RankLikeWeight)
	}
	if cfg.ScoreStaleness != 5*time.Minute {
		t.Fatalf("score staleness = %v, want 5m", cfg.ScoreStaleness)
	}
	if cfg.ToggleRetries != 7 {
		t.Fatalf("toggle retries = %d, want 7", cfg.ToggleRetries)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RANK_VIEW_WEIGHT", "lots")
	t.Setenv("RECONCILE_INTERVAL", "soon")

	cfg := Load()

	if cfg.RankViewWeight != 0.3 {
		t.Fatalf("view weight = %v, want the 0.3 default", cfg.RankViewWeight)
	}
	if cfg.ReconcileInterval != 15*time.Minute {
		t.Fatalf("reconcile interval = %v, want the 15m default", cfg.ReconcileInterval)
	}
}
