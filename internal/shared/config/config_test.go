package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8084" {
		t.Errorf("port = %q, want 8084", cfg.Server.Port)
	}
	if cfg.MongoDB.Database != "lease_notifications" {
		t.Errorf("database = %q", cfg.MongoDB.Database)
	}
	if want := []string{"@hourly", "0 9 * * *"}; !reflect.DeepEqual(cfg.Scheduler.Cadences, want) {
		t.Errorf("cadences = %v, want %v", cfg.Scheduler.Cadences, want)
	}
	if cfg.Scheduler.PollInterval != time.Minute {
		t.Errorf("poll interval = %v, want 1m", cfg.Scheduler.PollInterval)
	}
	if cfg.GatewayTimeout != 15*time.Second {
		t.Errorf("gateway timeout = %v, want 15s", cfg.GatewayTimeout)
	}
	if cfg.RateLimit.RequestsPerSecond != 100 || cfg.RateLimit.Burst != 200 {
		t.Errorf("rate limit = %v rps / %d burst", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
}

func TestLoadEnforcesMinPollInterval(t *testing.T) {
	t.Setenv("SCHEDULER_POLL_INTERVAL", "1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scheduler.PollInterval != MinPollInterval {
		t.Errorf("poll interval = %v, want floor %v", cfg.Scheduler.PollInterval, MinPollInterval)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9099")
	t.Setenv("SCHEDULER_CADENCES", "*/30 * * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9099" {
		t.Errorf("port = %q, want 9099", cfg.Server.Port)
	}
	if want := []string{"*/30 * * * *"}; !reflect.DeepEqual(cfg.Scheduler.Cadences, want) {
		t.Errorf("cadences = %v, want %v", cfg.Scheduler.Cadences, want)
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"@hourly,0 9 * * *", []string{"@hourly", "0 9 * * *"}},
		{" a , b ", []string{"a", "b"}},
		{"", nil},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		got := parseList(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseList(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseList(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
