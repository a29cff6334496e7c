package netio

import "testing"

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ListenBacklog != 128 {
		t.Errorf("ListenBacklog = %d, want 128", cfg.ListenBacklog)
	}
	if cfg.PollTimeoutMs != 1000 {
		t.Errorf("PollTimeoutMs = %d, want 1000", cfg.PollTimeoutMs)
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	cfg := DefaultConfig()
	WithListenBacklog(16)(cfg)
	WithPollTimeoutMs(50)(cfg)

	if cfg.ListenBacklog != 16 {
		t.Errorf("ListenBacklog = %d, want 16", cfg.ListenBacklog)
	}
	if cfg.PollTimeoutMs != 50 {
		t.Errorf("PollTimeoutMs = %d, want 50", cfg.PollTimeoutMs)
	}
}
