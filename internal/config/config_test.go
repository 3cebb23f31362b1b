package config

import "testing"

func TestHasValidOpenAI(t *testing.T) {
	c := &Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: "https://api.openai.com/v1"}
	if !c.HasValidOpenAI() {
		t.Error("expected HasValidOpenAI to be true with both fields set")
	}
}

func TestHasValidOpenAIMissingKey(t *testing.T) {
	c := &Config{OpenAIBaseURL: "https://api.openai.com/v1"}
	if c.HasValidOpenAI() {
		t.Error("expected HasValidOpenAI to be false without an API key")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("MAX_CONCURRENT_JOBS", "12")
	t.Setenv("AI_QUOTA_FREE_LIMIT", "0")

	c := Defaults()
	applyEnvOverrides(c)

	if c.Addr != ":9090" {
		t.Errorf("Addr = %q, want %q", c.Addr, ":9090")
	}
	if c.MaxConcurrentJobs != 12 {
		t.Errorf("MaxConcurrentJobs = %d, want 12", c.MaxConcurrentJobs)
	}
	if c.AIQuotaFreeLimit != 0 {
		t.Errorf("AIQuotaFreeLimit = %d, want 0 (explicit zero override honored)", c.AIQuotaFreeLimit)
	}
}

func TestApplyEnvOverridesLeavesDefaultsWhenUnset(t *testing.T) {
	c := Defaults()
	applyEnvOverrides(c)
	if c.Addr != ":8080" {
		t.Errorf("Addr = %q, want default %q", c.Addr, ":8080")
	}
}

func TestGetEnvIntInvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("SOME_BOGUS_INT_VAR", "not-a-number")
	if got := getEnvInt("SOME_BOGUS_INT_VAR", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want default 7", got)
	}
}
