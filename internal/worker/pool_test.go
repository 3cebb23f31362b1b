package worker

import "testing"

func newTestPool(maxConcurrent int) *Pool {
	return &Pool{MaxConcurrent: maxConcurrent, running: make(map[string]struct{})}
}

func TestClaimPreventsDoubleDispatch(t *testing.T) {
	p := newTestPool(5)
	if !p.claim("fp1") {
		t.Fatal("first claim should succeed")
	}
	if p.claim("fp1") {
		t.Error("second claim of the same fingerprint should fail")
	}
}

func TestClaimRespectsMaxConcurrent(t *testing.T) {
	p := newTestPool(2)
	if !p.claim("fp1") || !p.claim("fp2") {
		t.Fatal("expected first two claims to succeed")
	}
	if p.claim("fp3") {
		t.Error("expected third claim to fail at MaxConcurrent=2")
	}
}

func TestReleaseFreesSlot(t *testing.T) {
	p := newTestPool(1)
	if !p.claim("fp1") {
		t.Fatal("expected claim to succeed")
	}
	p.release("fp1")
	if !p.claim("fp1") {
		t.Error("expected claim to succeed again after release")
	}
}

func TestFreeSlots(t *testing.T) {
	p := newTestPool(3)
	p.claim("fp1")
	if got := p.freeSlots(); got != 2 {
		t.Errorf("freeSlots = %d, want 2", got)
	}
}
