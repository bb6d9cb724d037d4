package queue

import "testing"

func TestWaitFlagsLegalTransitions(t *testing.T) {
	var f WaitFlags

	f.Set(PhaseIntendToBlock)
	if !f.TryChangeAcquire(PhaseIntendToBlock, PhaseBlocked) {
		t.Fatalf("blocker should be able to observe its own intend-to-block")
	}
	if f.Get() != PhaseBlocked {
		t.Fatalf("expected phase BLOCKED, got %v", f.Get())
	}

	if !f.TryChangeRelease(PhaseBlocked, PhaseReadyAgain) {
		t.Fatalf("waker should be able to move BLOCKED -> READY_AGAIN")
	}
}

func TestWaitFlagsRacingWakerWins(t *testing.T) {
	var f WaitFlags
	f.Set(PhaseIntendToBlock)

	if !f.TryChangeRelease(PhaseIntendToBlock, PhaseReadyAgain) {
		t.Fatalf("waker racing the blocker should win the CAS")
	}
	if f.TryChangeAcquire(PhaseIntendToBlock, PhaseBlocked) {
		t.Fatalf("blocker's CAS must fail once a waker already advanced the phase")
	}
	if f.Get() != PhaseReadyAgain {
		t.Fatalf("expected phase READY_AGAIN, got %v", f.Get())
	}
}

func TestWaitFlagsClassIndependentOfPhase(t *testing.T) {
	var f WaitFlags
	f.SetClass(ClassObject)
	f.Set(PhaseIntendToBlock)
	f.TryChangeAcquire(PhaseIntendToBlock, PhaseBlocked)

	if f.GetClass() != ClassObject {
		t.Fatalf("class must be unaffected by phase transitions")
	}
}
