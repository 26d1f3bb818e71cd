package model

import "testing"

func TestNewPendingKey_OrderIndependent(t *testing.T) {
	a := NewPendingKey("dc-a", "addr-1", []string{"s2", "s1"})
	b := NewPendingKey("dc-a", "addr-1", []string{"s1", "s2"})
	if a != b {
		t.Fatalf("expected equal keys regardless of subscriber order, got %v vs %v", a, b)
	}
}

func TestNewPendingKey_DistinctSubscriberSets(t *testing.T) {
	a := NewPendingKey("dc-a", "addr-1", []string{"s1"})
	b := NewPendingKey("dc-a", "addr-1", []string{"s1", "s2"})
	if a == b {
		t.Fatalf("expected distinct keys for distinct subscriber sets")
	}
}

func TestPushingKey_Equality(t *testing.T) {
	a := PushingKey{DataInfoID: "SPX", Addr: "addr-1", Scope: ScopeZone, AssembleType: AssembleFull, ClientVersion: "v1"}
	b := PushingKey{DataInfoID: "SPX", Addr: "addr-1", Scope: ScopeZone, AssembleType: AssembleFull, ClientVersion: "v1"}
	if a != b {
		t.Fatalf("expected identical field values to compare equal")
	}
}
