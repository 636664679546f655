package address

import "testing"

func TestDerive_Deterministic(t *testing.T) {
	a := ForManager("Eng")
	b := ForManager("Eng")
	if a != b {
		t.Errorf("same seeds produced different addresses: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("address length = %d, want 64 hex chars", len(a))
	}
}

func TestDerive_DistinctSeeds(t *testing.T) {
	if ForManager("Eng") == ForManager("Ops") {
		t.Error("different names produced the same manager address")
	}
	if ForManager("Eng") == ForUser("Eng") {
		t.Error("different record types produced the same address")
	}
}

func TestDerive_LengthPrefixing(t *testing.T) {
	// ("ab","c") must differ from ("a","bc")
	a := Derive([]byte("ab"), []byte("c"))
	b := Derive([]byte("a"), []byte("bc"))
	if a == b {
		t.Error("length prefixing failed: concatenation-ambiguous seeds collided")
	}
}

func TestForPackage_NonceDistinguishes(t *testing.T) {
	manager := ForManager("Eng")
	if ForPackage(manager, "alice", 0) == ForPackage(manager, "alice", 1) {
		t.Error("different nonces produced the same package address")
	}
	if ForPackage(manager, "alice", 0) == ForPackage(manager, "bob", 0) {
		t.Error("different owners produced the same package address")
	}
}
