package privacy

import "testing"

func TestHashDeterministic(t *testing.T) {
	a := HashID("1:12345")
	b := HashID("1:12345")
	if a != b {
		t.Fatalf("same input produced different digests: %s vs %s", a, b)
	}
}

func TestHashLength(t *testing.T) {
	if got := HashID("station-42"); len(got) != 10 {
		t.Fatalf("digest length: got %d, want 10 hex chars", len(got))
	}
}

func TestHashDistinctInputs(t *testing.T) {
	if HashID("user-a") == HashID("user-b") {
		t.Fatalf("distinct inputs collided")
	}
}

func TestHashEmptyInput(t *testing.T) {
	if got := HashID(""); len(got) != 10 {
		t.Fatalf("empty input digest length: %d", len(got))
	}
}
