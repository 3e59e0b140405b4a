package scene

import "testing"

func TestComposeNested(t *testing.T) {
	outer := Transform{Offset: Vec2{10, 10}, Scale: 2}
	inner := Transform{Offset: Vec2{5, 5}, Scale: 1.5}
	local := Transform{Offset: Vec2{2, 2}, Scale: 1}

	abs := Identity().Compose(outer).Compose(inner).Compose(local)

	if abs.Offset != (Vec2{26, 26}) {
		t.Errorf("offset = %v, want {26 26}", abs.Offset)
	}
	if abs.Scale != 3 {
		t.Errorf("scale = %v, want 3", abs.Scale)
	}
}

func TestComposeIdentity(t *testing.T) {
	tr := Transform{Offset: Vec2{-3.5, 7.25}, Scale: 0.5}
	if got := Identity().Compose(tr); got != tr {
		t.Errorf("Identity().Compose(t) = %v, want %v", got, tr)
	}
	if got := tr.Compose(Identity()); got != tr {
		t.Errorf("t.Compose(Identity()) = %v, want %v", got, tr)
	}
}

func TestComposeDoesNotRound(t *testing.T) {
	parent := Transform{Offset: Vec2{0.3, 0.3}, Scale: 1.5}
	got := parent.Compose(Transform{Offset: Vec2{0.3, 0}, Scale: 1})
	want := Vec2{0.3 + 0.3*1.5, 0.3}
	if got.Offset != want {
		t.Errorf("offset = %v, want %v", got.Offset, want)
	}
}

func TestSnapAndReset(t *testing.T) {
	tr := Transform{Offset: Vec2{1.5, -2.5}, Scale: 3}
	tr.Snap()
	if tr.Offset != (Vec2{2, -3}) {
		t.Errorf("Snap() offset = %v, want {2 -3}", tr.Offset)
	}
	if tr.Scale != 3 {
		t.Error("Snap() must not touch scale")
	}

	tr.Reset()
	if tr != Identity() {
		t.Errorf("Reset() = %v, want identity", tr)
	}
}
