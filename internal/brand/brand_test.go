package brand

import "testing"

func TestFromID(t *testing.T) {
	cases := []struct {
		id   int16
		want string
	}{
		{32, "BlackShark"},
		{11, "Realme"},
		{-86, "Hisense"},
		{200, "Unknown(200)"},
		{10, "Oppo"},
		{19, "Oppo"},
		{30, "Xiaomi"},
		{-96, "Rog"},
		{160, "Rog"},
		{-95, "Asus"},
		{-87, "Asus"},
		{161, "Asus"},
		{169, "Asus"},
		{170, "Hisense"},
		{179, "Hisense"},
		{140, "Honor"},
	}
	for _, c := range cases {
		got := FromID(c.id).String()
		if got != c.want {
			t.Errorf("FromID(%d) = %q, want %q", c.id, got, c.want)
		}
	}
}

func TestUnknownIsUnknown(t *testing.T) {
	b := FromID(500)
	if b.IsKnown() {
		t.Fatal("500 should not map to a known brand")
	}
	if b.ID() != 500 {
		t.Fatalf("ID() = %d, want 500", b.ID())
	}
}

func TestCapabilityByte(t *testing.T) {
	b := FromID(0x1E) // 30 decimal -> Xiaomi
	if b.CapabilityByte() != 0x1E {
		t.Fatalf("CapabilityByte() = %x, want 1e", b.CapabilityByte())
	}
}
