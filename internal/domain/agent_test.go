package domain

import "testing"

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		base     uint64
		decimals uint8
		want     string
	}{
		{50_000_000_000, 9, "50"},
		{75_000_000_000, 9, "75"},
		{1250, 2, "12.5"},
		{1, 9, "0.000000001"},
		{0, 9, "0"},
		{42, 0, "42"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.base, tc.decimals); got != tc.want {
			t.Errorf("FormatAmount(%d, %d) = %q, want %q", tc.base, tc.decimals, got, tc.want)
		}
	}
}

func TestErrorTxIDPropagation(t *testing.T) {
	err := NewEventAppendFailed("sig-1", NewNotFound("a1"))
	if TxIDOf(err) != "sig-1" {
		t.Fatalf("TxIDOf = %q", TxIDOf(err))
	}
	if !IsKind(err, KindEventAppendFailed) {
		t.Fatalf("kind = %q", KindOf(err))
	}
	if IsKind(err, KindNotFound) {
		t.Fatalf("outer kind must win over the wrapped cause")
	}
}
