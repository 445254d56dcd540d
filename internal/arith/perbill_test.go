package arith

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestPerbillFromPercent(t *testing.T) {
	if got := PerbillFromPercent(15); got.Parts() != 150_000_000 {
		t.Fatalf("15%% parts = %d", got.Parts())
	}
	if got := PerbillFromPercent(250); got != PerbillOne {
		t.Fatalf("percent above 100 should saturate, got %d", got.Parts())
	}
}

func TestPerbillFromRational(t *testing.T) {
	cases := []struct {
		p, q uint64
		want uint32
	}{
		{p: 1100, q: 1100, want: billion},
		{p: 450, q: 825, want: 545_454_545},
		{p: 1, q: 3, want: 333_333_333},
		{p: 5, q: 2, want: billion},
		{p: 0, q: 0, want: 0},
		{p: 0, q: 7, want: 0},
	}
	for _, tc := range cases {
		got := PerbillFromRational(uint256.NewInt(tc.p), uint256.NewInt(tc.q))
		if got.Parts() != tc.want {
			t.Fatalf("%d/%d: got %d want %d", tc.p, tc.q, got.Parts(), tc.want)
		}
	}
}

func TestPerbillMulTruncates(t *testing.T) {
	half := PerbillFromPercent(50)
	third := PerbillFromRational(uint256.NewInt(1), uint256.NewInt(3))
	if got := half.Mul(third); got.Parts() != 166_666_666 {
		t.Fatalf("product parts = %d", got.Parts())
	}
}

func TestPerbillApplyRounding(t *testing.T) {
	reserve := uint256.NewInt(502_512_563)
	ninety := PerbillFromPercent(90)

	if got := ninety.Apply(reserve, RoundDown); got.Uint64() != 452_261_306 {
		t.Fatalf("floor: %d", got.Uint64())
	}
	if got := ninety.Apply(reserve, RoundNearest); got.Uint64() != 452_261_307 {
		t.Fatalf("nearest: %d", got.Uint64())
	}

	// exact half rounds down in nearest mode
	half := PerbillFromPercent(50)
	if got := half.Apply(uint256.NewInt(3), RoundNearest); got.Uint64() != 1 {
		t.Fatalf("half of 3: %d", got.Uint64())
	}
	if got := PerbillOne.Apply(reserve, RoundDown); !got.Eq(reserve) {
		t.Fatalf("one should be identity")
	}
}

func TestPerbillString(t *testing.T) {
	if got := PerbillFromPercent(20).String(); got != "20%" {
		t.Fatalf("string: %s", got)
	}
	if got := PerbillFromRational(uint256.NewInt(1), uint256.NewInt(8)).String(); got != "12.5%" {
		t.Fatalf("string: %s", got)
	}
}

func TestParseRounding(t *testing.T) {
	if r, err := ParseRounding("Nearest"); err != nil || r != RoundNearest {
		t.Fatalf("nearest: %v %v", r, err)
	}
	if r, err := ParseRounding(""); err != nil || r != RoundDown {
		t.Fatalf("default: %v %v", r, err)
	}
	if _, err := ParseRounding("up"); err == nil {
		t.Fatalf("expected error")
	}
}
