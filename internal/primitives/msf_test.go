package primitives

import "testing"

func TestMSFRoundTrip(t *testing.T) {
	for h := byte(0); h < 2; h++ {
		for m := byte(0); m < 60; m++ {
			for s := byte(0); s < 60; s += 7 { // stride to keep the test fast
				for f := byte(0); f < 75; f += 11 {
					lba := MSFToLBA(h, m, s, f)
					got := LBAToMSF(lba)
					want := MSF{Hour: h, Min: m, Sec: s, Frame: f}
					if got != want {
						t.Fatalf("round trip (%d,%d,%d,%d): lba=%d got=%+v want=%+v", h, m, s, f, lba, got, want)
					}
				}
			}
		}
	}
}

func TestMSFOrigin(t *testing.T) {
	if lba := MSFToLBA(0, 0, 2, 0); lba != 0 {
		t.Fatalf("00:02:00 should be LBA 0, got %d", lba)
	}
	if got := LBAToMSF(0); got != (MSF{Sec: 2}) {
		t.Fatalf("LBA 0 should be 00:02:00, got %+v", got)
	}
}
