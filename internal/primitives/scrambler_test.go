package primitives

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestDescrambleSectorInvolution(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	sector := make([]byte, 2352)
	r.Read(sector)

	once := DescrambleSector(sector)
	twice := DescrambleSector(once)

	if !bytes.Equal(twice, sector) {
		t.Fatalf("descramble is not involutive")
	}
}

func TestDescrambleSectorLeavesSyncUntouched(t *testing.T) {
	sector := make([]byte, 2352)
	for i := range sector {
		sector[i] = 0xAA
	}
	out := DescrambleSector(sector)
	for i := 0; i < 12; i++ {
		if out[i] != 0xAA {
			t.Fatalf("byte %d of sync region was modified", i)
		}
	}
}
