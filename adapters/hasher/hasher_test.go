package hasher_test

import (
	"testing"

	"github.com/artpar/gymdesk/adapters/hasher"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndCompare(t *testing.T) {
	h := hasher.NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("S3cret!pass")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if string(hash) == "S3cret!pass" {
		t.Fatal("hash should not equal plaintext")
	}

	if !h.Compare(hash, "S3cret!pass") {
		t.Error("Compare() = false for correct password")
	}
	if h.Compare(hash, "wrong") {
		t.Error("Compare() = true for wrong password")
	}
	if h.Compare([]byte("garbage"), "S3cret!pass") {
		t.Error("Compare() = true for malformed hash")
	}
}

func TestNewBcrypt_CostBounds(t *testing.T) {
	tests := []struct {
		cost int
		want int
	}{
		{0, bcrypt.DefaultCost},
		{bcrypt.MaxCost + 1, bcrypt.DefaultCost},
		{bcrypt.MinCost, bcrypt.MinCost},
		{12, 12},
	}
	for _, tt := range tests {
		if got := hasher.NewBcrypt(tt.cost).Cost(); got != tt.want {
			t.Errorf("NewBcrypt(%d).Cost() = %d, want %d", tt.cost, got, tt.want)
		}
	}
}

func TestBcrypt_NeedsRehash(t *testing.T) {
	low := hasher.NewBcrypt(bcrypt.MinCost)
	hash, _ := low.Hash("pw")

	if low.NeedsRehash(hash) {
		t.Error("same cost should not need rehash")
	}
	if !hasher.NewBcrypt(bcrypt.MinCost + 1).NeedsRehash(hash) {
		t.Error("different cost should need rehash")
	}
	if !low.NeedsRehash([]byte("not a hash")) {
		t.Error("malformed hash should need rehash")
	}
}

func TestFake(t *testing.T) {
	var h hasher.Fake

	hash, _ := h.Hash("pw")
	if !h.Compare(hash, "pw") {
		t.Error("Compare() = false for matching value")
	}
	if h.Compare(hash, "other") {
		t.Error("Compare() = true for different value")
	}
	if h.Compare([]byte("pw"), "pw") {
		t.Error("Compare() should require the fake marker")
	}
}
