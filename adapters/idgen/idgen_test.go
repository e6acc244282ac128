package idgen_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/artpar/gymdesk/adapters/idgen"
	"github.com/google/uuid"
)

func TestUUID_New(t *testing.T) {
	gen := idgen.NewUUID(idgen.PrefixMember)

	id := gen.New()
	if !strings.HasPrefix(id, "mem_") {
		t.Fatalf("id = %q, want mem_ prefix", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "mem_")); err != nil {
		t.Errorf("id suffix is not a UUID: %v", err)
	}
	if gen.New() == id {
		t.Error("ids should be unique")
	}
}

func TestSequential(t *testing.T) {
	gen := idgen.NewSequential("pay_")

	for _, want := range []string{"pay_1", "pay_2", "pay_3"} {
		if got := gen.New(); got != want {
			t.Errorf("New() = %q, want %q", got, want)
		}
	}

	gen.Reset()
	if got := gen.New(); got != "pay_1" {
		t.Errorf("after Reset, New() = %q, want pay_1", got)
	}
}

func TestSequential_Concurrent(t *testing.T) {
	gen := idgen.NewSequential("")

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.New()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 100 {
		t.Errorf("unique ids = %d, want 100", len(seen))
	}
}
