package deps

import (
	"fmt"
	"sync"
	"testing"
)

func TestDependencyMapLastWriteWins(t *testing.T) {
	m := NewDependencyMap()
	m.Merge(map[string]string{"a": "1.0.0"})
	m.Merge(map[string]string{"a": "2.0.0"})

	if v, _ := m.Get("a"); v != "2.0.0" {
		t.Errorf("a = %q, want 2.0.0", v)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestDependencyMapMergeNormalizes(t *testing.T) {
	m := NewDependencyMap()
	m.Merge(map[string]string{"pad-core": "~1.0.0", "core-utils": "^0.9.0"})

	want := map[string]string{"pad-core": "1.0.0", "core-utils": "0.9.0"}
	got := m.Map()
	if len(got) != len(want) {
		t.Fatalf("Map() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestDependencyMapSpecsSorted(t *testing.T) {
	m := NewDependencyMap()
	m.Set("zeta", "1.0.0")
	m.Set("alpha", "2.0.0")
	m.Set("mid", "3.0.0")

	specs := m.Specs()
	names := []string{specs[0].Name, specs[1].Name, specs[2].Name}
	if names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Errorf("Specs() order = %v", names)
	}
	if specs[0].Version != "2.0.0" {
		t.Errorf("alpha version = %q", specs[0].Version)
	}
}

func TestDependencyMapMapIsCopy(t *testing.T) {
	m := NewDependencyMap()
	m.Set("a", "1.0.0")

	cp := m.Map()
	delete(cp, "a")

	if _, ok := m.Get("a"); !ok {
		t.Error("mutating Map() result must not remove entries")
	}
}

func TestDependencyMapConcurrentWrites(t *testing.T) {
	m := NewDependencyMap()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Set(fmt.Sprintf("pkg-%d", i), "1.0.0")
			m.Merge(map[string]string{"shared": "^1.0.0"})
		}()
	}
	wg.Wait()

	if m.Len() != 51 {
		t.Errorf("Len() = %d, want 51", m.Len())
	}
}
