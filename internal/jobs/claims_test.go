package jobs

import (
	"sync"
	"testing"
)

func TestClaimTable_AcquireRelease(t *testing.T) {
	claims := NewClaimTable()

	if !claims.Acquire("owner/repo#1") {
		t.Fatal("first acquire should succeed")
	}
	if claims.Acquire("owner/repo#1") {
		t.Fatal("second acquire for the same key should fail")
	}
	if !claims.Acquire("owner/repo#2") {
		t.Fatal("acquire for a different key should succeed")
	}

	claims.Release("owner/repo#1")
	if !claims.Acquire("owner/repo#1") {
		t.Fatal("acquire after release should succeed")
	}
}

func TestClaimTable_ReleaseUnheldIsNoop(t *testing.T) {
	claims := NewClaimTable()
	claims.Release("never-held")
	if claims.Held("never-held") {
		t.Fatal("key should not be held")
	}
}

func TestClaimTable_ConcurrentAcquireAdmitsExactlyOne(t *testing.T) {
	claims := NewClaimTable()

	const goroutines = 50
	var wg sync.WaitGroup
	acquired := make(chan struct{}, goroutines)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if claims.Acquire("contested") {
				acquired <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(acquired)

	count := 0
	for range acquired {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one successful acquire, got %d", count)
	}
}
