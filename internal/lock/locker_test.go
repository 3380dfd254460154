package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var mu sync.Mutex
	active := 0
	maxActive := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, Key("lock:sales", "P1"))
			if err != nil {
				t.Errorf("lock failed: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxActive != 1 {
		t.Fatalf("same key should be serialized, max concurrent=%d", maxActive)
	}
	if len(locker.locks) != 0 {
		t.Fatalf("lock entries should be released, got %d", len(locker.locks))
	}
}

func TestLocalLockerDifferentKeysIndependent(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()
	unlockA, err := locker.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("lock a failed: %v", err)
	}
	defer unlockA()

	timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Lock(timeoutCtx, "b")
	if err != nil {
		t.Fatalf("lock b should not block on a: %v", err)
	}
	unlockB()
}

func TestLocalLockerContextCancel(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "busy")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "busy"); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}
}
