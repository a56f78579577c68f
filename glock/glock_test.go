package glock

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestID_StableAndOpaque(t *testing.T) {
	a := ID("yaml-storer", "/data/roster.yaml")
	b := ID("yaml-storer", "/data/roster.yaml")
	c := ID("yaml-storer", "/data/other.yaml")
	if a != b {
		t.Fatal("ID must be stable for the same parts")
	}
	if a == c {
		t.Fatal("ID must differ for different parts")
	}
	if len(a) != 64 {
		t.Fatalf("expected a hex sha256 digest, got %q", a)
	}
}

func TestWith_ReleasesOnError(t *testing.T) {
	id := ID("test", t.Name())
	sentinel := errors.New("inner failure")
	if err := With(id, Exclusive, func() error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("expected the inner error, got %v", err)
	}
	// The lock must be free again: reacquiring must not block.
	done := make(chan struct{})
	go func() {
		_ = With(id, Exclusive, func() error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock was not released after an error exit")
	}
}

func TestExclusive_MutualExclusion(t *testing.T) {
	id := ID("test", t.Name())
	first, err := New(id, Exclusive)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if err := first.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		second, err := New(id, Exclusive)
		if err == nil {
			if err := second.Acquire(); err == nil {
				acquired.Store(true)
				_ = second.Release()
			}
		}
		close(done)
	}()

	time.Sleep(200 * time.Millisecond)
	if acquired.Load() {
		t.Fatal("second holder acquired an exclusively-held lock")
	}
	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second holder never acquired the released lock")
	}
	if !acquired.Load() {
		t.Fatal("second holder failed to acquire after release")
	}
}

func TestShared_AdmitsOtherReaders(t *testing.T) {
	id := ID("test", t.Name())
	reader, err := New(id, Shared)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if err := reader.Acquire(); err != nil {
		t.Fatalf("acquire shared: %v", err)
	}
	defer func() { _ = reader.Release() }()

	done := make(chan error, 1)
	go func() {
		done <- With(id, Shared, func() error { return nil })
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second reader failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("a shared lock blocked another reader")
	}
}
