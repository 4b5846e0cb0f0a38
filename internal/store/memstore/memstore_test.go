package memstore

import (
    "fmt"
    "testing"
    "time"
)

func TestSetGet_RoundTripAndCopy(t *testing.T) {
    s := New()
    val := []byte("hello")
    if err := s.Set(t.Context(), "k", val, time.Minute); err != nil {
        t.Fatal(err)
    }
    val[0] = 'X' // caller mutating its slice must not reach the store

    got, ok, err := s.Get(t.Context(), "k")
    if err != nil || !ok {
        t.Fatalf("ok=%v err=%v", ok, err)
    }
    if string(got) != "hello" {
        t.Fatalf("got %q", got)
    }
}

func TestGet_MissAndExpiry(t *testing.T) {
    s := New()
    if _, ok, _ := s.Get(t.Context(), "absent"); ok {
        t.Fatal("unexpected hit")
    }

    if err := s.Set(t.Context(), "k", []byte("v"), 10*time.Millisecond); err != nil {
        t.Fatal(err)
    }
    time.Sleep(20 * time.Millisecond)
    if _, ok, _ := s.Get(t.Context(), "k"); ok {
        t.Fatal("entry served past its ttl")
    }
}

func TestSet_ZeroTTLKeepsEntry(t *testing.T) {
    s := New()
    if err := s.Set(t.Context(), "k", []byte("v"), 0); err != nil {
        t.Fatal(err)
    }
    if _, ok, _ := s.Get(t.Context(), "k"); !ok {
        t.Fatal("zero-ttl entry dropped")
    }
}

func TestSet_MaxItemsCapsSize(t *testing.T) {
    s := New()
    s.MaxItems = 5
    for i := 0; i < 20; i++ {
        if err := s.Set(t.Context(), fmt.Sprintf("k%d", i), []byte("v"), time.Minute); err != nil {
            t.Fatal(err)
        }
    }
    s.mu.RLock()
    n := len(s.items)
    s.mu.RUnlock()
    if n > 5 {
        t.Fatalf("store holds %d items, cap is 5", n)
    }
}
