package blockchain

import "testing"

func TestEndpointPool_Circular(t *testing.T) {
	p := NewEndpointPool([]string{"a", "b", "c"})

	if p.Size() != 3 {
		t.Fatalf("size = %d, want 3", p.Size())
	}
	if p.Current() != "a" {
		t.Fatalf("current = %q, want a", p.Current())
	}
	if p.Next() != "b" {
		t.Fatal("first advance should land on b")
	}
	if p.Next() != "c" {
		t.Fatal("second advance should land on c")
	}
	if p.Next() != "a" {
		t.Fatal("cursor must wrap around")
	}
	if p.Current() != "a" {
		t.Fatal("Current must not advance")
	}
}

func TestEndpointPool_Empty(t *testing.T) {
	p := NewEndpointPool(nil)
	if p.Current() != "" || p.Next() != "" {
		t.Fatal("empty pool must return empty endpoints")
	}
}

func TestEndpointPool_CopiesInput(t *testing.T) {
	urls := []string{"a", "b"}
	p := NewEndpointPool(urls)
	urls[0] = "mutated"
	if p.Current() != "a" {
		t.Fatal("pool must not observe caller mutation")
	}
}
