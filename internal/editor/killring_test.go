package editor

import "testing"

func TestKillRingPushCapacity(t *testing.T) {
	k := NewKillRing()
	for i := 0; i < defaultKillRingCap+5; i++ {
		k.Push(string(rune('a' + i%26)))
	}
	if k.Len() != defaultKillRingCap {
		t.Fatalf("Len() = %d, want %d", k.Len(), defaultKillRingCap)
	}
}

func TestKillRingRotateIdempotence(t *testing.T) {
	k := NewKillRing()
	k.Push("one")
	k.Push("two")
	k.Push("three")

	front, _ := k.Front()
	if front != "three" {
		t.Fatalf("initial front = %q, want three", front)
	}

	for i := 0; i < k.Len(); i++ {
		k.Rotate()
	}
	front, _ = k.Front()
	if front != "three" {
		t.Fatalf("after full rotation front = %q, want three", front)
	}
}

func TestKillRingAppendPrepend(t *testing.T) {
	k := NewKillRing()
	k.Push("bc")
	k.Prepend("a")
	k.Append("d")
	front, ok := k.Front()
	if !ok || front != "abcd" {
		t.Fatalf("front = %q, want abcd", front)
	}
}

func TestYankPopCyclesBackToOriginal(t *testing.T) {
	e := New(nil, nil, nil)
	e.buffer = "hello world"
	e.killRing.Push("alpha")
	e.killRing.Push("beta")
	e.killRing.Push("gamma")

	e.cursor = 0
	if err := e.cmdYank(1, 0); err != nil {
		t.Fatal(err)
	}
	if e.buffer[:len("gamma")] != "gamma" {
		t.Fatalf("after yank, buffer = %q", e.buffer)
	}

	n := e.killRing.Len()
	for i := 0; i < n; i++ {
		if err := e.cmdYankPop(1, 0); err != nil {
			t.Fatal(err)
		}
	}
	if e.buffer[:len("gamma")] != "gamma" {
		t.Fatalf("after full yank-pop cycle, buffer = %q, want prefix gamma", e.buffer)
	}
}
