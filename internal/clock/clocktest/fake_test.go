package clocktest

import (
	"testing"
	"time"
)

func TestAdvanceFiresInDeadlineOrder(t *testing.T) {
	f := NewFake(time.Unix(100, 0))
	var order []int
	f.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	f.AfterFunc(time.Second, func() { order = append(order, 1) })
	f.AfterFunc(5*time.Second, func() { order = append(order, 5) })

	f.Advance(4 * time.Second)
	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Fatalf("unexpected firing order %v", order)
	}
	if got := f.Now(); !got.Equal(time.Unix(104, 0)) {
		t.Fatalf("now = %v", got)
	}
	if p := f.Pending(); len(p) != 1 || !p[0].Equal(time.Unix(105, 0)) {
		t.Fatalf("pending = %v", p)
	}
}

func TestCallbackMayRearm(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	fired := 0
	var arm func()
	arm = func() {
		fired++
		f.AfterFunc(time.Second, arm)
	}
	f.AfterFunc(time.Second, arm)

	f.Advance(3 * time.Second)
	if fired != 3 {
		t.Fatalf("fired %d times, want 3", fired)
	}
}

func TestStopPreventsFiring(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	tm := f.AfterFunc(time.Second, func() { t.Fatal("stopped timer fired") })
	if !tm.Stop() {
		t.Fatal("expected Stop to report a pending timer")
	}
	if tm.Stop() {
		t.Fatal("second Stop must report false")
	}
	f.Advance(time.Minute)
}

func TestZeroDelayFiresOnZeroAdvance(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	fired := false
	f.AfterFunc(0, func() { fired = true })
	f.Advance(0)
	if !fired {
		t.Fatal("zero-delay timer should fire on Advance(0)")
	}
}
