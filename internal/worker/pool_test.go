package worker

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsEverySubmittedTask(t *testing.T) {
	p := NewPool(3)
	var n atomic.Int32
	for i := 0; i < 50; i++ {
		if !p.Submit(func() { n.Add(1) }) {
			t.Fatal("submit rejected before Stop")
		}
	}
	p.Stop()
	if got := n.Load(); got != 50 {
		t.Fatalf("ran %d tasks, want 50", got)
	}
}

func TestPoolSurvivesPanicsAndRejectsAfterStop(t *testing.T) {
	p := NewPool(1)
	var ran atomic.Bool
	p.Submit(func() { panic("boom") })
	p.Submit(func() { ran.Store(true) })
	p.Stop()
	if !ran.Load() {
		t.Fatal("task after panic did not run")
	}
	if p.Submit(func() {}) {
		t.Fatal("submit accepted after Stop")
	}
	p.Stop()
}

func TestPoolSubmitDoesNotBlockWhenFull(t *testing.T) {
	p := newPool(1, 1)
	started := make(chan struct{})
	release := make(chan struct{})
	if !p.Submit(func() { close(started); <-release }) {
		t.Fatal("first submit rejected")
	}
	<-started
	if !p.Submit(func() {}) {
		t.Fatal("queued submit rejected while a slot was free")
	}

	done := make(chan bool, 1)
	go func() { done <- p.Submit(func() {}) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("submit accepted with a full queue")
		}
	case <-time.After(time.Second):
		t.Fatal("submit blocked on a full queue")
	}

	close(release)
	p.Stop()
}
