package testutil

import (
	"sort"
	"sync"
	"time"
)

// FakeScheduler 可手动推进的时钟 + 定时器。
// AfterFunc 的签名与 storage.Scheduler 一致。
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// NewFakeScheduler 以 start 为当前时间创建调度器
func NewFakeScheduler(start time.Time) *FakeScheduler {
	return &FakeScheduler{now: start}
}

// Now 返回当前虚拟时间，可直接作为 func() time.Time 注入
func (s *FakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AfterFunc 注册一个在虚拟时间 d 之后触发的回调
func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{at: s.now.Add(d), seq: s.seq, fn: f}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// Advance 推进虚拟时间，并在调用方 goroutine 中按到期顺序触发回调。
// 回调在锁外执行，可以再次调用 AfterFunc。
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	var due []*fakeTimer
	live := s.timers[:0]
	for _, t := range s.timers {
		switch {
		case t.stopped || t.fired:
		case !t.at.After(s.now):
			t.fired = true
			due = append(due, t)
		default:
			live = append(live, t)
		}
	}
	s.timers = live
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending 未触发且未取消的定时器数量
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
