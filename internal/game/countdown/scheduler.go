package countdown

import (
	"sync"
	"time"
)

// DefaultInterval 倒计时步长
const DefaultInterval = time.Second

// task 一个房间的倒计时任务
type task struct {
	gen  uint64
	stop chan struct{}
	once sync.Once
}

func (t *task) cancel() {
	t.once.Do(func() { close(t.stop) })
}

// Scheduler 按房间号管理倒计时，每个房间最多一个活动任务
type Scheduler struct {
	interval time.Duration
	tasks    map[string]*task
	gen      uint64
	mu       sync.Mutex
}

// NewScheduler 创建调度器，interval <= 0 时使用 DefaultInterval
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		tasks:    make(map[string]*task),
	}
}

// Start 启动倒计时：每个步长剩余秒数减一并回调 onTick，归零时调用一次 onExpire。
// 同一房间已有任务时先取消旧任务。
func (s *Scheduler) Start(roomID string, seconds int, onTick func(remaining int), onExpire func()) {
	s.mu.Lock()
	if old, ok := s.tasks[roomID]; ok {
		old.cancel()
	}
	s.gen++
	t := &task{gen: s.gen, stop: make(chan struct{})}
	s.tasks[roomID] = t
	s.mu.Unlock()

	go s.run(roomID, t, seconds, onTick, onExpire)
}

func (s *Scheduler) run(roomID string, t *task, seconds int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	remaining := seconds
	for remaining > 0 {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			remaining--
			if !s.isCurrent(roomID, t) {
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}

	// 只有仍登记在册的任务才能触发到期回调
	if !s.release(roomID, t) {
		return
	}
	if onExpire != nil {
		onExpire()
	}
}

func (s *Scheduler) isCurrent(roomID string, t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[roomID]
	return ok && cur.gen == t.gen
}

// release 将到期任务移出登记表，返回 false 表示任务已被取消或替换
func (s *Scheduler) release(roomID string, t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[roomID]
	if !ok || cur.gen != t.gen {
		return false
	}
	delete(s.tasks, roomID)
	t.cancel()
	return true
}

// Cancel 取消房间倒计时，未知或已结束的任务直接忽略
func (s *Scheduler) Cancel(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[roomID]; ok {
		t.cancel()
		delete(s.tasks, roomID)
	}
}

// Active 房间是否有正在运行的倒计时
func (s *Scheduler) Active(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[roomID]
	return ok
}

// Stop 取消所有倒计时
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for roomID, t := range s.tasks {
		t.cancel()
		delete(s.tasks, roomID)
	}
}
