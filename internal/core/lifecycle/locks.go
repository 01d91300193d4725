package lifecycle

import "sync"

// projectLocks 进程内按项目加锁, 同一项目的重新部署与落库不会交错
type projectLocks struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[int64]*lockEntry)}
}

// Lock 阻塞直到获得项目锁, 返回解锁函数
func (l *projectLocks) Lock(projectID int64) func() {
	l.mu.Lock()
	e, ok := l.locks[projectID]
	if !ok {
		e = &lockEntry{}
		l.locks[projectID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, projectID)
		}
		l.mu.Unlock()
	}
}
