package oioproxy

import (
	"sync"
	"time"
)

// Task is one periodic unit of work registered on a TaskQueue.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(now time.Time)

	nextFire time.Time
}

// TaskQueue is a cooperative periodic-task engine: a single background
// goroutine ticks once a second, and on each tick runs every registered
// task whose interval has elapsed (spec §4.3). Three named instances are
// wired by the proxy: "admin" (cache expire/purge passes), "upstream"
// (push-queue drains), and "downstream" (pool reloads). Grounded in the
// teacher's AdminListener/Router goroutine-per-component shape
// (adminlistener.go, router.go), generalized here into a named,
// independently startable/stoppable background loop rather than an HTTP
// listener.
type TaskQueue struct {
	id string

	mu    sync.Mutex
	tasks map[string]*Task

	stop chan struct{}
	done chan struct{}
	now  func() time.Time

	running *expvarBool
}

// expvarBool is the minimal mutex-guarded flag TaskQueue needs for its
// /status reporting; it is not published through expvar.
type expvarBool struct {
	mu sync.Mutex
	v  bool
}

func (b *expvarBool) Set(v bool) {
	b.mu.Lock()
	b.v = v
	b.mu.Unlock()
}

func (b *expvarBool) Get() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.v
}

// NewTaskQueue returns a TaskQueue identified by id, not yet started.
func NewTaskQueue(id string) *TaskQueue {
	return &TaskQueue{
		id:      id,
		tasks:   make(map[string]*Task),
		now:     time.Now,
		running: &expvarBool{},
	}
}

// Register adds or replaces a named periodic task. interval <= 0 means
// the task only runs when explicitly triggered via Fire/FireAll (spec
// §4.3: "period = 0 means 'only on explicit fire'"); it stays dormant
// through every tick until then. Safe to call before or after Run.
func (q *TaskQueue) Register(name string, interval time.Duration, run func(now time.Time)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task := &Task{Name: name, Interval: interval, Run: run}
	if interval > 0 {
		task.nextFire = q.now().Add(interval)
	}
	q.tasks[name] = task
}

// Fire runs a single named task immediately, regardless of its schedule,
// and reschedules its next tick from now (spec §4.3's "fire" operation
// for manual/administrative triggering).
func (q *TaskQueue) Fire(name string) bool {
	q.mu.Lock()
	task, ok := q.tasks[name]
	q.mu.Unlock()
	if !ok {
		return false
	}
	now := q.now()
	task.Run(now)
	q.mu.Lock()
	task.nextFire = now.Add(task.Interval)
	q.mu.Unlock()
	return true
}

// FireAll immediately runs every registered task once, regardless of
// schedule, and reschedules each one's next tick from now. Used at
// startup to populate caches synchronously before the first tick would
// otherwise fire (spec §4.3: "fire() ... used at startup to populate
// caches synchronously").
func (q *TaskQueue) FireAll() {
	q.mu.Lock()
	tasks := make([]*Task, 0, len(q.tasks))
	for _, task := range q.tasks {
		tasks = append(tasks, task)
	}
	q.mu.Unlock()

	now := q.now()
	for _, task := range tasks {
		task.Run(now)
		q.mu.Lock()
		task.nextFire = now.Add(task.Interval)
		q.mu.Unlock()
	}
}

// Run starts the background tick loop. Run blocks until Stop is called;
// callers typically invoke it in its own goroutine.
func (q *TaskQueue) Run() {
	q.mu.Lock()
	if q.stop != nil {
		q.mu.Unlock()
		return
	}
	q.stop = make(chan struct{})
	q.done = make(chan struct{})
	q.mu.Unlock()
	q.running.Set(true)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	defer close(q.done)
	defer q.running.Set(false)

	for {
		select {
		case <-q.stop:
			return
		case t := <-ticker.C:
			q.tick(t)
		}
	}
}

func (q *TaskQueue) tick(now time.Time) {
	q.mu.Lock()
	var due []*Task
	for _, task := range q.tasks {
		if task.Interval <= 0 {
			// Dormant: only Fire/FireAll may run this task.
			continue
		}
		if !now.Before(task.nextFire) {
			task.nextFire = now.Add(task.Interval)
			due = append(due, task)
		}
	}
	q.mu.Unlock()

	for _, task := range due {
		func() {
			defer func() {
				if r := recover(); r != nil {
					Log.Error("task panicked", "queue", q.id, "task", task.Name, "recover", r)
				}
			}()
			task.Run(now)
		}()
	}
}

// Stop signals the loop to exit and waits for it to do so. Safe to call
// on a queue that was never started.
func (q *TaskQueue) Stop() {
	q.mu.Lock()
	stop := q.stop
	done := q.done
	q.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Join blocks until the background loop has exited, without requesting
// it to stop (spec §4.3's "join" for graceful shutdown coordination).
func (q *TaskQueue) Join() {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()
	if done == nil {
		return
	}
	<-done
}

// Destroy stops the queue and discards every registered task.
func (q *TaskQueue) Destroy() {
	q.Stop()
	q.mu.Lock()
	q.tasks = make(map[string]*Task)
	q.mu.Unlock()
}

// Running reports whether the background loop is currently active.
func (q *TaskQueue) Running() bool {
	return q.running.Get()
}
