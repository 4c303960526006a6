package shell

import "sync"

// JobStatus is the lifecycle state of a Job (§3).
type JobStatus int

const (
	JobRunning JobStatus = iota
	JobStopped
	JobDone
)

func (s JobStatus) String() string {
	switch s {
	case JobRunning:
		return "Running"
	case JobStopped:
		return "Stopped"
	case JobDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Job is a single pipeline's process group, added once every stage of the
// pipeline has been started. A foreground job is removed as soon as all its
// stages have exited. A background job is marked Done when its stages exit
// and stays in the table until `fg` waits on it; its completion is not
// reported.
type Job struct {
	ID       int
	PGID     int
	Pids     []int
	Cmd      string
	Status   JobStatus
	Report   bool
	Background bool
}

// JobTable is the Shell-owned table of live jobs, keyed by pgid. Every
// method takes mu, because each pipeline's reaper goroutine in the executor
// marks its job Done concurrently with the main thread.
type JobTable struct {
	mu       sync.Mutex
	byPGID   map[int]*Job
	nextID   int
	freeIDs  []int
}

// NewJobTable creates an empty job table.
func NewJobTable() *JobTable {
	return &JobTable{byPGID: make(map[int]*Job), nextID: 1}
}

// Add registers a new job once every stage of its pipeline has been started,
// assigning it the smallest recycled or fresh job id.
func (t *JobTable) Add(pgid int, pids []int, cmd string, background bool) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.allocID()
	j := &Job{ID: id, PGID: pgid, Pids: append([]int(nil), pids...), Cmd: cmd, Status: JobRunning, Background: background}
	t.byPGID[pgid] = j
	return j
}

func (t *JobTable) allocID() int {
	if n := len(t.freeIDs); n > 0 {
		min := 0
		for i := 1; i < n; i++ {
			if t.freeIDs[i] < t.freeIDs[min] {
				min = i
			}
		}
		id := t.freeIDs[min]
		t.freeIDs = append(t.freeIDs[:min], t.freeIDs[min+1:]...)
		return id
	}
	id := t.nextID
	t.nextID++
	return id
}

// Remove drops a job from the table and recycles its id. The executor calls
// it once every stage of a foreground job, or of a job resumed with `fg`,
// has exited.
func (t *JobTable) Remove(pgid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.byPGID[pgid]
	if !ok {
		return
	}
	delete(t.byPGID, pgid)
	t.freeIDs = append(t.freeIDs, j.ID)
}

// Get looks up a job by its process-group id.
func (t *JobTable) Get(pgid int) (*Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.byPGID[pgid]
	return j, ok
}

// ByID looks up a job by its shell-visible job number.
func (t *JobTable) ByID(id int) (*Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.byPGID {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

// List returns a snapshot of all live jobs, ordered by id.
func (t *JobTable) List() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, 0, len(t.byPGID))
	for _, j := range t.byPGID {
		out = append(out, j)
	}
	for i := 1; i < len(out); i++ {
		for k := i; k > 0 && out[k-1].ID > out[k].ID; k-- {
			out[k-1], out[k] = out[k], out[k-1]
		}
	}
	return out
}

// SetStatus updates a job's lifecycle state in place.
func (t *JobTable) SetStatus(pgid int, s JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.byPGID[pgid]; ok {
		j.Status = s
	}
}

// Len reports the number of live jobs.
func (t *JobTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byPGID)
}
