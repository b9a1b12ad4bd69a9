package workers

import (
	"log"
	"sync"

	"github.com/camden-git/facenotebackend/models"
)

// StateStore is the narrow slice of the person repository the writer needs.
type StateStore interface {
	UpdateMemorizationState(id string, state models.MemorizationState, streak int) error
}

type StateJob struct {
	PersonID string
	State    models.MemorizationState
	Streak   int
}

// StateWriter applies memorization-state updates in the background so
// answering a quiz question never waits on the database. Updates are
// fire-and-forget: the quiz session patches its in-memory snapshot
// optimistically and failures here are logged, not surfaced.
type StateWriter struct {
	JobQueue chan StateJob
	Repo     StateStore
	Wg       sync.WaitGroup
	StopChan chan struct{}
	stopOnce sync.Once
}

func NewStateWriter(repo StateStore, queueSize, numWorkers int) *StateWriter {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	w := &StateWriter{
		JobQueue: make(chan StateJob, queueSize),
		Repo:     repo,
		StopChan: make(chan struct{}),
	}

	w.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go w.worker(i)
	}
	log.Printf("started %d state writer worker(s) with queue size %d", numWorkers, queueSize)
	return w
}

// EnqueueStateUpdate queues a durable write of (state, streak) for a person
func (w *StateWriter) EnqueueStateUpdate(personID string, state models.MemorizationState, streak int) {
	select {
	case w.JobQueue <- StateJob{PersonID: personID, State: state, Streak: streak}:
	case <-w.StopChan:
		log.Printf("state writer stopped, dropping update for person %s", personID)
	}
}

func (w *StateWriter) worker(id int) {
	defer w.Wg.Done()
	for {
		select {
		case job := <-w.JobQueue:
			w.apply(id, job)
		case <-w.StopChan:
			// drain whatever is already queued before exiting
			for {
				select {
				case job := <-w.JobQueue:
					w.apply(id, job)
				default:
					return
				}
			}
		}
	}
}

func (w *StateWriter) apply(workerID int, job StateJob) {
	if err := w.Repo.UpdateMemorizationState(job.PersonID, job.State, job.Streak); err != nil {
		log.Printf("state writer %d: failed to persist state for person %s: %v", workerID, job.PersonID, err)
	}
}

// Stop tells workers to finish queued updates and waits for them to exit
func (w *StateWriter) Stop() {
	w.stopOnce.Do(func() {
		close(w.StopChan)
	})
	w.Wg.Wait()
}
