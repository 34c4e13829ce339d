package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"

	"omnitask/backend/internal/models"
)

const (
	ReminderQueue     = "omnitask:reminders"
	RetryQueue        = "omnitask:reminders:retry"
	DeadQueue         = "omnitask:reminders:dead"
	SentLogKey        = "omnitask:reminders:sent"
	remindedSetPrefix = "omnitask:reminded:"
)

// ReminderJob tells the worker to surface one due task.
type ReminderJob struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	DueDate   string    `json:"due_date"`
	Attempts  int       `json:"attempts"`
	MaxTries  int       `json:"max_tries"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskLister is the slice of the task store the scheduler needs.
type TaskLister interface {
	Tasks() []models.Task
}

type Config struct {
	RedisClient  *redis.Client
	Store        TaskLister
	Concurrency  int
	PollInterval time.Duration
	ScanInterval time.Duration
}

// Worker drains the reminder queue and records each reminder it delivers.
type Worker struct {
	client       *redis.Client
	store        TaskLister
	concurrency  int
	pollInterval time.Duration
	scanInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func New(config Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if config.Concurrency <= 0 {
		config.Concurrency = 2
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = time.Minute
	}

	return &Worker{
		client:       config.RedisClient,
		store:        config.Store,
		concurrency:  config.Concurrency,
		pollInterval: config.PollInterval,
		scanInterval: config.ScanInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Worker) Start() {
	log.Printf("Starting reminder worker with %d goroutines", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}

	w.wg.Add(1)
	go w.schedulerLoop()
}

func (w *Worker) Stop() {
	log.Println("Stopping reminder worker...")
	w.cancel()
	w.wg.Wait()
	log.Println("Reminder worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if err := w.processNextJob(); err != nil {
				log.Printf("Error processing reminder job: %v", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) schedulerLoop() {
	defer w.wg.Done()

	// Scan once on startup so reminders for already-due tasks are not
	// delayed by a full interval.
	if err := w.ScanDueTasks(w.ctx); err != nil {
		log.Printf("Reminder scan failed: %v", err)
	}

	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.ScanDueTasks(w.ctx); err != nil {
				log.Printf("Reminder scan failed: %v", err)
			}
		}
	}
}

// ScanDueTasks enqueues a reminder for every unfinished task due today.
// A per-day set keeps each task from being reminded more than once.
func (w *Worker) ScanDueTasks(ctx context.Context) error {
	today := time.Now().UTC().Format("2006-01-02")
	setKey := remindedSetPrefix + today

	for _, t := range w.store.Tasks() {
		if t.Status == models.StatusDone || t.IsWishlist {
			continue
		}
		if t.DueDate != today {
			continue
		}

		added, err := w.client.SAdd(ctx, setKey, t.ID.String()).Result()
		if err != nil {
			return fmt.Errorf("failed to mark task as reminded: %w", err)
		}
		if added == 0 {
			continue
		}
		// The set only matters for the current day.
		w.client.Expire(ctx, setKey, 48*time.Hour)

		if err := w.enqueue(ctx, ReminderQueue, &ReminderJob{
			ID:        newJobID(),
			TaskID:    t.ID.String(),
			Title:     t.Title,
			DueDate:   t.DueDate,
			MaxTries:  3,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) processNextJob() error {
	result, err := w.client.BLPop(w.ctx, w.pollInterval, ReminderQueue, RetryQueue).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		if w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop reminder job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	var job ReminderJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal reminder job: %w", err)
	}

	return w.executeJob(&job)
}

func (w *Worker) executeJob(job *ReminderJob) error {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	err := w.deliver(ctx, job)
	if err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			log.Printf("Reminder %s failed (attempt %d/%d), retrying: %v",
				job.ID, job.Attempts, job.MaxTries, err)
			return w.enqueue(ctx, RetryQueue, job)
		}

		log.Printf("Reminder %s failed permanently after %d attempts: %v",
			job.ID, job.Attempts, err)
		return w.moveToDeadQueue(ctx, job, err)
	}

	return nil
}

// deliver records the reminder in the sent log. There is no external
// notification channel; the log is what clients poll.
func (w *Worker) deliver(ctx context.Context, job *ReminderJob) error {
	entry, err := json.Marshal(map[string]interface{}{
		"task_id":  job.TaskID,
		"title":    job.Title,
		"due_date": job.DueDate,
		"sent_at":  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reminder entry: %w", err)
	}

	if err := w.client.RPush(ctx, SentLogKey, entry).Err(); err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}

	log.Printf("Reminder sent for task %s (%q due %s)", job.TaskID, job.Title, job.DueDate)
	return nil
}

func (w *Worker) enqueue(ctx context.Context, queue string, job *ReminderJob) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder job: %w", err)
	}

	return w.client.RPush(ctx, queue, jobData).Err()
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *ReminderJob, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now().UTC(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(ctx, DeadQueue, deadJobData).Err()
}

func newJobID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return id.String()
}

// QueueSize reports how many reminders are waiting. Exported as a gauge on
// the metrics endpoint.
func (w *Worker) QueueSize(ctx context.Context) (int64, error) {
	return w.client.LLen(ctx, ReminderQueue).Result()
}
