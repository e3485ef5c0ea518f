// Package jobs wires the asynchronous task queue: report analyses, summary
// mail delivery and the periodic scan of the reports inbox.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue all tasks run on.
	QueueDefault = "default"
	// TaskAnalyzeReport processes one pending analysis run.
	TaskAnalyzeReport = "report:analyze"
	// TaskSendMail delivers the summary email of a ready run.
	TaskSendMail = "mail:send"
	// TaskScanReports enqueues analyses for newly uploaded workbooks.
	TaskScanReports = "report:scan"
)

// AnalyzePayload identifies the run to process.
type AnalyzePayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// MailPayload identifies the run to summarise and its destination. Empty
// recipients fall back to the configured default list.
type MailPayload struct {
	RunID        uuid.UUID `json:"run_id"`
	Recipients   []string  `json:"recipients,omitempty"`
	WithInsights bool      `json:"with_insights"`
}

// NewAnalyzeTask constructs the analyze task.
func NewAnalyzeTask(payload AnalyzePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyzeReport, data), nil
}

// NewMailTask constructs the mail task.
func NewMailTask(payload MailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendMail, data), nil
}

// NewScanTask constructs the inbox scan task.
func NewScanTask() *asynq.Task {
	return asynq.NewTask(TaskScanReports, nil)
}

// Client enqueues tasks on the default queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs a queue client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueAnalyze schedules processing of a pending run.
func (c *Client) EnqueueAnalyze(ctx context.Context, runID uuid.UUID) error {
	task, err := NewAnalyzeTask(AnalyzePayload{RunID: runID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	return err
}

// EnqueueMail schedules the summary email of a run.
func (c *Client) EnqueueMail(ctx context.Context, runID uuid.UUID, recipients []string, withInsights bool) error {
	task, err := NewMailTask(MailPayload{RunID: runID, Recipients: recipients, WithInsights: withInsights})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	return err
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
