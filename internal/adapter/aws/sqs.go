package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/pscheid92/tweetpulse/internal/domain"
	"github.com/pscheid92/tweetpulse/internal/metrics"
)

type sqsAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var _ domain.WorkQueue = (*SQSQueue)(nil)

// SQSQueue carries cursors on an SQS queue. Leases are SQS visibility
// timeouts. FIFO queues (".fifo" suffix) group each message by its cursor and
// rely on content-based deduplication.
type SQSQueue struct {
	api      sqsAPI
	name     string
	url      string
	fifo     bool
	waitTime time.Duration
}

// NewSQSQueue resolves the queue URL by name once. waitTime enables long
// polling on Lease; zero polls without waiting.
func NewSQSQueue(ctx context.Context, cfg awssdk.Config, name string, waitTime time.Duration) (*SQSQueue, error) {
	return newSQSQueueWithAPI(ctx, sqs.NewFromConfig(cfg), name, waitTime)
}

func newSQSQueueWithAPI(ctx context.Context, api sqsAPI, name string, waitTime time.Duration) (*SQSQueue, error) {
	if name == "" {
		return nil, errors.New("sqs queue name required")
	}

	out, err := api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: awssdk.String(name)})
	if err != nil {
		return nil, fmt.Errorf("resolve queue %s: %w", name, err)
	}

	return &SQSQueue{
		api:      api,
		name:     name,
		url:      awssdk.ToString(out.QueueUrl),
		fifo:     strings.HasSuffix(name, ".fifo"),
		waitTime: waitTime,
	}, nil
}

func (q *SQSQueue) Lease(ctx context.Context) (domain.LeasedItem, error) {
	out, err := q.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            awssdk.String(q.url),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     int32(q.waitTime / time.Second),
	})
	if err != nil {
		countQueueOp("lease", err)
		return domain.LeasedItem{}, translate("receive message", err)
	}
	countQueueOp("lease", nil)

	if len(out.Messages) == 0 {
		return domain.LeasedItem{}, domain.ErrQueueEmpty
	}

	msg := out.Messages[0]
	return domain.LeasedItem{
		Cursor: domain.Cursor(strings.TrimSpace(awssdk.ToString(msg.Body))),
		Handle: awssdk.ToString(msg.ReceiptHandle),
	}, nil
}

func (q *SQSQueue) Ack(ctx context.Context, handle string) error {
	_, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      awssdk.String(q.url),
		ReceiptHandle: awssdk.String(handle),
	})
	countQueueOp("ack", err)
	if err != nil {
		return translate("delete message", err)
	}
	return nil
}

// Release sets the remaining visibility of a leased message; zero makes it
// leasable immediately.
func (q *SQSQueue) Release(ctx context.Context, handle string, timeout time.Duration) error {
	_, err := q.api.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          awssdk.String(q.url),
		ReceiptHandle:     awssdk.String(handle),
		VisibilityTimeout: int32(timeout / time.Second),
	})
	countQueueOp("release", err)
	if err != nil {
		return translate("change message visibility", err)
	}
	return nil
}

func (q *SQSQueue) Push(ctx context.Context, cursor domain.Cursor) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    awssdk.String(q.url),
		MessageBody: awssdk.String(cursor.String()),
	}
	if q.fifo {
		input.MessageGroupId = awssdk.String(cursor.String())
	}

	_, err := q.api.SendMessage(ctx, input)
	countQueueOp("push", err)
	if err != nil {
		return translate("send message", err)
	}
	return nil
}

// Ping checks that the queue is still reachable.
func (q *SQSQueue) Ping(ctx context.Context) error {
	_, err := q.api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: awssdk.String(q.name)})
	return err
}

func countQueueOp(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.QueueOpsTotal.WithLabelValues(op, status).Inc()
}
