package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var _ domain.CheckpointStore = (*DynamoCheckpoint)(nil)

type checkpointItem struct {
	Name      string `dynamodbav:"name"`
	HasRun    bool   `dynamodbav:"has_run"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
}

// DynamoCheckpoint keeps the run-state flag as one item keyed by name.
// Reads are strongly consistent.
type DynamoCheckpoint struct {
	api   dynamoAPI
	table string
	name  string
	clock clockwork.Clock
}

func NewDynamoCheckpoint(cfg awssdk.Config, table, name string, clock clockwork.Clock) *DynamoCheckpoint {
	return newDynamoCheckpointWithAPI(dynamodb.NewFromConfig(cfg), table, name, clock)
}

func newDynamoCheckpointWithAPI(api dynamoAPI, table, name string, clock clockwork.Clock) *DynamoCheckpoint {
	return &DynamoCheckpoint{api: api, table: table, name: name, clock: clock}
}

func (c *DynamoCheckpoint) RunState(ctx context.Context) (bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      awssdk.String(c.table),
		ConsistentRead: awssdk.Bool(true),
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: c.name},
		},
	})
	if err != nil {
		return false, translate("get checkpoint", err)
	}
	if out.Item == nil {
		return false, nil
	}

	var item checkpointItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return false, fmt.Errorf("decode checkpoint %s: %w", c.name, err)
	}
	return item.HasRun, nil
}

func (c *DynamoCheckpoint) SetRunState(ctx context.Context, ran bool) error {
	item, err := attributevalue.MarshalMap(checkpointItem{
		Name:      c.name,
		HasRun:    ran,
		UpdatedAt: c.clock.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", c.name, err)
	}

	if _, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: awssdk.String(c.table),
		Item:      item,
	}); err != nil {
		return translate("put checkpoint", err)
	}
	return nil
}

func (c *DynamoCheckpoint) Ping(ctx context.Context) error {
	_, err := c.RunState(ctx)
	return err
}
