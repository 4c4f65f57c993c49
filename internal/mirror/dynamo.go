package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the mirror uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoItem is one mirrored key. ExpiresAt is the table's TTL attribute;
// DynamoDB deletes expired items lazily, so Load also checks it.
type dynamoItem struct {
	Key       string `dynamodbav:"key"`
	Value     string `dynamodbav:"value"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

// Dynamo mirrors sessions into a DynamoDB table keyed by "key" (S), for
// API processes running without Redis.
type Dynamo struct {
	client DynamoAPI
	table  string
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewDynamo(client DynamoAPI, table, prefix string, ttl time.Duration) *Dynamo {
	return &Dynamo{client: client, table: table, prefix: prefix, ttl: ttl, now: time.Now}
}

func (d *Dynamo) key(k string) map[string]types.AttributeValue {
	if d.prefix != "" {
		k = d.prefix + ":" + k
	}
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: k},
	}
}

func (d *Dynamo) Load(ctx context.Context, key string, v any) (bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("dynamodb get %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return false, fmt.Errorf("dynamodb decode %s: %w", key, err)
	}
	if item.ExpiresAt > 0 && d.now().Unix() >= item.ExpiresAt {
		return false, nil
	}
	return true, json.Unmarshal([]byte(item.Value), v)
}

func (d *Dynamo) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	item := dynamoItem{Value: string(data)}
	if d.ttl > 0 {
		item.ExpiresAt = d.now().Add(d.ttl).Unix()
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamodb encode %s: %w", key, err)
	}
	for k, attr := range d.key(key) {
		av[k] = attr
	}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("dynamodb put %s: %w", key, err)
	}
	return nil
}

func (d *Dynamo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(d.table),
			Key:       d.key(k),
		}); err != nil {
			return fmt.Errorf("dynamodb delete %s: %w", k, err)
		}
	}
	return nil
}
