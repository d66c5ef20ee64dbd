package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type dynamoItem struct {
	Key       string `dynamodbav:"key"`
	Value     string `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// DynamoBackend stores values in a table keyed by the string attribute "key".
type DynamoBackend struct {
	client dynamoAPI
	table  string
	now    func() time.Time
}

// NewDynamoBackend wraps a DynamoDB client.
func NewDynamoBackend(client dynamoAPI, table string) *DynamoBackend {
	if client == nil {
		panic("storage: dynamodb client required")
	}
	return &DynamoBackend{client: client, table: table, now: time.Now}
}

// GetItem reads the item with a consistent read.
func (d *DynamoBackend) GetItem(ctx context.Context, key string) (string, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("storage: dynamodb get %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return "", ErrNotFound
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return "", fmt.Errorf("storage: dynamodb decode %s: %w", key, err)
	}
	return item.Value, nil
}

// SetItem writes the whole item.
func (d *DynamoBackend) SetItem(ctx context.Context, key, value string) error {
	av, err := attributevalue.MarshalMap(dynamoItem{
		Key:       key,
		Value:     value,
		UpdatedAt: d.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("storage: dynamodb encode %s: %w", key, err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("storage: dynamodb put %s: %w", key, err)
	}
	return nil
}
