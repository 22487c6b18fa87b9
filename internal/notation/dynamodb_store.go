package notation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/hinglishflow/internal/models"
)

const (
	dynamoKeyAttr     = "short_form"
	dynamoMaxBatch    = 25
	dynamoMaxRetries  = 3
	dynamoBackoffBase = 500 * time.Millisecond
)

// DynamoAPI is the subset of the DynamoDB client the store needs.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoStore keeps one item per lowercased short form, so a lookup is a
// single GetItem on the partition key.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func (s *DynamoStore) Lookup(ctx context.Context, shortForm string) (string, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			dynamoKeyAttr: &types.AttributeValueMemberS{Value: strings.ToLower(shortForm)},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("[DynamoDB] GetItem %q: %w", shortForm, err)
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}

	var entry models.NotationEntry
	if err := attributevalue.UnmarshalMap(out.Item, &entry); err != nil {
		return "", false, fmt.Errorf("[DynamoDB] Unable to unmarshal notation %q: %w", shortForm, err)
	}
	return entry.LongForm, true, nil
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] DescribeTable %q: %w", s.table, err)
	}
	return nil
}

func notationItem(e models.NotationEntry) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoKeyAttr:        &types.AttributeValueMemberS{Value: strings.ToLower(strings.TrimSpace(e.ShortForm))},
		"short_form_display": &types.AttributeValueMemberS{Value: e.ShortForm},
		"long_form":          &types.AttributeValueMemberS{Value: e.LongForm},
	}
}

// PutEntries writes entries in batches of 25. Duplicate short forms keep
// the first entry, matching the in-memory store.
func (s *DynamoStore) PutEntries(ctx context.Context, entries []models.NotationEntry) (int, error) {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]models.NotationEntry, 0, len(entries))
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.ShortForm))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			slog.Warn("[DynamoDB] Duplicate short form skipped", slog.String("short_form", e.ShortForm))
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, e)
	}

	written := 0
	for i := 0; i < len(unique); i += dynamoMaxBatch {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return written, ctx.Err()
		default:
		}

		end := min(i+dynamoMaxBatch, len(unique))
		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, e := range unique[i:end] {
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: notationItem(e)},
			})
		}

		remaining, err := s.batchWrite(ctx, writeRequests)
		if err != nil {
			return written, err
		}
		written += len(writeRequests) - remaining
	}

	slog.Info("[DynamoDB] Stored notations",
		slog.String("table", s.table),
		slog.Int("count", written))
	return written, nil
}

// batchWrite sends one batch and retries unprocessed items with backoff. It
// returns how many items were still unprocessed at the end.
func (s *DynamoStore) batchWrite(ctx context.Context, requests []types.WriteRequest) (int, error) {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{s.table: requests},
	})
	if err != nil {
		return len(requests), fmt.Errorf("[DynamoDB] Failed to batch write notations: %w", err)
	}

	backoff := dynamoBackoffBase
	for retry := 0; len(out.UnprocessedItems[s.table]) > 0 && retry < dynamoMaxRetries; retry++ {
		slog.Warn("[DynamoDB] Retrying unprocessed notations...",
			slog.Int("retry_attempt", retry+1),
			slog.Int("remaining_items", len(out.UnprocessedItems[s.table])))

		select {
		case <-ctx.Done():
			return len(out.UnprocessedItems[s.table]), ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return len(requests), fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
		}
	}

	remaining := len(out.UnprocessedItems[s.table])
	if remaining > 0 {
		slog.Error("[DynamoDB] Some notations were not written even after retries",
			slog.Int("remaining_items", remaining))
	}
	return remaining, nil
}
