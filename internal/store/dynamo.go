package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key layout: every job lives under one partition so Load is a
// single paginated Query.
const (
	jobsPK        = "REEL#JOBS"
	sessionPrefix = "SESSION#"

	// maxBatchWrite is the DynamoDB BatchWriteItem limit per call.
	maxBatchWrite = 25

	// maxUnprocessedRetries bounds resubmission of throttled batch items.
	maxUnprocessedRetries = 3
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoStore implements JobStore on a DynamoDB table with string keys PK and SK.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
}

// Compile-time interface check.
var _ JobStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// TableName returns the backing table name.
func (s *DynamoStore) TableName() string { return s.tableName }

func (s *DynamoStore) Load(ctx context.Context) (map[string]JobRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: jobsPK},
			":sk": &types.AttributeValueMemberS{Value: sessionPrefix},
		},
	}

	records := make(map[string]JobRecord)

	// DynamoDB returns up to 1MB per Query call.
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("Query PK=%s: %w", jobsPK, err)
		}
		for _, item := range result.Items {
			var rec JobRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				log.Warn().Err(err).Msg("Skipping unreadable job item")
				continue
			}
			if rec.SessionID == "" {
				continue
			}
			records[rec.SessionID] = rec
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	log.Debug().Str("table", s.tableName).Int("records", len(records)).Msg("Jobs loaded from DynamoDB")
	return records, nil
}

func (s *DynamoStore) Get(ctx context.Context, sessionID string) (JobRecord, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: jobsPK},
			"SK": &types.AttributeValueMemberS{Value: sessionPrefix + sessionID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return JobRecord{}, false, fmt.Errorf("GetItem %s: %w", sessionID, err)
	}
	if out.Item == nil {
		return JobRecord{}, false, nil
	}
	var rec JobRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return JobRecord{}, false, fmt.Errorf("unmarshal job %s: %w", sessionID, err)
	}
	return rec, true, nil
}

// SaveAll puts every record it is given. Each item write is atomic, so a
// failed batch never corrupts records written earlier.
func (s *DynamoStore) SaveAll(ctx context.Context, records map[string]JobRecord) error {
	var requests []types.WriteRequest
	for id, rec := range records {
		item, err := attributevalue.MarshalMap(rec)
		if err != nil {
			return fmt.Errorf("marshal job %s: %w", id, err)
		}
		item["PK"] = &types.AttributeValueMemberS{Value: jobsPK}
		item["SK"] = &types.AttributeValueMemberS{Value: sessionPrefix + id}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	if len(requests) == 0 {
		return nil
	}

	for i := 0; i < len(requests); i += maxBatchWrite {
		end := min(i+maxBatchWrite, len(requests))
		if err := s.batchPut(ctx, requests[i:end]); err != nil {
			return err
		}
	}

	log.Debug().Str("table", s.tableName).Int("written", len(requests)).Msg("Jobs persisted to DynamoDB")
	return nil
}

func (s *DynamoStore) batchPut(ctx context.Context, requests []types.WriteRequest) error {
	batch := map[string][]types.WriteRequest{s.tableName: requests}
	for attempt := 0; attempt <= maxUnprocessedRetries; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: batch})
		if err != nil {
			return fmt.Errorf("BatchWriteItem put (%d items): %w", len(batch[s.tableName]), err)
		}
		if len(out.UnprocessedItems[s.tableName]) == 0 {
			return nil
		}
		batch = out.UnprocessedItems
		log.Warn().Int("unprocessed", len(batch[s.tableName])).Int("attempt", attempt+1).Msg("Retrying unprocessed job writes")
	}
	return fmt.Errorf("BatchWriteItem put: %d items still unprocessed", len(batch[s.tableName]))
}
