package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

var _ ports.Locker = (*DistributedLock)(nil)

// DistributedLock provides distributed locking using DynamoDB conditional writes
type DistributedLock struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// LockRecord represents a lock record in DynamoDB
type LockRecord struct {
	PK         string `dynamodbav:"PK"`         // LOCK#<resource_name>
	SK         string `dynamodbav:"SK"`         // LOCK
	LockID     string `dynamodbav:"LockID"`     // Unique lock identifier
	Owner      string `dynamodbav:"Owner"`      // Lock owner identifier
	AcquiredAt string `dynamodbav:"AcquiredAt"` // RFC3339 timestamp
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`  // Unix milliseconds
	TTL        int64  `dynamodbav:"TTL"`        // Unix seconds for DynamoDB TTL
}

// NewDistributedLock creates a new distributed lock instance
func NewDistributedLock(client API, tableName string, logger *zap.Logger) *DistributedLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

func lockKey(resource string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "LOCK#" + resource},
		"SK": &types.AttributeValueMemberS{Value: "LOCK"},
	}
}

// Acquire takes the lock unless a live record exists. Expired records are overwritten.
func (dl *DistributedLock) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (ports.Lock, error) {
	now := dl.now()
	expiresAt := now.Add(ttl)

	record := LockRecord{
		PK:         "LOCK#" + resource,
		SK:         "LOCK",
		LockID:     uuid.NewString(),
		Owner:      owner,
		AcquiredAt: now.UTC().Format(time.RFC3339),
		ExpiresAt:  expiresAt.UnixMilli(),
		TTL:        expiresAt.Add(time.Hour).Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock record: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.UnixMilli())))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lock condition: %w", err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(dl.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Debug("Failed to acquire lock - already held",
				zap.String("resource", resource),
				zap.String("owner", owner),
			)
			return nil, ports.ErrLockHeld
		}
		return nil, apperrors.NewDatabaseError("acquire lock", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("resource", resource),
		zap.String("lockID", record.LockID),
		zap.String("owner", owner),
		zap.Duration("ttl", ttl),
	)

	return &Lock{
		distributedLock: dl,
		resource:        resource,
		lockID:          record.LockID,
		owner:           owner,
		expiresAt:       expiresAt,
	}, nil
}

// release deletes the record only if it still belongs to this lock
func (dl *DistributedLock) release(ctx context.Context, resource, lockID, owner string) error {
	cond := expression.Name("LockID").Equal(expression.Value(lockID)).
		And(expression.Name("Owner").Equal(expression.Value(owner)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build release condition: %w", err)
	}

	_, err = dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(dl.tableName),
		Key:                       lockKey(resource),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Warn("Lock already released or taken over",
				zap.String("resource", resource),
				zap.String("lockID", lockID),
				zap.String("owner", owner),
			)
			return nil
		}
		return apperrors.NewDatabaseError("release lock", err)
	}

	dl.logger.Debug("Lock released",
		zap.String("resource", resource),
		zap.String("lockID", lockID),
	)
	return nil
}

// Holder reports who currently holds a resource, if anyone
func (dl *DistributedLock) Holder(ctx context.Context, resource string) (*LockRecord, error) {
	out, err := dl.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(dl.tableName),
		Key:            lockKey(resource),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("read lock", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var record LockRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock record: %w", err)
	}
	if record.ExpiresAt < dl.now().UnixMilli() {
		return nil, nil
	}
	return &record, nil
}

// Lock represents an acquired distributed lock
type Lock struct {
	distributedLock *DistributedLock
	resource        string
	lockID          string
	owner           string
	expiresAt       time.Time
}

// Release releases the lock
func (l *Lock) Release(ctx context.Context) error {
	return l.distributedLock.release(ctx, l.resource, l.lockID, l.owner)
}

// IsExpired checks if the lock has expired
func (l *Lock) IsExpired() bool {
	return l.distributedLock.now().After(l.expiresAt)
}
