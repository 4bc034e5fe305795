package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CounterStore is the slice of the DynamoDB client the distributed limiter needs
type CounterStore interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DistributedRateLimiter implements fixed-window rate limiting with DynamoDB as the
// state store, so limits hold across Lambda invocations and instances
type DistributedRateLimiter struct {
	client    CounterStore
	tableName string
	limit     int
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

// RateLimitEntry represents a rate limit entry in DynamoDB
type RateLimitEntry struct {
	PK        string `dynamodbav:"PK"`
	Count     int    `dynamodbav:"Count"`
	WindowEnd int64  `dynamodbav:"WindowEnd"`
	TTL       int64  `dynamodbav:"TTL"`
}

// NewDistributedRateLimiter creates a distributed rate limiter. A nil client allows everything.
func NewDistributedRateLimiter(client CounterStore, tableName string, limit int, window time.Duration, keyPrefix string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		tableName: tableName,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (r *DistributedRateLimiter) windowKey(key string, windowStart time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("RATELIMIT#%s#%s#%d", r.keyPrefix, key, windowStart.Unix())},
	}
}

// Allow atomically counts the request if the window still has room
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	now := r.now()
	windowStart := now.Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	count := expression.Name("Count")
	update := expression.Set(count, expression.Plus(expression.IfNotExists(count, expression.Value(0)), expression.Value(1))).
		Set(expression.Name("WindowEnd"), expression.Value(windowEnd.Unix())).
		Set(expression.Name("TTL"), expression.Value(windowEnd.Add(time.Hour).Unix()))
	cond := expression.AttributeNotExists(count).Or(count.LessThan(expression.Value(r.limit)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return true, fmt.Errorf("failed to build rate limit update (failing open): %w", err)
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.windowKey(key, windowStart),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		// fail open so a throttled table does not block legitimate traffic
		return true, fmt.Errorf("rate limiter error (failing open): %w", err)
	}

	var entry RateLimitEntry
	if err := attributevalue.UnmarshalMap(result.Attributes, &entry); err != nil {
		return true, fmt.Errorf("failed to parse rate limit entry (failing open): %w", err)
	}

	return entry.Count <= r.limit, nil
}

// GetRemaining returns the number of requests remaining in the current window
func (r *DistributedRateLimiter) GetRemaining(ctx context.Context, key string) (int, time.Duration, error) {
	now := r.now()
	windowStart := now.Truncate(r.window)
	windowEnd := windowStart.Add(r.window)
	if r.client == nil {
		return r.limit, windowEnd.Sub(now), nil
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.windowKey(key, windowStart),
	})
	if err != nil || result.Item == nil {
		return r.limit, windowEnd.Sub(now), nil
	}

	var entry RateLimitEntry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return r.limit, windowEnd.Sub(now), fmt.Errorf("failed to parse rate limit entry: %w", err)
	}

	remaining := r.limit - entry.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, windowEnd.Sub(now), nil
}

// Reset clears the rate limit for a given key
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.windowKey(key, r.now().Truncate(r.window)),
	})
	return err
}

// GetLimit returns the configured rate limit
func (r *DistributedRateLimiter) GetLimit() int {
	return r.limit
}

// GetWindow returns the configured time window
func (r *DistributedRateLimiter) GetWindow() time.Duration {
	return r.window
}

// SetHeaders adds rate limit headers to an HTTP response
func (r *DistributedRateLimiter) SetHeaders(ctx context.Context, key string, h http.Header) error {
	remaining, resetIn, err := r.GetRemaining(ctx, key)
	if err != nil {
		return err
	}

	h.Set("X-RateLimit-Limit", strconv.Itoa(r.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(r.now().Add(resetIn).Unix(), 10))
	return nil
}
