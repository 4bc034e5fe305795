package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

const connectionTTL = 24 * time.Hour

// Connection is an API Gateway WebSocket connection watching the graph
type Connection struct {
	PK           string `dynamodbav:"PK"` // CONNECTION#<id>
	SK           string `dynamodbav:"SK"` // METADATA
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID,omitempty"`
	Endpoint     string `dynamodbav:"Endpoint"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	TTL          int64  `dynamodbav:"TTL"`
}

// ConnectionRepository stores WebSocket connections so rebuild notices can reach them
type ConnectionRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewConnectionRepository creates a connection repository
func NewConnectionRepository(client API, tableName string, logger *zap.Logger) *ConnectionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionRepository{client: client, tableName: tableName, logger: logger, now: time.Now}
}

func connectionKey(connectionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "CONNECTION#" + connectionID},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// Save records a new connection. Records expire after a day through DynamoDB TTL.
func (r *ConnectionRepository) Save(ctx context.Context, connectionID, userID, endpoint string) (*Connection, error) {
	now := r.now()
	conn := &Connection{
		PK:           "CONNECTION#" + connectionID,
		SK:           "METADATA",
		ConnectionID: connectionID,
		UserID:       userID,
		Endpoint:     endpoint,
		ConnectedAt:  now.UTC().Format(time.RFC3339),
		TTL:          now.Add(connectionTTL).Unix(),
	}

	item, err := attributevalue.MarshalMap(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal connection: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("store connection", err)
	}

	r.logger.Debug("Stored connection",
		zap.String("connectionID", connectionID),
		zap.String("userID", userID),
	)
	return conn, nil
}

// Delete forgets a connection
func (r *ConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       connectionKey(connectionID),
	})
	if err != nil {
		return apperrors.NewDatabaseError("delete connection", err).WithDetail("connectionID", connectionID)
	}
	return nil
}

// ListActive returns every connection whose TTL has not passed. DynamoDB deletes
// expired items lazily, so the filter is needed.
func (r *ConnectionRepository) ListActive(ctx context.Context) ([]Connection, error) {
	filter := expression.Name("SK").Equal(expression.Value("METADATA")).
		And(expression.Name("TTL").GreaterThan(expression.Value(r.now().Unix())))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection filter: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var out []Connection
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan connections", err)
		}
		var batch []Connection
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}
