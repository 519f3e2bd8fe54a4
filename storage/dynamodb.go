package storage

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"golang.org/x/time/rate"
)

// DynamoDBStore implements Store on a DynamoDB table whose partition key is
// the string attribute "k". Values go in the binary attribute "va". DynamoDB
// caps items at 400 KB, so large uploads will fail on Put.
type DynamoDBStore struct {
	table string

	// Do throttling on our side based on configured RCUs/WCUs so the
	// client doesn't have to retry.
	getLimiter *rate.Limiter
	putLimiter *rate.Limiter

	ddb *dynamodb.DynamoDB
}

func NewDynamoDBStore(profile, region, table string) (*DynamoDBStore, error) {
	return NewDynamoDBStoreWithConfig(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewSharedCredentials("", profile),
	}, table)
}

// NewDynamoDBStoreWithConfig is like NewDynamoDBStore, for callers that need
// other credentials or a custom endpoint.
func NewDynamoDBStoreWithConfig(cfg *aws.Config, table string) (*DynamoDBStore, error) {
	s := &DynamoDBStore{
		table: table,
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	s.ddb = dynamodb.New(sess)
	if err := s.configureLimiters(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DynamoDBStore) configureLimiters() error {
	result, err := s.ddb.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return err
	}
	s.getLimiter = limiterFor(result.Table.ProvisionedThroughput.ReadCapacityUnits)
	s.putLimiter = limiterFor(result.Table.ProvisionedThroughput.WriteCapacityUnits)
	return nil
}

// limiterFor turns provisioned capacity units into a request rate. On-demand
// tables report zero units and get no limit.
func limiterFor(units *int64) *rate.Limiter {
	if units == nil || *units <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Second/time.Duration(*units)), 1)
}

func (s *DynamoDBStore) Put(key string, value []byte) (err error) {
	if key == "" {
		return ErrEmptyKey
	}
	var input dynamodb.PutItemInput
	input.TableName = &s.table
	input.Item = map[string]*dynamodb.AttributeValue{
		"k":  {S: aws.String(key)},
		"va": {B: dup(value)},
	}
	time.Sleep(s.putLimiter.Reserve().Delay())
	_, err = s.ddb.PutItem(&input)
	return err
}

func (s *DynamoDBStore) Get(key string) (value []byte, err error) {
	if key == "" {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, ErrEmptyKey)
	}
	var input dynamodb.GetItemInput
	input.TableName = &s.table
	input.Key = map[string]*dynamodb.AttributeValue{
		"k": {S: aws.String(key)},
	}
	time.Sleep(s.getLimiter.Reserve().Delay())
	output, err := s.ddb.GetItem(&input)
	if err != nil {
		// A missing table is a store failure, not a missing key.
		return nil, err
	}
	if output.Item == nil {
		return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	// An empty value can come back without the attribute.
	if va, ok := output.Item["va"]; ok && va.B != nil {
		return va.B, nil
	}
	return []byte{}, nil
}
