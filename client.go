package outship

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/outship-io/outship/internal/clock"
	"github.com/outship-io/outship/internal/constant"
)

const (
	defaultQueryLimit = 250
	maxBatchGetItems  = 100
	maxBatchRetries   = 5

	attrKey        = "pk"
	attrRecordType = "record_type"
	attrIndexRef   = "index_ref"
	attrVersion    = "version"
)

const (
	recordTypeShipment         = "shipment"
	recordTypeSourceOrder      = "source_order"
	recordTypeLocation         = "location"
	recordTypeWorkOrder        = "work_order"
	recordTypeSerialAssignment = "serial_assignment"
	recordTypeEditRole         = "edit_role"
	recordTypeJob              = "job"
	recordTypeCounter          = "counter"
)

// Client is the record store, read lookup and job queue the engines run on.
type Client interface {
	RecordStore
	Lookup
	JobQueue
}

// ClientOptions defines configuration options for the DynamoDB client.
//
// Clock, MarshalMap, UnmarshalMap, UnmarshalListOfMaps and BuildExpression
// exist so tests can stub them. In typical use they should not be modified.
type ClientOptions struct {
	// DynamoDB is a pointer to the DynamoDB client used for database operations.
	DynamoDB *dynamodb.Client
	// TableName is the name of the single table holding every record type.
	TableName string
	// IndexName is the global secondary index over record_type and index_ref.
	IndexName string
	// BaseEndpoint is the base endpoint URL for DynamoDB requests.
	BaseEndpoint string
	// RetryMaxAttempts is the maximum number of attempts for retrying failed DynamoDB operations.
	RetryMaxAttempts int

	Clock               clock.Clock
	MarshalMap          func(in interface{}) (map[string]types.AttributeValue, error)
	UnmarshalMap        func(m map[string]types.AttributeValue, out interface{}) error
	UnmarshalListOfMaps func(l []map[string]types.AttributeValue, out interface{}) error
	BuildExpression     func(b expression.Builder) (expression.Expression, error)
}

// WithTableName sets the table name. The default is "outship-table".
func WithTableName(tableName string) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.TableName = tableName
	}
}

// WithIndexName sets the lookup index name. The default is
// "outship-index-record_type-index_ref".
func WithIndexName(indexName string) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.IndexName = indexName
	}
}

// WithAWSDynamoDBClient sets a pre-configured DynamoDB client.
func WithAWSDynamoDBClient(client *dynamodb.Client) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.DynamoDB = client
	}
}

// WithAWSBaseEndpoint sets a custom DynamoDB endpoint such as DynamoDB Local.
// It is ignored when WithAWSDynamoDBClient is used.
func WithAWSBaseEndpoint(baseEndpoint string) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.BaseEndpoint = baseEndpoint
	}
}

// WithAWSRetryMaxAttempts sets the maximum number of retries of a DynamoDB call.
// It is ignored when WithAWSDynamoDBClient is used.
func WithAWSRetryMaxAttempts(retryMaxAttempts int) func(*ClientOptions) {
	return func(s *ClientOptions) {
		s.RetryMaxAttempts = retryMaxAttempts
	}
}

// NewFromConfig creates a DynamoDB backed Client.
func NewFromConfig(cfg aws.Config, optFns ...func(*ClientOptions)) (Client, error) {
	o := &ClientOptions{
		TableName:           constant.DefaultTableName,
		IndexName:           constant.DefaultIndexName,
		RetryMaxAttempts:    constant.DefaultRetryMaxAttempts,
		Clock:               &clock.RealClock{},
		MarshalMap:          attributevalue.MarshalMap,
		UnmarshalMap:        attributevalue.UnmarshalMap,
		UnmarshalListOfMaps: attributevalue.UnmarshalListOfMaps,
		BuildExpression: func(b expression.Builder) (expression.Expression, error) {
			return b.Build()
		},
	}
	for _, opt := range optFns {
		opt(o)
	}
	c := &ClientImpl{
		tableName:           o.TableName,
		indexName:           o.IndexName,
		dynamoDB:            o.DynamoDB,
		clock:               o.Clock,
		marshalMap:          o.MarshalMap,
		unmarshalMap:        o.UnmarshalMap,
		unmarshalListOfMaps: o.UnmarshalListOfMaps,
		buildExpression:     o.BuildExpression,
	}
	if c.dynamoDB != nil {
		return c, nil
	}
	c.dynamoDB = dynamodb.NewFromConfig(cfg, func(options *dynamodb.Options) {
		options.RetryMaxAttempts = o.RetryMaxAttempts
		if o.BaseEndpoint != "" {
			options.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
	})
	return c, nil
}

// ClientImpl stores every record type in one table. Items are keyed by
// "<record type>#<id>" and carry record_type and index_ref attributes for
// the lookup index.
//
// Note: ClientImpl cannot be used directly. Always use NewFromConfig.
type ClientImpl struct {
	dynamoDB            *dynamodb.Client
	tableName           string
	indexName           string
	clock               clock.Clock
	marshalMap          func(in interface{}) (map[string]types.AttributeValue, error)
	unmarshalMap        func(m map[string]types.AttributeValue, out interface{}) error
	unmarshalListOfMaps func(l []map[string]types.AttributeValue, out interface{}) error
	buildExpression     func(b expression.Builder) (expression.Expression, error)
}

func (c *ClientImpl) GetShipment(ctx context.Context, id ID) (*Shipment, error) {
	s := &Shipment{}
	if err := c.getRecord(ctx, recordTypeShipment, id.String(), s); err != nil {
		return nil, notFound(err, recordTypeShipment, id)
	}
	return s, nil
}

func (c *ClientImpl) PutShipment(ctx context.Context, s *Shipment) error {
	if s == nil || s.ID.IsZero() {
		return IDNotProvidedError{}
	}
	ref := fmt.Sprintf("%s#%s", s.Status, s.ID)
	return c.putVersioned(ctx, recordTypeShipment, s.ID.String(), ref, s, &s.Version)
}

// DeleteShipment deletes the shipment and clears the shipment link of its
// serial assignments, leaving them as orphans for ReclaimOrphans.
func (c *ClientImpl) DeleteShipment(ctx context.Context, id ID) error {
	if id.IsZero() {
		return IDNotProvidedError{}
	}
	serials, err := c.SerialAssignmentsForShipment(ctx, id)
	if err != nil {
		return err
	}
	if err := c.deleteRecord(ctx, recordTypeShipment, id.String()); err != nil {
		return err
	}
	var errs []error
	for _, a := range serials {
		if err := c.unlinkSerialAssignment(ctx, a.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *ClientImpl) unlinkSerialAssignment(ctx context.Context, id ID) error {
	builder := expression.NewBuilder().
		WithUpdate(expression.Remove(expression.Name("linked_shipment_id"))).
		WithCondition(expression.AttributeExists(expression.Name(attrKey)))
	expr, err := c.buildExpression(builder)
	if err != nil {
		return BuildingExpressionError{Cause: err}
	}
	_, err = c.dynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.tableName),
		Key:                       recordKey(recordTypeSerialAssignment, id.String()),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
	})
	if err != nil {
		return handleDynamoDBError(err)
	}
	return nil
}

func (c *ClientImpl) GetSourceOrder(ctx context.Context, id ID) (*SourceOrder, error) {
	o := &SourceOrder{}
	if err := c.getRecord(ctx, recordTypeSourceOrder, id.String(), o); err != nil {
		return nil, notFound(err, recordTypeSourceOrder, id)
	}
	return o, nil
}

func (c *ClientImpl) PutSourceOrder(ctx context.Context, o *SourceOrder) error {
	if o == nil || o.ID.IsZero() {
		return IDNotProvidedError{}
	}
	return c.putVersioned(ctx, recordTypeSourceOrder, o.ID.String(), o.ID.String(), o, &o.Version)
}

func (c *ClientImpl) GetLocation(ctx context.Context, id ID) (*Location, error) {
	l := &Location{}
	if err := c.getRecord(ctx, recordTypeLocation, id.String(), l); err != nil {
		return nil, notFound(err, recordTypeLocation, id)
	}
	return l, nil
}

func (c *ClientImpl) GetSerialAssignment(ctx context.Context, id ID) (*SerialAssignment, error) {
	a := &SerialAssignment{}
	if err := c.getRecord(ctx, recordTypeSerialAssignment, id.String(), a); err != nil {
		return nil, notFound(err, recordTypeSerialAssignment, id)
	}
	return a, nil
}

func (c *ClientImpl) CreateSerialAssignment(ctx context.Context, a *SerialAssignment) error {
	id, err := c.nextID(ctx, recordTypeSerialAssignment)
	if err != nil {
		return err
	}
	a.ID = id
	return c.PutSerialAssignment(ctx, a)
}

func (c *ClientImpl) PutSerialAssignment(ctx context.Context, a *SerialAssignment) error {
	if a == nil || a.ID.IsZero() {
		return IDNotProvidedError{}
	}
	return c.putRecord(ctx, recordTypeSerialAssignment, a.ID.String(), serialRef(a.LineKey, a.ID), a, nil)
}

func (c *ClientImpl) DeleteSerialAssignment(ctx context.Context, id ID) error {
	if id.IsZero() {
		return IDNotProvidedError{}
	}
	return c.deleteRecord(ctx, recordTypeSerialAssignment, id.String())
}

func serialRef(lineKey, id ID) string {
	return fmt.Sprintf("%s#%s", lineKey, id)
}

func recordKey(recordType, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrKey: &types.AttributeValueMemberS{Value: recordType + "#" + id},
	}
}

// errRecordNotFound is returned by getRecord for a missing item.
var errRecordNotFound = errors.New("record not found")

func notFound(err error, recordType string, id ID) error {
	if errors.Is(err, errRecordNotFound) {
		return NotFoundError{RecordType: recordType, ID: id}
	}
	return err
}

func (c *ClientImpl) getRecord(ctx context.Context, recordType, id string, out any) error {
	res, err := c.dynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            recordKey(recordType, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return handleDynamoDBError(err)
	}
	if res.Item == nil {
		return errRecordNotFound
	}
	if err := c.unmarshalMap(res.Item, out); err != nil {
		return UnmarshalingAttributeError{Cause: err}
	}
	return nil
}

// putVersioned saves v on the condition that the stored version still
// equals *version, then advances it. A zero version means the item must not
// exist yet.
func (c *ClientImpl) putVersioned(ctx context.Context, recordType, id, indexRef string, v any, version *int) error {
	expected := *version
	cond := expression.Name(attrVersion).Equal(expression.Value(expected))
	if expected == 0 {
		cond = expression.AttributeNotExists(expression.Name(attrKey))
	}
	*version = expected + 1
	err := c.putRecord(ctx, recordType, id, indexRef, v, &cond)
	if err != nil {
		*version = expected
	}
	return err
}

func (c *ClientImpl) putRecord(ctx context.Context, recordType, id, indexRef string, v any, cond *expression.ConditionBuilder) error {
	item, err := c.marshalMap(v)
	if err != nil {
		return MarshalingAttributeError{Cause: err}
	}
	for k, av := range recordKey(recordType, id) {
		item[k] = av
	}
	item[attrRecordType] = &types.AttributeValueMemberS{Value: recordType}
	item[attrIndexRef] = &types.AttributeValueMemberS{Value: indexRef}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	}
	if cond != nil {
		expr, err := c.buildExpression(expression.NewBuilder().WithCondition(*cond))
		if err != nil {
			return BuildingExpressionError{Cause: err}
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	if _, err := c.dynamoDB.PutItem(ctx, input); err != nil {
		return handleDynamoDBError(err)
	}
	return nil
}

func (c *ClientImpl) deleteRecord(ctx context.Context, recordType, id string) error {
	_, err := c.dynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key:       recordKey(recordType, id),
	})
	if err != nil {
		return handleDynamoDBError(err)
	}
	return nil
}

// nextID increments the counter item of a record type.
func (c *ClientImpl) nextID(ctx context.Context, recordType string) (ID, error) {
	builder := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name("sequence"), expression.Value(1)))
	expr, err := c.buildExpression(builder)
	if err != nil {
		return 0, BuildingExpressionError{Cause: err}
	}
	out, err := c.dynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.tableName),
		Key:                       recordKey(recordTypeCounter, recordType),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, handleDynamoDBError(err)
	}
	var counter struct {
		Sequence int64 `dynamodbav:"sequence"`
	}
	if err := c.unmarshalMap(out.Attributes, &counter); err != nil {
		return 0, UnmarshalingAttributeError{Cause: err}
	}
	return ID(counter.Sequence), nil
}

func handleDynamoDBError(err error) error {
	var cause *types.ConditionalCheckFailedException
	if errors.As(err, &cause) {
		return ConditionalCheckFailedError{Cause: cause}
	}
	return DynamoDBAPIError{Cause: err}
}
