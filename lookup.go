package outship

import (
	"context"
	"errors"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// queryIndex runs a paginated query against the lookup index and collects
// every page into out.
func (c *ClientImpl) queryIndex(ctx context.Context, recordType, refPrefix string, filter *expression.ConditionBuilder, out func([]map[string]types.AttributeValue) error) error {
	keyCond := expression.Key(attrRecordType).Equal(expression.Value(recordType))
	if refPrefix != "" {
		keyCond = keyCond.And(expression.Key(attrIndexRef).BeginsWith(refPrefix))
	}
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := c.buildExpression(builder)
	if err != nil {
		return BuildingExpressionError{Cause: err}
	}
	var exclusiveStartKey map[string]types.AttributeValue
	for {
		res, err := c.dynamoDB.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(c.tableName),
			IndexName:                 aws.String(c.indexName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(defaultQueryLimit),
			ExclusiveStartKey:         exclusiveStartKey,
		})
		if err != nil {
			return handleDynamoDBError(err)
		}
		if err := out(res.Items); err != nil {
			return err
		}
		if len(res.LastEvaluatedKey) == 0 {
			return nil
		}
		exclusiveStartKey = res.LastEvaluatedKey
	}
}

func (c *ClientImpl) openShipments(ctx context.Context) ([]Shipment, error) {
	var shipments []Shipment
	for _, status := range []Status{StatusPending, StatusPartial} {
		err := c.queryIndex(ctx, recordTypeShipment, string(status)+"#", nil, func(items []map[string]types.AttributeValue) error {
			var page []Shipment
			if err := c.unmarshalListOfMaps(items, &page); err != nil {
				return UnmarshalingAttributeError{Cause: err}
			}
			shipments = append(shipments, page...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(shipments, func(i, j int) bool { return shipments[i].ID < shipments[j].ID })
	return shipments, nil
}

func (c *ClientImpl) OpenShipments(ctx context.Context) ([]ID, error) {
	shipments, err := c.openShipments(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]ID, len(shipments))
	for i, s := range shipments {
		ids[i] = s.ID
	}
	return ids, nil
}

func (c *ClientImpl) LinesMissingWorkOrder(ctx context.Context) ([]UnlinkedLine, error) {
	shipments, err := c.openShipments(ctx)
	if err != nil {
		return nil, err
	}
	var orderIDs []ID
	for _, s := range shipments {
		for _, l := range s.Lines {
			if l.WorkOrderID.IsZero() && !l.SourceOrderID.IsZero() {
				orderIDs = append(orderIDs, l.SourceOrderID)
			}
		}
	}
	if len(orderIDs) == 0 {
		return nil, nil
	}
	orders := map[ID]SourceOrder{}
	err = c.batchGet(ctx, recordTypeSourceOrder, orderIDs, func(items []map[string]types.AttributeValue) error {
		var page []SourceOrder
		if err := c.unmarshalListOfMaps(items, &page); err != nil {
			return UnmarshalingAttributeError{Cause: err}
		}
		for _, o := range page {
			orders[o.ID] = o
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var rows []UnlinkedLine
	for _, s := range shipments {
		for _, l := range s.Lines {
			if !l.WorkOrderID.IsZero() {
				continue
			}
			o, ok := orders[l.SourceOrderID]
			if !ok {
				continue
			}
			src := o.Line(l.SourceOrderLineKey)
			if src == nil || src.WorkOrderID.IsZero() {
				continue
			}
			rows = append(rows, UnlinkedLine{ShipmentID: s.ID, LineID: l.LineID, WorkOrderID: src.WorkOrderID})
		}
	}
	return rows, nil
}

func (c *ClientImpl) OpenWorkOrderLines(ctx context.Context, shipmentID ID) ([]WorkOrderLine, error) {
	var shipments []Shipment
	if shipmentID.IsZero() {
		var err error
		if shipments, err = c.openShipments(ctx); err != nil {
			return nil, err
		}
	} else {
		s, err := c.GetShipment(ctx, shipmentID)
		if err != nil {
			return nil, err
		}
		if s.Status.Open() {
			shipments = append(shipments, *s)
		}
	}
	var rows []WorkOrderLine
	for _, s := range shipments {
		for _, l := range s.Lines {
			if l.WorkOrderID.IsZero() || l.QuantityRemaining <= 0 {
				continue
			}
			rows = append(rows, WorkOrderLine{ShipmentID: s.ID, LineID: l.LineID, WorkOrderID: l.WorkOrderID})
		}
	}
	return rows, nil
}

func (c *ClientImpl) WorkOrders(ctx context.Context, ids []ID) (map[ID]WorkOrder, error) {
	found := make(map[ID]WorkOrder, len(ids))
	err := c.batchGet(ctx, recordTypeWorkOrder, ids, func(items []map[string]types.AttributeValue) error {
		var page []WorkOrder
		if err := c.unmarshalListOfMaps(items, &page); err != nil {
			return UnmarshalingAttributeError{Cause: err}
		}
		for _, wo := range page {
			found[wo.ID] = wo
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

var errUnprocessedKeys = errors.New("unprocessed keys remain after retries")

// batchGet reads the records in chunks of 100 and retries unprocessed keys.
func (c *ClientImpl) batchGet(ctx context.Context, recordType string, ids []ID, out func([]map[string]types.AttributeValue) error) error {
	seen := make(map[ID]bool, len(ids))
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, recordKey(recordType, id.String()))
	}
	for start := 0; start < len(keys); start += maxBatchGetItems {
		chunk := keys[start:min(start+maxBatchGetItems, len(keys))]
		request := map[string]types.KeysAndAttributes{
			c.tableName: {Keys: chunk, ConsistentRead: aws.Bool(true)},
		}
		for attempt := 0; len(request) > 0; attempt++ {
			if attempt == maxBatchRetries {
				return DynamoDBAPIError{Cause: errUnprocessedKeys}
			}
			res, err := c.dynamoDB.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return handleDynamoDBError(err)
			}
			if err := out(res.Responses[c.tableName]); err != nil {
				return err
			}
			request = res.UnprocessedKeys
		}
	}
	return nil
}

func (c *ClientImpl) querySerials(ctx context.Context, refPrefix string, filter expression.ConditionBuilder) ([]SerialAssignment, error) {
	var records []SerialAssignment
	err := c.queryIndex(ctx, recordTypeSerialAssignment, refPrefix, &filter, func(items []map[string]types.AttributeValue) error {
		var page []SerialAssignment
		if err := c.unmarshalListOfMaps(items, &page); err != nil {
			return UnmarshalingAttributeError{Cause: err}
		}
		records = append(records, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (c *ClientImpl) SerialAssignmentsForLine(ctx context.Context, shipmentID, lineKey ID) ([]SerialAssignment, error) {
	filter := expression.Name("linked_shipment_id").Equal(expression.Value(shipmentID))
	return c.querySerials(ctx, lineKey.String()+"#", filter)
}

func (c *ClientImpl) SerialAssignmentsForShipment(ctx context.Context, shipmentID ID) ([]SerialAssignment, error) {
	filter := expression.Name("linked_shipment_id").Equal(expression.Value(shipmentID))
	return c.querySerials(ctx, "", filter)
}

// OrphanedSerialAssignments returns records whose shipment link was cleared.
func (c *ClientImpl) OrphanedSerialAssignments(ctx context.Context) ([]SerialAssignment, error) {
	return c.querySerials(ctx, "", expression.AttributeNotExists(expression.Name("linked_shipment_id")))
}

func (c *ClientImpl) EditRoles(ctx context.Context) ([]ID, error) {
	var roles []ID
	err := c.queryIndex(ctx, recordTypeEditRole, "", nil, func(items []map[string]types.AttributeValue) error {
		var page []struct {
			RoleID ID `dynamodbav:"role_id"`
		}
		if err := c.unmarshalListOfMaps(items, &page); err != nil {
			return UnmarshalingAttributeError{Cause: err}
		}
		for _, r := range page {
			roles = append(roles, r.RoleID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}
