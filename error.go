package outship

import "fmt"

type IDNotProvidedError struct{}

func (e IDNotProvidedError) Error() string {
	return "ID was not provided."
}

type InvalidIDError struct {
	Value any
}

func (e InvalidIDError) Error() string {
	return fmt.Sprintf("Invalid ID: %v.", e.Value)
}

type NotFoundError struct {
	RecordType string
	ID         ID
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %v was not found.", e.RecordType, e.ID)
}

type ConditionalCheckFailedError struct {
	Cause error
}

func (e ConditionalCheckFailedError) Error() string {
	return fmt.Sprintf("Condition on the 'version' attribute has failed: %v.", e.Cause)
}

type BuildingExpressionError struct {
	Cause error
}

func (e BuildingExpressionError) Error() string {
	return fmt.Sprintf("Failed to build expression: %v.", e.Cause)
}

type DynamoDBAPIError struct {
	Cause error
}

func (e DynamoDBAPIError) Error() string {
	return fmt.Sprintf("Failed DynamoDB API: %v.", e.Cause)
}

type UnmarshalingAttributeError struct {
	Cause error
}

func (e UnmarshalingAttributeError) Error() string {
	return fmt.Sprintf("Failed to unmarshal: %v.", e.Cause)
}

type MarshalingAttributeError struct {
	Cause error
}

func (e MarshalingAttributeError) Error() string {
	return fmt.Sprintf("Failed to marshal: %v.", e.Cause)
}

// LookupError wraps a failed read query.
type LookupError struct {
	Query string
	Cause error
}

func (e LookupError) Error() string {
	return fmt.Sprintf("Lookup %s failed: %v.", e.Query, e.Cause)
}

func (e LookupError) Unwrap() error {
	return e.Cause
}

type EmptyQueueError struct{}

func (e EmptyQueueError) Error() string {
	return "Cannot proceed, job queue is empty."
}

type InvalidActionError struct {
	Action string
}

func (e InvalidActionError) Error() string {
	return fmt.Sprintf("Unknown action %q.", e.Action)
}

type ShipmentFulfilledError struct {
	ShipmentID ID
	Operation  string
}

func (e ShipmentFulfilledError) Error() string {
	return fmt.Sprintf("operation %s is not allowed on fulfilled shipment %v.", e.Operation, e.ShipmentID)
}

type EditNotAllowedError struct {
	ShipmentID ID
	RoleID     ID
}

func (e EditNotAllowedError) Error() string {
	return fmt.Sprintf("role %v may not edit fulfilled shipment %v.", e.RoleID, e.ShipmentID)
}

type NotEligibleError struct {
	ShipmentID ID
	Reason     string
}

func (e NotEligibleError) Error() string {
	return fmt.Sprintf("shipment %v is not eligible for fulfillment: %s.", e.ShipmentID, e.Reason)
}

type IDNotFoundError struct{}

func (e IDNotFoundError) Error() string {
	return "Provided ID was not found in the Dynamo DB."
}

type IDDuplicatedError struct{}

func (e IDDuplicatedError) Error() string {
	return "Provided ID was duplicated."
}

type InvalidStateTransitionError struct {
	Msg       string
	Operation string
	Current   JobStatus
}

func (e InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("operation %s failed for status %s: %s.", e.Operation, e.Current, e.Msg)
}
