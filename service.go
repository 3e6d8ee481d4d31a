package outship

import (
	"context"

	"go.uber.org/zap"
)

// Service bundles the engines over one record store and lookup.
type Service struct {
	Hooks      *ShipmentHooks
	Reconciler *Reconciler
	Serials    *SerialGuard
	WorkOrders *WorkOrderSync
	Shippable  *ShippableCheck
	Fulfiller  *Fulfiller
	logger     *zap.Logger
}

func NewService(store RecordStore, lookup Lookup, optFns ...func(*EngineOptions)) *Service {
	o := newEngineOptions(optFns)
	return &Service{
		Hooks:      NewShipmentHooks(store, lookup, optFns...),
		Reconciler: NewReconciler(store, optFns...),
		Serials:    NewSerialGuard(store, lookup, optFns...),
		WorkOrders: NewWorkOrderSync(store, lookup, optFns...),
		Shippable:  NewShippableCheck(store, lookup, optFns...),
		Fulfiller:  NewFulfiller(store, lookup, optFns...),
		logger:     o.Logger,
	}
}

// RunJob dispatches a job to the engine its action selects.
func (s *Service) RunJob(ctx context.Context, job *Job) (*Summary, error) {
	s.logger.Info("job started",
		zap.String("job_id", job.ID),
		zap.String("action", string(job.Action)),
		zap.Int64("document_id", int64(job.DocumentID)))
	switch job.Action {
	case ActionRunFulfillment:
		return s.Fulfiller.Run(ctx, &FulfillInput{ShipmentID: job.DocumentID})
	case ActionCheckShippable:
		return s.Shippable.Run(ctx, &ShippableInput{ShipmentID: job.DocumentID})
	case ActionSyncWorkOrders:
		out, err := s.WorkOrders.Run(ctx, &SyncInput{ShipmentID: job.DocumentID})
		if err != nil {
			return nil, err
		}
		return out.Total(), nil
	}
	return nil, InvalidActionError{Action: string(job.Action)}
}
