package cmd

import (
	"context"

	"github.com/outship-io/outship"
	"github.com/spf13/cobra"
)

// parseOptionalID treats an empty flag as the zero ID.
func parseOptionalID(s string) (outship.ID, error) {
	if s == "" {
		return 0, nil
	}
	return outship.ParseID(s)
}

func parseRequiredID(s string) (outship.ID, error) {
	if s == "" {
		return 0, outship.IDNotProvidedError{}
	}
	return outship.ParseID(s)
}

func (f CommandFactory) CreateSyncWorkOrdersCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "sync-work-orders",
		Short: "Link late work orders and pull their status and weight into open shipments",
		Long: `Link late work orders and pull their status and weight into open shipments.
Runs in the foreground; use submit --action wosync to queue it instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			id, err := parseOptionalID(flgs.ID)
			if err != nil {
				return err
			}
			out, err := s.service().WorkOrders.Run(ctx, &outship.SyncInput{ShipmentID: id})
			if err != nil {
				return err
			}
			printMessageWithData(f.stdout(), "", out)
			return nil
		},
	}
	setStringFlag(c, &flgs.ID, flagMap.ID)
	return c
}

func (f CommandFactory) CreateCheckShippableCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "check-shippable",
		Short: "Re-evaluate the shippable flags of open shipments",
		Long:  `Re-evaluate the shippable flags of open shipments against source order commitments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			id, err := parseOptionalID(flgs.ID)
			if err != nil {
				return err
			}
			summary, err := s.service().Shippable.Run(ctx, &outship.ShippableInput{ShipmentID: id})
			if err != nil {
				return err
			}
			printMessageWithData(f.stdout(), "", summary)
			return nil
		},
	}
	setStringFlag(c, &flgs.ID, flagMap.ID)
	return c
}

func (f CommandFactory) CreateFulfillCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "fulfill",
		Short: "Fulfill every remaining quantity of a shipment",
		Long:  `Fulfill every remaining quantity of a shipment.
Shipments that are not shippable or still miss serial numbers are refused.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			id, err := parseRequiredID(flgs.ID)
			if err != nil {
				return err
			}
			summary, err := s.service().Fulfiller.Run(ctx, &outship.FulfillInput{ShipmentID: id})
			if err != nil {
				return errorWithID(err, id)
			}
			printMessageWithData(f.stdout(), "", summary)
			return nil
		},
	}
	setStringFlag(c, &flgs.ID, flagMap.ID)
	return c
}

type InspectResult struct {
	Shipment   *outship.Shipment   `json:"shipment"`
	Inspection *outship.Inspection `json:"inspection"`
}

func (f CommandFactory) CreateInspectCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "inspect",
		Short: "Show a shipment with its weight and serial coverage",
		Long:  `Show a shipment with its weight and serial coverage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			id, err := parseRequiredID(flgs.ID)
			if err != nil {
				return err
			}
			shipment, err := s.client.GetShipment(ctx, id)
			if err != nil {
				return errorWithID(err, id)
			}
			in, err := s.service().Hooks.Inspect(ctx, shipment)
			if err != nil {
				return err
			}
			printMessageWithData(f.stdout(), "", InspectResult{Shipment: shipment, Inspection: in})
			return nil
		},
	}
	setStringFlag(c, &flgs.ID, flagMap.ID)
	return c
}

type DeleteShipmentResult struct {
	ShipmentID     outship.ID      `json:"shipment_id"`
	SerialsDeleted int             `json:"serials_deleted"`
	Summary        outship.Summary `json:"summary"`
}

func (f CommandFactory) CreateDeleteShipmentCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "delete-shipment",
		Short: "Delete a shipment and release its source order claims",
		Long: `Delete a shipment and release its source order claims.
A fulfilled shipment can only be deleted by a role on the edit allow-list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			id, err := parseRequiredID(flgs.ID)
			if err != nil {
				return err
			}
			shipment, err := s.client.GetShipment(ctx, id)
			if err != nil {
				return errorWithID(err, id)
			}
			hooks := s.service().Hooks
			if err := hooks.CheckEdit(ctx, shipment, flgs.RoleID); err != nil {
				return err
			}
			in := &outship.SubmitInput{Operation: outship.OperationDelete, Old: shipment}
			if err := hooks.BeforeSubmit(ctx, in); err != nil {
				return err
			}
			if err := s.client.DeleteShipment(ctx, id); err != nil {
				return errorWithID(err, id)
			}
			out, err := hooks.AfterSubmit(ctx, in)
			if err != nil {
				return err
			}
			printMessageWithData(f.stdout(), "", DeleteShipmentResult{
				ShipmentID:     id,
				SerialsDeleted: out.SerialsDeleted,
				Summary:        out.Summary,
			})
			return nil
		},
	}
	setStringFlag(c, &flgs.ID, flagMap.ID)
	setStringFlag(c, &flgs.RoleID, flagMap.RoleID)
	return c
}

func (f CommandFactory) CreateAssignSerialCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "assign-serial",
		Short: "Assign a serial number to a serial assignment slot",
		Long:  `Assign a serial number to a serial assignment slot. Slots of fulfilled shipments are frozen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			id, err := parseRequiredID(flgs.SlotID)
			if err != nil {
				return err
			}
			a, err := s.service().Serials.AssignSerial(ctx, &outship.AssignSerialInput{
				AssignmentID: id,
				SerialNumber: flgs.Serial,
			})
			if err != nil {
				return errorWithID(err, id)
			}
			printMessageWithData(f.stdout(), "", a)
			return nil
		},
	}
	setStringFlag(c, &flgs.SlotID, flagMap.SlotID)
	setStringFlag(c, &flgs.Serial, flagMap.Serial)
	return c
}

func (f CommandFactory) CreateUnassignSerialCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "unassign-serial",
		Short: "Clear the serial number of a serial assignment slot",
		Long:  `Clear the serial number of a serial assignment slot, keeping the slot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			id, err := parseRequiredID(flgs.SlotID)
			if err != nil {
				return err
			}
			a, err := s.service().Serials.UnassignSerial(ctx, id)
			if err != nil {
				return errorWithID(err, id)
			}
			printMessageWithData(f.stdout(), "", a)
			return nil
		},
	}
	setStringFlag(c, &flgs.SlotID, flagMap.SlotID)
	return c
}

func (f CommandFactory) CreateReclaimOrphansCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "reclaim-orphans",
		Short: "Delete serial assignments whose shipment no longer exists",
		Long:  `Delete serial assignments whose shipment no longer exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			summary, err := s.service().Serials.ReclaimOrphans(ctx)
			if err != nil {
				return err
			}
			printMessageWithData(f.stdout(), "", summary)
			return nil
		},
	}
}
