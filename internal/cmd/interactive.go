package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/constant"
)

type Interactive struct {
	Client   outship.Client
	Service  *outship.Service
	Trigger  *outship.Trigger
	Shipment *outship.Shipment
	Out      io.Writer
}

func (c *Interactive) Run(ctx context.Context, command string, params []string) {
	switch command {
	case "h", "?", "help":
		c.help(ctx, params)
	case "ls":
		c.ls(ctx, params)
	case "jobs":
		c.jobs(ctx, params)
	case "job":
		c.job(ctx, params)
	case "submit":
		c.submit(ctx, params)
	case "orphans":
		c.orphans(ctx, params)
	case "id":
		c.id(ctx, params)
	case "info":
		c.info(ctx, params)
	case "inspect":
		c.inspect(ctx, params)
	case "serials":
		c.serials(ctx, params)
	case "shippable":
		c.shippable(ctx, params)
	case "sync":
		c.sync(ctx, params)
	case "fulfill":
		c.fulfill(ctx, params)
	case "assign":
		c.assign(ctx, params)
	case "unassign":
		c.unassign(ctx, params)
	default:
		fmt.Fprintln(c.Out, " ... unrecognized command!")
	}
}

func (c *Interactive) help(_ context.Context, _ []string) {
	fmt.Fprintln(c.Out, `... this is Interactive HELP!
  > ls                                            [List the IDs of all open shipments]
  > jobs                                          [List the latest jobs ... max 10 elements]
  > job <job-id>                                  [Show a job and its summary]
  > submit <action> [id]                          [Submit a job: run-fulfillment (mr), check-shippable (shippable) or sync-work-orders (wosync)]
  > orphans                                       [Delete serial assignments whose shipment no longer exists]
  > id <id>                                       [Select a shipment; Interactive is in the shipment mode, from that point on]
    > info                                        [Print the selected shipment as JSON]
    > inspect                                     [Print weight, serial coverage and fulfillment eligibility]
    > serials                                     [List the serial assignment slots of the shipment]
    > shippable                                   [Re-evaluate the shippable flags of the shipment]
    > sync                                        [Pull work order status and weight into the shipment]
    > fulfill                                     [Fulfill every remaining quantity of the shipment]
    > assign <slot-id> <serial>                   [Assign a serial number to a slot]
    > unassign <slot-id>                          [Clear the serial number of a slot]
  > id`)
}

func (c *Interactive) trigger() *outship.Trigger {
	if c.Trigger == nil {
		c.Trigger = outship.NewTrigger(c.Client)
	}
	return c.Trigger
}

func (c *Interactive) ls(ctx context.Context, _ []string) {
	ids, err := c.Client.OpenShipments(ctx)
	if err != nil {
		printError(c.Out, err)
		return
	}
	if len(ids) == 0 {
		fmt.Fprintln(c.Out, "No open shipments!")
		return
	}
	fmt.Fprintln(c.Out, "Open shipments:")
	for _, id := range ids {
		fmt.Fprintf(c.Out, "* ID: %v\n", id)
	}
}

func (c *Interactive) jobs(ctx context.Context, _ []string) {
	jobs, err := c.Client.ListJobs(ctx, constant.DefaultMaxListJobs)
	if err != nil {
		printError(c.Out, err)
		return
	}
	if len(jobs) == 0 {
		fmt.Fprintln(c.Out, "No jobs!")
		return
	}
	fmt.Fprintf(c.Out, "List jobs of first %d IDs:\n", constant.DefaultMaxListJobs)
	for _, j := range jobs {
		fmt.Fprintf(c.Out, "* ID: %s, action: %s, status: %s\n", j.ID, j.Action, j.Status)
	}
}

func (c *Interactive) job(ctx context.Context, params []string) {
	if len(params) == 0 {
		printError(c.Out, "job ID was not provided")
		return
	}
	j, err := c.Client.GetJob(ctx, params[0])
	if err != nil {
		printError(c.Out, errorWithID(err, params[0]))
		return
	}
	printMessageWithData(c.Out, fmt.Sprintf("Job's [%s] record dump:\n", j.ID), j)
}

func (c *Interactive) submit(ctx context.Context, params []string) {
	in := &outship.SubmitJobInput{}
	if len(params) > 0 {
		in.Action = params[0]
	}
	if len(params) > 1 {
		in.DocumentID = params[1]
	}
	out, err := c.trigger().Submit(ctx, in)
	if err != nil {
		printError(c.Out, err)
		return
	}
	printMessageWithData(c.Out, "Job submitted:\n", out.Job)
}

func (c *Interactive) orphans(ctx context.Context, _ []string) {
	summary, err := c.Service.Serials.ReclaimOrphans(ctx)
	if err != nil {
		printError(c.Out, err)
		return
	}
	printMessageWithData(c.Out, "Orphaned serial assignments:\n", summary)
}

func (c *Interactive) id(ctx context.Context, params []string) {
	if len(params) == 0 {
		c.Shipment = nil
		fmt.Fprintln(c.Out, "Going back to standard Interactive mode!")
		return
	}
	id, err := outship.ParseID(params[0])
	if err != nil {
		printError(c.Out, err)
		return
	}
	s, err := c.Client.GetShipment(ctx, id)
	if err != nil {
		printError(c.Out, errorWithID(err, id))
		return
	}
	c.Shipment = s
	printMessageWithData(c.Out, fmt.Sprintf("Shipment's [%v] record dump:\n", id), s)
}

// reload refreshes the selected shipment after an engine changed it.
func (c *Interactive) reload(ctx context.Context) {
	s, err := c.Client.GetShipment(ctx, c.Shipment.ID)
	if err != nil {
		printError(c.Out, errorWithID(err, c.Shipment.ID))
		return
	}
	c.Shipment = s
}

func (c *Interactive) info(_ context.Context, _ []string) {
	if c.Shipment == nil {
		printError(c.Out, errorCLIModeRestriction("`info`"))
		return
	}
	printMessageWithData(c.Out, fmt.Sprintf("Shipment's [%v] record dump:\n", c.Shipment.ID), c.Shipment)
}

func (c *Interactive) inspect(ctx context.Context, _ []string) {
	if c.Shipment == nil {
		printError(c.Out, errorCLIModeRestriction("`inspect`"))
		return
	}
	in, err := c.Service.Hooks.Inspect(ctx, c.Shipment)
	if err != nil {
		printError(c.Out, err)
		return
	}
	printMessageWithData(c.Out, "Inspection:\n", in)
}

func (c *Interactive) serials(ctx context.Context, _ []string) {
	if c.Shipment == nil {
		printError(c.Out, errorCLIModeRestriction("`serials`"))
		return
	}
	records, err := c.Client.SerialAssignmentsForShipment(ctx, c.Shipment.ID)
	if err != nil {
		printError(c.Out, err)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(c.Out, "No serial assignments!")
		return
	}
	for _, a := range records {
		fmt.Fprintf(c.Out, "* ID: %v, line: %v, serial: %q\n", a.ID, a.LineKey, a.SerialNumber)
	}
}

func (c *Interactive) shippable(ctx context.Context, _ []string) {
	if c.Shipment == nil {
		printError(c.Out, errorCLIModeRestriction("`shippable`"))
		return
	}
	summary, err := c.Service.Shippable.Run(ctx, &outship.ShippableInput{ShipmentID: c.Shipment.ID})
	if err != nil {
		printError(c.Out, err)
		return
	}
	c.reload(ctx)
	printMessageWithData(c.Out, "Shippable check:\n", summary)
}

func (c *Interactive) sync(ctx context.Context, _ []string) {
	if c.Shipment == nil {
		printError(c.Out, errorCLIModeRestriction("`sync`"))
		return
	}
	out, err := c.Service.WorkOrders.Run(ctx, &outship.SyncInput{ShipmentID: c.Shipment.ID})
	if err != nil {
		printError(c.Out, err)
		return
	}
	c.reload(ctx)
	printMessageWithData(c.Out, "Work order sync:\n", out)
}

func (c *Interactive) fulfill(ctx context.Context, _ []string) {
	if c.Shipment == nil {
		printError(c.Out, errorCLIModeRestriction("`fulfill`"))
		return
	}
	summary, err := c.Service.Fulfiller.Run(ctx, &outship.FulfillInput{ShipmentID: c.Shipment.ID})
	if err != nil {
		printError(c.Out, err)
		return
	}
	c.reload(ctx)
	printMessageWithData(c.Out, "Fulfillment:\n", summary)
}

func (c *Interactive) assign(ctx context.Context, params []string) {
	if c.Shipment == nil {
		printError(c.Out, errorCLIModeRestriction("`assign`"))
		return
	}
	if len(params) < 2 {
		printError(c.Out, "usage: assign <slot-id> <serial>")
		return
	}
	id, err := outship.ParseID(params[0])
	if err != nil {
		printError(c.Out, err)
		return
	}
	a, err := c.Service.Serials.AssignSerial(ctx, &outship.AssignSerialInput{AssignmentID: id, SerialNumber: params[1]})
	if err != nil {
		printError(c.Out, errorWithID(err, id))
		return
	}
	printMessageWithData(c.Out, "Serial assigned:\n", a)
}

func (c *Interactive) unassign(ctx context.Context, params []string) {
	if c.Shipment == nil {
		printError(c.Out, errorCLIModeRestriction("`unassign`"))
		return
	}
	if len(params) == 0 {
		printError(c.Out, "usage: unassign <slot-id>")
		return
	}
	id, err := outship.ParseID(params[0])
	if err != nil {
		printError(c.Out, err)
		return
	}
	a, err := c.Service.Serials.UnassignSerial(ctx, id)
	if err != nil {
		printError(c.Out, errorWithID(err, id))
		return
	}
	printMessageWithData(c.Out, "Serial unassigned:\n", a)
}
