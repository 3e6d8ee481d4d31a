package cmd

import (
	"github.com/outship-io/outship/internal/constant"
	"github.com/spf13/cobra"
)

var flgs = &Flags{}

type Flags struct {
	Config      string
	TableName   string
	IndexName   string
	EndpointURL string
	Verbose     bool

	ID       string
	Action   string
	JobID    string
	Size     int
	SlotID   string
	Serial   string
	RoleID   string
	HTTPAddr string
}

var flagMap = FlagMap{
	Config: FlagSet[string]{
		Name:  "config",
		Usage: "Path of the YAML configuration file.",
		Value: "",
	},
	TableName: FlagSet[string]{
		Name:  "table-name",
		Usage: "The name of the table holding the records. Overrides the configuration file.",
		Value: "",
	},
	IndexName: FlagSet[string]{
		Name:  "index-name",
		Usage: "The name of the record type index. Overrides the configuration file.",
		Value: "",
	},
	EndpointURL: FlagSet[string]{
		Name:  "endpoint-url",
		Usage: "Override command's default URL with the given URL.",
		Value: "",
	},
	Verbose: FlagSet[bool]{
		Name:  "verbose",
		Usage: "Write development logs to stderr.",
		Value: false,
	},
	ID: FlagSet[string]{
		Name:  "id",
		Usage: "Shipment ID. Empty means every open shipment where the command allows it.",
		Value: "",
	},
	Action: FlagSet[string]{
		Name:  "action",
		Usage: "Job action: run-fulfillment (mr), check-shippable (shippable) or sync-work-orders (wosync).",
		Value: "",
	},
	JobID: FlagSet[string]{
		Name:  "job-id",
		Usage: "Job ID returned by the trigger.",
		Value: "",
	},
	Size: FlagSet[int]{
		Name:  "size",
		Usage: "Maximum number of jobs to list.",
		Value: constant.DefaultMaxListJobs,
	},
	SlotID: FlagSet[string]{
		Name:  "slot-id",
		Usage: "Serial assignment slot ID.",
		Value: "",
	},
	Serial: FlagSet[string]{
		Name:  "serial",
		Usage: "Serial number to assign to the slot.",
		Value: "",
	},
	RoleID: FlagSet[string]{
		Name:  "role-id",
		Usage: "Role ID of the user editing the shipment.",
		Value: "",
	},
	HTTPAddr: FlagSet[string]{
		Name:  "addr",
		Usage: "Listen address of the trigger endpoint. Overrides the configuration file.",
		Value: "",
	},
}

type FlagSet[T any] struct {
	Name  string
	Usage string
	Value T
}

type FlagMap struct {
	Config      FlagSet[string]
	TableName   FlagSet[string]
	IndexName   FlagSet[string]
	EndpointURL FlagSet[string]
	Verbose     FlagSet[bool]
	ID          FlagSet[string]
	Action      FlagSet[string]
	JobID       FlagSet[string]
	Size        FlagSet[int]
	SlotID      FlagSet[string]
	Serial      FlagSet[string]
	RoleID      FlagSet[string]
	HTTPAddr    FlagSet[string]
}

func setPersistentFlags(c *cobra.Command, flgs *Flags) {
	pf := c.PersistentFlags()
	pf.StringVar(&flgs.Config, flagMap.Config.Name, flagMap.Config.Value, flagMap.Config.Usage)
	pf.StringVar(&flgs.TableName, flagMap.TableName.Name, flagMap.TableName.Value, flagMap.TableName.Usage)
	pf.StringVar(&flgs.IndexName, flagMap.IndexName.Name, flagMap.IndexName.Value, flagMap.IndexName.Usage)
	pf.StringVar(&flgs.EndpointURL, flagMap.EndpointURL.Name, flagMap.EndpointURL.Value, flagMap.EndpointURL.Usage)
	pf.BoolVar(&flgs.Verbose, flagMap.Verbose.Name, flagMap.Verbose.Value, flagMap.Verbose.Usage)
}

func setStringFlag(c *cobra.Command, p *string, fs FlagSet[string]) {
	c.Flags().StringVar(p, fs.Name, fs.Value, fs.Usage)
}
