package constant

import "time"

const (
	DefaultTableName                  = "outship-table"
	DefaultIndexName                  = "outship-index-record_type-index_ref"
	DefaultRetryMaxAttempts           = 10
	DefaultVisibilityTimeoutInSeconds = 300
	DefaultVisibilityTimeout          = DefaultVisibilityTimeoutInSeconds * time.Second
	DefaultPollingInterval            = 5 * time.Second
	DefaultWorkerConcurrency          = 2
	DefaultSyncConcurrency            = 4
	DefaultMaxListJobs                = 10
	DefaultMaxShipmentWeight          = "45000"
	DefaultHTTPAddr                   = ":8080"
	MinimumRate                       = "0.01"
)
