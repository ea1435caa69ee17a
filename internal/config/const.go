package config

const (
	LogLevelDebug   string = "debug"
	LogLevelInfo    string = "info"
	LogLevelWarning string = "warn"
	LogLevelError   string = "error"

	LogFilePath string = "tgcraid/log/log_output.txt"

	Version string = "0.1.0"
)

// Defaults for the striped RAID layout engine.
const (
	DefaultStripeWidth = 64
	MinStripeWidth     = 64
	MinTotalStripes    = 2
)

// Defaults for the tape-aware garbage collector, named after the original
// EOS tunable names so operators migrating from it recognize them.
const (
	TGCDefaultMaxConfigCacheAgeSecs = 10
	TGCNameQryPeriodSecs            = "tgc.qryperiodsecs"
	TGCDefaultQryPeriodSecs         = 310
	TGCNameAvailBytes               = "tgc.availbytes"
	TGCDefaultAvailBytes            = 0
	TGCNameTotalBytes               = "tgc.totalbytes"
	TGCDefaultTotalBytes            = 1000000000000000000 // 1 exabyte

	TGCDefaultMaxQueueSize  = 10000000
	TGCWorkerIdlePollPeriod = "1s"
)
