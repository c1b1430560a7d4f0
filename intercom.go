package intercom

var (
	VERSION = "dev"
	COMMIT  = "unknown"
)
