package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderXRequestID = "X-Request-ID"

	// Context keys
	ContextKeyRequestID = "request_id"

	// Database table names
	TableResellers   = "resellers"
	TableBotModules  = "bot_modules"
	TablePacks       = "packs"
	TablePackBatches = "pack_batches"
	TableKeys        = "vpn_keys"
	TableLocations   = "locations"
	TableServers     = "servers"
	TablePanels      = "panels"
	TableServerUsers = "server_users"
	TableViolations  = "violations"

	// Scheduler job tags
	JobTagKeys         = "keys"
	JobTagBatches      = "batches"
	JobTagViolations   = "violations"
	JobTagProvisioning = "provisioning"
)
