package metrics

import "expvar"

var (
	OrdersSubmitted   = expvar.NewInt("orders_submitted")
	OrdersRejected    = expvar.NewInt("orders_rejected")
	OrdersDuplicate   = expvar.NewInt("orders_duplicate")
	PlacementFailures = expvar.NewInt("placement_failures")
	AuditWrites       = expvar.NewInt("audit_writes")
	SignalCycles      = expvar.NewInt("signal_cycles")
)
