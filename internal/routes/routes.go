package routes

const (
	// Health
	Health  = "/health"
	Metrics = "/metrics"

	// Residences
	Residences           = "/residences"
	ResidenceConsistency = "/residences/consistency"
	Residence            = "/residences/{id:[0-9]+}"
	ResidenceAssign      = "/residences/{id:[0-9]+}/assign"
	ResidenceHistory     = "/residences/{id:[0-9]+}/history"
)
