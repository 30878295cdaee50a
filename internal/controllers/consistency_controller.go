package controllers

import (
	"net/http"

	"github.com/comunidad/residence-service/internal/services"
	"github.com/comunidad/residence-service/internal/utils"
)

type ConsistencyController struct {
	consistencyService *services.ConsistencyService
}

func NewConsistencyController(consistencyService *services.ConsistencyService) *ConsistencyController {
	return &ConsistencyController{consistencyService: consistencyService}
}

// GET /residences/consistency
func (c *ConsistencyController) AuditHandler(w http.ResponseWriter, r *http.Request) {
	report, err := c.consistencyService.Audit(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, report)
}
