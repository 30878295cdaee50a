package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/comunidad/residence-service/internal/dtos"
	"github.com/comunidad/residence-service/internal/services"
	"github.com/comunidad/residence-service/internal/utils"
)

type ResidenceController struct {
	residenceService *services.ResidenceService
	validate         *validator.Validate
}

func NewResidenceController(residenceService *services.ResidenceService) *ResidenceController {
	return &ResidenceController{
		residenceService: residenceService,
		validate:         validator.New(),
	}
}

// GET /residences?estado=&bloque=&search=&page=&limit=
func (c *ResidenceController) ListResidencesHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := dtos.ListResidencesQuery{
		Estado: qs.Get("estado"),
		Bloque: qs.Get("bloque"),
		Search: qs.Get("search"),
	}
	var err error
	if q.Page, err = intParam(qs.Get("page")); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "page must be a number", nil, err)
		return
	}
	if q.Limit, err = intParam(qs.Get("limit")); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "limit must be a number", nil, err)
		return
	}
	if err := c.validate.Struct(q); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		return
	}

	resp, err := c.residenceService.ListResidences(r.Context(), q)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /residences/{id}
func (c *ResidenceController) GetResidenceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getResidenceID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	res, err := c.residenceService.GetResidence(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// POST /residences
func (c *ResidenceController) CreateResidenceHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateResidenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		return
	}

	res, err := c.residenceService.CreateResidence(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.ResidenceMutationResponse{
		Message:   services.MsgResidenceCreated,
		Residence: res,
	})
}

// PUT /residences/{id}
func (c *ResidenceController) UpdateResidenceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getResidenceID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	var req dtos.UpdateResidenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}
	if err := req.Validate(); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		return
	}

	res, err := c.residenceService.UpdateResidence(r.Context(), id, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ResidenceMutationResponse{
		Message:   services.MsgResidenceUpdated,
		Residence: res,
	})
}

// POST /residences/{id}/assign
func (c *ResidenceController) AssignResidentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	id, err := getResidenceID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	// An empty body is a release.
	var req dtos.AssignResidentRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		return
	}

	res, err := c.residenceService.AssignResident(r.Context(), id, userID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	msg := services.MsgResidentAssigned
	if req.NewOccupantID() == nil {
		msg = services.MsgResidenceReleased
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ResidenceMutationResponse{
		Message:   msg,
		Residence: res,
	})
}

// GET /residences/{id}/history
func (c *ResidenceController) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getResidenceID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	history, err := c.residenceService.GetHistory(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, history)
}

// DELETE /residences/{id}
func (c *ResidenceController) DeleteResidenceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getResidenceID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if err := c.residenceService.DeleteResidence(r.Context(), id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: services.MsgResidenceDeleted})
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
