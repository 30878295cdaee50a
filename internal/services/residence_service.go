package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"

	"github.com/comunidad/residence-service/internal/config"
	"github.com/comunidad/residence-service/internal/dtos"
	"github.com/comunidad/residence-service/internal/metrics"
	"github.com/comunidad/residence-service/internal/models"
	"github.com/comunidad/residence-service/internal/repositories"
	"github.com/comunidad/residence-service/internal/utils"
)

const (
	MsgResidenceNotFound  = "Residencia no encontrada"
	MsgUnitNumberExists   = "El número de unidad ya existe"
	MsgOccupantNotFound   = "El residente indicado no existe"
	MsgInvalidChangeType  = "Tipo de cambio no válido"
	MsgOccupancyMismatch  = "El estado no corresponde con la ocupación de la residencia"
	MsgUseAssignEndpoint  = "El residente actual solo puede cambiarse mediante una asignación"
	MsgRowVersionConflict = "La residencia fue modificada por otro usuario, intente de nuevo"

	MsgResidenceCreated  = "Residencia creada exitosamente"
	MsgResidenceUpdated  = "Residencia actualizada exitosamente"
	MsgResidentAssigned  = "Residente asignado exitosamente"
	MsgResidenceReleased = "Residencia liberada exitosamente"
	MsgResidenceDeleted  = "Residencia eliminada exitosamente"
)

type ResidenceService struct {
	cfg           *config.Config
	residenceRepo repositories.ResidenceRepository
	historyRepo   repositories.ReassignmentHistoryRepository
	userRepo      repositories.UserRepository
	now           func() time.Time
}

func NewResidenceService(
	cfg *config.Config,
	residenceRepo repositories.ResidenceRepository,
	historyRepo repositories.ReassignmentHistoryRepository,
	userRepo repositories.UserRepository,
) *ResidenceService {
	return &ResidenceService{
		cfg:           cfg,
		residenceRepo: residenceRepo,
		historyRepo:   historyRepo,
		userRepo:      userRepo,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

/* ───────────── queries ───────────── */

// ListResidences returns one page of residences matching every supplied filter,
// ordered by unit number.
func (s *ResidenceService) ListResidences(ctx context.Context, q dtos.ListResidencesQuery) (*dtos.PagedResidencesResponse, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = dtos.DefaultPage
	}
	if limit < 1 {
		limit = dtos.DefaultPageSize
	}
	if limit > dtos.MaxPageSize {
		limit = dtos.MaxPageSize
	}

	filter := repositories.ResidenceFilter{Search: strings.TrimSpace(q.Search)}
	if q.Estado != "" {
		st := models.ResidenceStatus(q.Estado)
		filter.Status = &st
	}
	if q.Bloque != "" {
		b := q.Bloque
		filter.Block = &b
	}

	list, total, err := s.residenceRepo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, utils.NewInternalError("Error al obtener residencias", err)
	}

	views, err := s.expand(ctx, list, models.ProjectionContact, models.ProjectionContact)
	if err != nil {
		return nil, utils.NewInternalError("Error al obtener residencias", err)
	}

	return &dtos.PagedResidencesResponse{
		Data:        views,
		Total:       total,
		Pages:       (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

// GetResidence returns a residence with owner and occupant contact details.
func (s *ResidenceService) GetResidence(ctx context.Context, id int64) (*dtos.ResidenceView, error) {
	res, err := s.residenceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, utils.NewInternalError("Error al obtener residencia", err)
	}
	if res == nil {
		return nil, utils.NewNotFoundError(MsgResidenceNotFound)
	}
	views, err := s.expand(ctx, []*models.Residence{res}, models.ProjectionFull, models.ProjectionContact)
	if err != nil {
		return nil, utils.NewInternalError("Error al obtener residencia", err)
	}
	return &views[0], nil
}

// GetHistory returns every reassignment of a residence, newest first.
func (s *ResidenceService) GetHistory(ctx context.Context, residenceID int64) ([]dtos.ReassignmentHistoryView, error) {
	res, err := s.residenceRepo.GetByID(ctx, residenceID)
	if err != nil {
		return nil, utils.NewInternalError("Error al obtener historial", err)
	}
	if res == nil {
		return nil, utils.NewNotFoundError(MsgResidenceNotFound)
	}

	rows, err := s.historyRepo.ListByResidenceID(ctx, residenceID)
	if err != nil {
		return nil, utils.NewInternalError("Error al obtener historial", err)
	}

	var ids []int64
	for _, h := range rows {
		ids = append(ids, h.UserIDs()...)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, utils.NewInternalError("Error al obtener historial", err)
	}

	out := make([]dtos.ReassignmentHistoryView, 0, len(rows))
	for _, h := range rows {
		out = append(out, dtos.ReassignmentHistoryView{
			ReassignmentHistory: *h,
			ResidenteAnterior:   lookup(users, h.PreviousOccupantID, models.ProjectionBasic),
			ResidenteNuevo:      lookup(users, h.NewOccupantID, models.ProjectionBasic),
			AutorizadoPor:       lookup(users, &h.AuthorizedBy, models.ProjectionBasic),
		})
	}
	return out, nil
}

/* ───────────── mutations ───────────── */

// CreateResidence stores a new residence. Status defaults from occupancy
// unless the caller sets it.
func (s *ResidenceService) CreateResidence(ctx context.Context, req dtos.CreateResidenceRequest) (*dtos.ResidenceView, error) {
	existing, err := s.residenceRepo.GetByUnitNumber(ctx, req.NumeroUnidad)
	if err != nil {
		return nil, utils.NewInternalError("Error al crear residencia", err)
	}
	if existing != nil {
		return nil, utils.NewValidationError(MsgUnitNumberExists, utils.ErrUnitNumberExists)
	}

	res := &models.Residence{
		UnitNumber:   req.NumeroUnidad,
		Block:        req.Bloque,
		Floor:        req.Piso,
		AreaM2:       req.AreaM2,
		Rooms:        req.Habitaciones,
		Bathrooms:    req.Banos,
		PropertyType: req.TipoPropiedad,
		Price:        req.Precio,
		OwnerID:      req.DuenoID,
		OccupantID:   req.ResidenteActual,
		AdminID:      req.AdministradorID,
		Status:       models.InitialStatus(req.Estado, req.ResidenteActual),
		Description:  req.Descripcion,
		ExtraNotes:   req.NotasAdicionales,
	}
	if req.Estacionamientos != nil {
		res.ParkingSpots = *req.Estacionamientos
	}
	if res.OccupantID != nil {
		now := s.now()
		res.AssignedAt = &now
	}

	if err := s.residenceRepo.Create(ctx, res); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, utils.NewValidationError(MsgUnitNumberExists, utils.ErrUnitNumberExists)
		}
		return nil, utils.NewInternalError("Error al crear residencia", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"residence_id": res.ID,
		"unit":         res.UnitNumber,
		"status":       res.Status,
	}).Info("Residence created")

	return s.basicView(ctx, res)
}

// UpdateResidence merges the supplied fields into the stored residence
// under optimistic locking.
func (s *ResidenceService) UpdateResidence(ctx context.Context, id int64, req dtos.UpdateResidenceRequest) (*dtos.ResidenceView, error) {
	if req.NumeroUnidad.Present() {
		other, err := s.residenceRepo.GetByUnitNumber(ctx, req.NumeroUnidad.Value)
		if err != nil {
			return nil, utils.NewInternalError("Error al actualizar residencia", err)
		}
		if other != nil && other.ID != id {
			return nil, utils.NewValidationError(MsgUnitNumberExists, utils.ErrUnitNumberExists)
		}
	}

	enforce := s.cfg != nil && s.cfg.EnforceOccupancyOnUpdate()
	err := s.residenceRepo.UpdateWithRetry(ctx, id, func(r *models.Residence) error {
		if enforce && req.ResidenteActual.Set && !sameRef(r.OccupantID, optionalRef(req.ResidenteActual)) {
			return &utils.AppError{
				StatusCode: http.StatusBadRequest,
				Code:       utils.ErrCodeValidation,
				Message:    MsgUseAssignEndpoint,
				Err:        utils.ErrOccupancyMismatch,
			}
		}

		req.NumeroUnidad.Apply(&r.UnitNumber)
		req.Bloque.ApplyPtr(&r.Block)
		req.Piso.ApplyPtr(&r.Floor)
		dtos.ApplyDecimal(req.AreaM2, &r.AreaM2)
		req.Habitaciones.ApplyPtr(&r.Rooms)
		dtos.ApplyDecimal(req.Banos, &r.Bathrooms)
		req.Estacionamientos.Apply(&r.ParkingSpots)
		req.TipoPropiedad.ApplyPtr(&r.PropertyType)
		dtos.ApplyDecimal(req.Precio, &r.Price)
		req.DuenoID.ApplyPtr(&r.OwnerID)
		req.ResidenteActual.ApplyPtr(&r.OccupantID)
		req.AdministradorID.ApplyPtr(&r.AdminID)
		req.Estado.Apply(&r.Status)
		req.Descripcion.ApplyPtr(&r.Description)
		req.NotasAdicionales.ApplyPtr(&r.ExtraNotes)

		if enforce && !r.OccupancyConsistent() {
			return &utils.AppError{
				StatusCode: http.StatusBadRequest,
				Code:       utils.ErrCodeValidation,
				Message:    MsgOccupancyMismatch,
				Err:        utils.ErrOccupancyMismatch,
			}
		}
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		switch {
		case errors.As(err, &appErr):
			return nil, appErr
		case errors.Is(err, pgx.ErrNoRows):
			return nil, utils.NewNotFoundError(MsgResidenceNotFound)
		case errors.Is(err, repositories.ErrTooMuchContention):
			return nil, &utils.AppError{
				StatusCode: http.StatusConflict,
				Code:       utils.ErrCodeRowVersionConflict,
				Message:    MsgRowVersionConflict,
				Err:        utils.ErrRowVersionConflict,
			}
		case repositories.IsUniqueViolation(err):
			return nil, utils.NewValidationError(MsgUnitNumberExists, utils.ErrUnitNumberExists)
		}
		return nil, utils.NewInternalError("Error al actualizar residencia", err)
	}

	updated, err := s.residenceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, utils.NewInternalError("Error al actualizar residencia", err)
	}
	if updated == nil {
		return nil, utils.NewNotFoundError(MsgResidenceNotFound)
	}
	return s.basicView(ctx, updated)
}

// AssignResident moves a residence to a new occupant, or releases it when no
// occupant is given, and records the transition in the reassignment history.
// Both writes commit together or not at all.
func (s *ResidenceService) AssignResident(
	ctx context.Context,
	residenceID int64,
	actingUserID int64,
	req dtos.AssignResidentRequest,
) (*dtos.ResidenceView, error) {
	changeType, err := models.ParseChangeType(req.TipoCambio)
	if err != nil {
		return nil, utils.NewValidationError(MsgInvalidChangeType, err)
	}
	newOccupant := req.NewOccupantID()

	reason := models.DefaultChangeReason
	if req.Motivo != nil && strings.TrimSpace(*req.Motivo) != "" {
		reason = *req.Motivo
	}

	// Checked before the row lock: the callback runs while the transaction
	// holds a pooled connection and must not acquire another one.
	if newOccupant != nil {
		u, err := s.userRepo.GetByID(ctx, *newOccupant)
		if err != nil {
			return nil, utils.NewInternalError("Error al asignar residente", err)
		}
		if u == nil {
			return nil, utils.NewValidationError(MsgOccupantNotFound, utils.ErrOccupantNotFound)
		}
	}

	res, entry, err := s.residenceRepo.AssignAtomic(ctx, residenceID, func(current *models.Residence, at time.Time) (*models.ReassignmentHistory, error) {
		previous := current.OccupantID
		current.Assign(newOccupant, at)
		return &models.ReassignmentHistory{
			PreviousOccupantID: previous,
			NewOccupantID:      newOccupant,
			ChangeType:         changeType,
			Reason:             reason,
			Notes:              req.Notas,
			AuthorizedBy:       actingUserID,
		}, nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NewNotFoundError(MsgResidenceNotFound)
		}
		return nil, utils.NewInternalError("Error al asignar residente", err)
	}

	metrics.RecordAssignment(entry.ChangeType)
	utils.Logger.WithFields(logrus.Fields{
		"residence_id":  residenceID,
		"history_id":    entry.ID,
		"previous":      entry.PreviousOccupantID,
		"new":           entry.NewOccupantID,
		"tipo_cambio":   entry.ChangeType,
		"authorized_by": actingUserID,
	}).Info("Residence occupant changed")

	return s.basicView(ctx, res)
}

// DeleteResidence removes a residence and, through the foreign key, its history.
func (s *ResidenceService) DeleteResidence(ctx context.Context, id int64) error {
	if err := s.residenceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return utils.NewNotFoundError(MsgResidenceNotFound)
		}
		return utils.NewInternalError("Error al eliminar residencia", err)
	}
	utils.Logger.WithField("residence_id", id).Info("Residence deleted")
	return nil
}

/* ───────────── expansion helpers ───────────── */

func (s *ResidenceService) basicView(ctx context.Context, res *models.Residence) (*dtos.ResidenceView, error) {
	views, err := s.expand(ctx, []*models.Residence{res}, models.ProjectionBasic, models.ProjectionBasic)
	if err != nil {
		return nil, utils.NewInternalError("Error al cargar usuarios de la residencia", err)
	}
	return &views[0], nil
}

// expand resolves owner, occupant and administrator of every residence with
// a single user lookup. people applies to owner and occupant.
func (s *ResidenceService) expand(
	ctx context.Context,
	list []*models.Residence,
	people, admin models.UserProjection,
) ([]dtos.ResidenceView, error) {
	var ids []int64
	for _, r := range list {
		ids = append(ids, r.UserIDs()...)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dtos.ResidenceView, 0, len(list))
	for _, r := range list {
		out = append(out, dtos.ResidenceView{
			Residence:       *r,
			Dueno:           lookup(users, r.OwnerID, people),
			ResidenteActual: lookup(users, r.OccupantID, people),
			Administrador:   lookup(users, r.AdminID, admin),
		})
	}
	return out, nil
}

func lookup(users map[int64]*models.User, id *int64, p models.UserProjection) *models.UserSummary {
	if id == nil {
		return nil
	}
	return users[*id].Summary(p)
}

func optionalRef(o dtos.Optional[int64]) *int64 {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}

func sameRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
