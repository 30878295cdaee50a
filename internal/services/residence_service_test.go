package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunidad/residence-service/internal/config"
	"github.com/comunidad/residence-service/internal/dtos"
	"github.com/comunidad/residence-service/internal/models"
	"github.com/comunidad/residence-service/internal/testhelpers"
	"github.com/comunidad/residence-service/internal/utils"
)

type fixture struct {
	store   *testhelpers.MemoryStore
	svc     *ResidenceService
	cfg     *config.Config
	admin   *models.User
	ana     *models.User
	bruno   *models.User
	ctx     context.Context
	fixedAt time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testhelpers.NewMemoryStore()
	cfg := &config.Config{}
	f := &fixture{
		store:   store,
		cfg:     cfg,
		admin:   store.AddUser("Marta", "Ríos", "admin@comunidad.test", models.UserRoleAdmin),
		ana:     store.AddUser("Ana", "Pérez", "ana@comunidad.test", models.UserRoleResident),
		bruno:   store.AddUser("Bruno", "Díaz", "bruno@comunidad.test", models.UserRoleResident),
		ctx:     context.Background(),
		fixedAt: time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
	}
	f.svc = NewResidenceService(cfg, store.ResidenceRepo(), store.HistoryRepo(), store.UserRepo())
	f.svc.now = func() time.Time { return f.fixedAt }
	return f
}

func (f *fixture) create(t *testing.T, req dtos.CreateResidenceRequest) *dtos.ResidenceView {
	t.Helper()
	view, err := f.svc.CreateResidence(f.ctx, req)
	require.NoError(t, err)
	return view
}

func (f *fixture) assign(t *testing.T, id int64, occupant *int64, tipo string) *dtos.ResidenceView {
	t.Helper()
	view, err := f.svc.AssignResident(f.ctx, id, f.admin.ID, dtos.AssignResidentRequest{
		ResidenteNuevoID: occupant,
		TipoCambio:       tipo,
	})
	require.NoError(t, err)
	return view
}

func requireAppError(t *testing.T, err error, status int, code string) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, status, appErr.StatusCode)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func ptr[T any](v T) *T { return &v }

/* ───────────── create ───────────── */

func TestCreateResidenceDerivesStatus(t *testing.T) {
	f := newFixture(t)

	free := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "B-1"})
	assert.Equal(t, models.ResidenceStatusAvailable, free.Status)
	assert.Nil(t, free.AssignedAt)
	assert.Nil(t, free.ResidenteActual)

	occupied := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "B-2", ResidenteActual: &f.ana.ID})
	assert.Equal(t, models.ResidenceStatusOccupied, occupied.Status)
	require.NotNil(t, occupied.AssignedAt)
	assert.True(t, f.fixedAt.Equal(*occupied.AssignedAt))
	require.NotNil(t, occupied.ResidenteActual)
	assert.Equal(t, "Ana", occupied.ResidenteActual.Name)
	assert.Empty(t, occupied.ResidenteActual.Email, "mutations embed the basic projection")

	explicit := f.create(t, dtos.CreateResidenceRequest{
		NumeroUnidad:    "B-3",
		ResidenteActual: &f.ana.ID,
		Estado:          ptr(models.ResidenceStatusMaintenance),
	})
	assert.Equal(t, models.ResidenceStatusMaintenance, explicit.Status)
}

func TestCreateResidenceParkingDefaultsToZero(t *testing.T) {
	f := newFixture(t)

	view := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "C-1"})
	assert.Zero(t, view.ParkingSpots)

	view = f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "C-2", Estacionamientos: ptr(2)})
	assert.Equal(t, 2, view.ParkingSpots)
}

func TestCreateResidenceRejectsDuplicateUnit(t *testing.T) {
	f := newFixture(t)
	f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "A-101"})

	_, err := f.svc.CreateResidence(f.ctx, dtos.CreateResidenceRequest{NumeroUnidad: "A-101"})
	appErr := requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
	assert.Equal(t, MsgUnitNumberExists, appErr.Message)
}

func TestCreateResidenceMapsUniqueViolation(t *testing.T) {
	f := newFixture(t)
	f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "A-101"})
	f.store.SkipUnitLookup = true

	_, err := f.svc.CreateResidence(f.ctx, dtos.CreateResidenceRequest{NumeroUnidad: "A-101"})
	appErr := requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
	assert.Equal(t, MsgUnitNumberExists, appErr.Message)
}

/* ───────────── assignment ───────────── */

func TestResidenceLifecycle(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "A-101"})
	assert.Equal(t, models.ResidenceStatusAvailable, created.Status)

	_, err := f.svc.CreateResidence(f.ctx, dtos.CreateResidenceRequest{NumeroUnidad: "A-101"})
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)

	first := f.assign(t, created.ID, &f.ana.ID, "")
	assert.Equal(t, models.ResidenceStatusOccupied, first.Status)
	require.NotNil(t, first.OccupantID)
	assert.Equal(t, f.ana.ID, *first.OccupantID)
	require.NotNil(t, first.AssignedAt)

	second := f.assign(t, created.ID, &f.bruno.ID, "Cambio")
	assert.Equal(t, f.bruno.ID, *second.OccupantID)
	assert.Equal(t, models.ResidenceStatusOccupied, second.Status)

	released := f.assign(t, created.ID, nil, "Liberacion")
	assert.Nil(t, released.OccupantID)
	assert.Nil(t, released.AssignedAt)
	assert.Equal(t, models.ResidenceStatusAvailable, released.Status)

	history, err := f.svc.GetHistory(f.ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, models.ChangeTypeRelease, history[0].ChangeType)
	assert.Equal(t, &f.bruno.ID, history[0].PreviousOccupantID)
	assert.Nil(t, history[0].NewOccupantID)

	assert.Equal(t, models.ChangeTypeChange, history[1].ChangeType)
	assert.Equal(t, &f.ana.ID, history[1].PreviousOccupantID)
	assert.Equal(t, &f.bruno.ID, history[1].NewOccupantID)

	assert.Equal(t, models.ChangeTypeAssignment, history[2].ChangeType)
	assert.Nil(t, history[2].PreviousOccupantID)
	assert.Equal(t, &f.ana.ID, history[2].NewOccupantID)
	assert.Equal(t, models.DefaultChangeReason, history[2].Reason)

	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].ChangedAt.After(history[i-1].ChangedAt), "history must be newest first")
	}
	for _, h := range history {
		assert.Equal(t, f.admin.ID, h.AuthorizedBy)
		require.NotNil(t, h.AutorizadoPor)
		assert.Equal(t, "Marta", h.AutorizadoPor.Name)
		assert.Empty(t, h.AutorizadoPor.Email)
	}
	require.NotNil(t, history[1].ResidenteAnterior)
	assert.Equal(t, "Ana", history[1].ResidenteAnterior.Name)
	require.NotNil(t, history[1].ResidenteNuevo)
	assert.Equal(t, "Bruno", history[1].ResidenteNuevo.Name)
}

func TestAssignResidentRecordsPreImage(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "A-102", ResidenteActual: &f.ana.ID})

	_, err := f.svc.AssignResident(f.ctx, res.ID, f.admin.ID, dtos.AssignResidentRequest{
		ResidenteID: &f.bruno.ID,
		TipoCambio:  "Venta",
		Motivo:      ptr("Venta del inmueble"),
		Notas:       ptr("Escritura 123"),
	})
	require.NoError(t, err)

	history, err := f.svc.GetHistory(f.ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	h := history[0]
	assert.Equal(t, &f.ana.ID, h.PreviousOccupantID)
	assert.Equal(t, &f.bruno.ID, h.NewOccupantID)
	assert.Equal(t, models.ChangeTypeChange, h.ChangeType, "legacy values are canonicalized")
	assert.Equal(t, "Venta del inmueble", h.Reason)
	assert.Equal(t, ptr("Escritura 123"), h.Notes)

	stored := f.store.Residence(res.ID)
	assert.Equal(t, &f.bruno.ID, stored.OccupantID)
	assert.False(t, h.ChangedAt.After(stored.UpdatedAt))
}

func TestAssignResidentStampsTransitionOnce(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "A-104"})

	_, err := f.svc.AssignResident(f.ctx, res.ID, f.admin.ID, dtos.AssignResidentRequest{ResidenteNuevoID: &f.ana.ID})
	require.NoError(t, err)

	history, err := f.svc.GetHistory(f.ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	stored := f.store.Residence(res.ID)
	require.NotNil(t, stored.AssignedAt)
	assert.True(t, history[0].ChangedAt.Equal(*stored.AssignedAt), "assignment date comes from the store clock")
	assert.True(t, history[0].ChangedAt.Equal(stored.UpdatedAt))
	assert.False(t, stored.AssignedAt.Equal(f.fixedAt), "service clock is not used for transitions")
}

func TestAssignResidentPrefersNewOccupantField(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "A-103"})

	view, err := f.svc.AssignResident(f.ctx, res.ID, f.admin.ID, dtos.AssignResidentRequest{
		ResidenteNuevoID: &f.ana.ID,
		ResidenteID:      &f.bruno.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, &f.ana.ID, view.OccupantID)
}

func TestReleaseOfUnoccupiedResidenceStillRecordsHistory(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "D-1"})

	first := f.assign(t, res.ID, nil, "Liberación")
	second := f.assign(t, res.ID, nil, "Liberación")

	assert.Equal(t, models.ResidenceStatusAvailable, first.Status)
	assert.Equal(t, models.ResidenceStatusAvailable, second.Status)
	assert.Nil(t, second.OccupantID)
	assert.Equal(t, 2, f.store.HistoryCount(res.ID))
}

func TestAssignResidentValidation(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "E-1"})

	t.Run("unknown change type", func(t *testing.T) {
		_, err := f.svc.AssignResident(f.ctx, res.ID, f.admin.ID, dtos.AssignResidentRequest{
			ResidenteNuevoID: &f.ana.ID,
			TipoCambio:       "Permuta",
		})
		appErr := requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
		assert.Equal(t, MsgInvalidChangeType, appErr.Message)
	})

	t.Run("occupant must exist", func(t *testing.T) {
		_, err := f.svc.AssignResident(f.ctx, res.ID, f.admin.ID, dtos.AssignResidentRequest{ResidenteNuevoID: ptr[int64](999)})
		appErr := requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
		assert.ErrorIs(t, appErr, utils.ErrOccupantNotFound)
	})

	t.Run("residence must exist", func(t *testing.T) {
		_, err := f.svc.AssignResident(f.ctx, 404, f.admin.ID, dtos.AssignResidentRequest{ResidenteNuevoID: &f.ana.ID})
		requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNotFound)
	})

	assert.Zero(t, f.store.HistoryCount(res.ID))
	assert.Equal(t, models.ResidenceStatusAvailable, f.store.Residence(res.ID).Status)
}

func TestAssignResidentRollsBackOnHistoryFailure(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "F-1"})
	f.store.FailHistoryInsert = errors.New("insert reassignment history: connection lost")

	_, err := f.svc.AssignResident(f.ctx, res.ID, f.admin.ID, dtos.AssignResidentRequest{ResidenteNuevoID: &f.ana.ID})
	requireAppError(t, err, http.StatusInternalServerError, utils.ErrCodeInternal)

	stored := f.store.Residence(res.ID)
	assert.Nil(t, stored.OccupantID)
	assert.Equal(t, models.ResidenceStatusAvailable, stored.Status)
	assert.Zero(t, f.store.HistoryCount(res.ID))
}

func TestConcurrentAssignmentsKeepHistoryContiguous(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "G-1"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		occupant := f.ana.ID
		if i%2 == 1 {
			occupant = f.bruno.ID
		}
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.svc.AssignResident(f.ctx, res.ID, f.admin.ID, dtos.AssignResidentRequest{ResidenteNuevoID: &id})
			assert.NoError(t, err)
		}(occupant)
	}
	wg.Wait()

	history, err := f.svc.GetHistory(f.ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, history, 20)

	// Each row's previous occupant is the next-older row's new occupant.
	for i := 0; i < len(history)-1; i++ {
		assert.Equal(t, history[i+1].NewOccupantID, history[i].PreviousOccupantID, "row %d", i)
	}
	assert.Nil(t, history[len(history)-1].PreviousOccupantID)
	assert.Equal(t, history[0].NewOccupantID, f.store.Residence(res.ID).OccupantID)
}

/* ───────────── update ───────────── */

func TestUpdateResidencePartialMerge(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{
		NumeroUnidad: "H-1",
		Bloque:       ptr("H"),
		Descripcion:  ptr("Esquinera"),
		DuenoID:      &f.ana.ID,
	})

	var req dtos.UpdateResidenceRequest
	req.Descripcion = dtos.Optional[string]{Set: true, Null: true}
	req.Piso = dtos.Optional[int]{Set: true, Value: 3}

	view, err := f.svc.UpdateResidence(f.ctx, res.ID, req)
	require.NoError(t, err)
	assert.Nil(t, view.Description)
	assert.Equal(t, ptr(3), view.Floor)
	assert.Equal(t, ptr("H"), view.Block, "absent fields are unchanged")
	assert.Equal(t, &f.ana.ID, view.OwnerID)
	assert.Equal(t, int64(2), view.RowVersion)
}

func TestUpdateResidenceAllowsLooseOccupancyByDefault(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "H-2"})

	var req dtos.UpdateResidenceRequest
	req.Estado = dtos.Optional[models.ResidenceStatus]{Set: true, Value: models.ResidenceStatusOccupied}

	view, err := f.svc.UpdateResidence(f.ctx, res.ID, req)
	require.NoError(t, err)
	assert.Equal(t, models.ResidenceStatusOccupied, view.Status)
	assert.Nil(t, view.OccupantID)
}

func TestUpdateResidenceEnforcesOccupancyWhenFlagged(t *testing.T) {
	f := newFixture(t)
	f.cfg.LDFlag_EnforceOccupancyOnUpdate = true
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "H-3"})

	var mismatch dtos.UpdateResidenceRequest
	mismatch.Estado = dtos.Optional[models.ResidenceStatus]{Set: true, Value: models.ResidenceStatusOccupied}
	_, err := f.svc.UpdateResidence(f.ctx, res.ID, mismatch)
	appErr := requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
	assert.Equal(t, MsgOccupancyMismatch, appErr.Message)

	var occupant dtos.UpdateResidenceRequest
	occupant.ResidenteActual = dtos.Optional[int64]{Set: true, Value: f.ana.ID}
	_, err = f.svc.UpdateResidence(f.ctx, res.ID, occupant)
	appErr = requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
	assert.Equal(t, MsgUseAssignEndpoint, appErr.Message)

	var maintenance dtos.UpdateResidenceRequest
	maintenance.Estado = dtos.Optional[models.ResidenceStatus]{Set: true, Value: models.ResidenceStatusMaintenance}
	view, err := f.svc.UpdateResidence(f.ctx, res.ID, maintenance)
	require.NoError(t, err)
	assert.Equal(t, models.ResidenceStatusMaintenance, view.Status)

	stored := f.store.Residence(res.ID)
	assert.Nil(t, stored.OccupantID)
}

func TestUpdateResidenceUnitNumberUniqueness(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "J-1"})
	f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "J-2"})

	var rename dtos.UpdateResidenceRequest
	rename.NumeroUnidad = dtos.Optional[string]{Set: true, Value: "J-2"}
	_, err := f.svc.UpdateResidence(f.ctx, a.ID, rename)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)

	rename.NumeroUnidad.Value = "J-1"
	_, err = f.svc.UpdateResidence(f.ctx, a.ID, rename)
	assert.NoError(t, err, "keeping its own unit number is not a conflict")
}

func TestUpdateResidenceContention(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "K-1"})

	var req dtos.UpdateResidenceRequest
	req.Piso = dtos.Optional[int]{Set: true, Value: 1}

	f.store.StaleUpdates = 2
	_, err := f.svc.UpdateResidence(f.ctx, res.ID, req)
	require.NoError(t, err, "two lost races are absorbed by the retry loop")

	f.store.StaleUpdates = 3
	_, err = f.svc.UpdateResidence(f.ctx, res.ID, req)
	appErr := requireAppError(t, err, http.StatusConflict, utils.ErrCodeRowVersionConflict)
	assert.ErrorIs(t, appErr, utils.ErrRowVersionConflict)
}

func TestUpdateResidenceNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateResidence(f.ctx, 77, dtos.UpdateResidenceRequest{})
	requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNotFound)
}

/* ───────────── queries ───────────── */

func TestListResidencesPagination(t *testing.T) {
	f := newFixture(t)
	for i := 12; i >= 1; i-- {
		f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: fmt.Sprintf("L-%02d", i)})
	}

	page, err := f.svc.ListResidences(f.ctx, dtos.ListResidencesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Data, 10)
	assert.Equal(t, "L-01", page.Data[0].UnitNumber)

	page, err = f.svc.ListResidences(f.ctx, dtos.ListResidencesQuery{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "L-06", page.Data[0].UnitNumber)

	page, err = f.svc.ListResidences(f.ctx, dtos.ListResidencesQuery{Page: -1, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.Pages)
	assert.Len(t, page.Data, 12)

	page, err = f.svc.ListResidences(f.ctx, dtos.ListResidencesQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 12, page.Total)
}

func TestListResidencesFilters(t *testing.T) {
	f := newFixture(t)
	f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "A-101", Bloque: ptr("A"), ResidenteActual: &f.ana.ID, AdministradorID: &f.admin.ID})
	f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "A-102", Bloque: ptr("A")})
	f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "B-201", Bloque: ptr("B")})

	page, err := f.svc.ListResidences(f.ctx, dtos.ListResidencesQuery{Estado: "Disponible", Bloque: "A"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "A-102", page.Data[0].UnitNumber)

	page, err = f.svc.ListResidences(f.ctx, dtos.ListResidencesQuery{Search: "b-2"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "B-201", page.Data[0].UnitNumber)

	page, err = f.svc.ListResidences(f.ctx, dtos.ListResidencesQuery{Estado: "Ocupada"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	item := page.Data[0]
	require.NotNil(t, item.ResidenteActual)
	assert.Equal(t, "ana@comunidad.test", item.ResidenteActual.Email)
	assert.Nil(t, item.ResidenteActual.Phone, "listing never exposes phones")
	require.NotNil(t, item.Administrador)
	assert.Equal(t, "admin@comunidad.test", item.Administrador.Email)
}

func TestGetResidenceProjections(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{
		NumeroUnidad:    "M-1",
		DuenoID:         &f.bruno.ID,
		ResidenteActual: &f.ana.ID,
		AdministradorID: &f.admin.ID,
	})

	view, err := f.svc.GetResidence(f.ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Dueno)
	assert.NotNil(t, view.Dueno.Phone)
	require.NotNil(t, view.ResidenteActual)
	assert.Equal(t, f.ana.Phone, view.ResidenteActual.Phone)
	require.NotNil(t, view.Administrador)
	assert.Equal(t, "admin@comunidad.test", view.Administrador.Email)
	assert.Nil(t, view.Administrador.Phone)

	_, err = f.svc.GetResidence(f.ctx, 999)
	requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNotFound)
}

func TestGetHistoryOfMissingResidence(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetHistory(f.ctx, 5)
	requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNotFound)
}

/* ───────────── delete ───────────── */

func TestDeleteResidenceCascadesHistory(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, dtos.CreateResidenceRequest{NumeroUnidad: "N-1"})
	f.assign(t, res.ID, &f.ana.ID, "")

	require.NoError(t, f.svc.DeleteResidence(f.ctx, res.ID))
	assert.Nil(t, f.store.Residence(res.ID))
	assert.Zero(t, f.store.HistoryCount(res.ID))

	err := f.svc.DeleteResidence(f.ctx, res.ID)
	requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNotFound)
}
