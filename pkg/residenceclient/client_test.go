package residenceclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const residenceJSON = `{
	"id": 3, "numero_unidad": "A-101", "bloque": "A", "area_m2": "72.5",
	"estacionamientos": 1, "estado": "Ocupada", "residente_actual_id": 5,
	"residenteActual": {"id": 5, "nombre": "Ana", "apellido": "Pérez"},
	"row_version": 2
}`

func TestGetAllSendsFiltersAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/residences", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "Ocupada", q.Get("estado"))
		assert.Equal(t, "A", q.Get("bloque"))
		assert.Equal(t, "10", q.Get("search"))
		assert.Equal(t, "2", q.Get("page"))
		assert.False(t, q.Has("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[`+residenceJSON+`],"total":11,"pages":2,"currentPage":2}`)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Token: "secret-token"})
	page, err := c.GetAll(context.Background(), ListParams{Estado: "Ocupada", Bloque: "A", Search: "10", Page: 2})
	require.NoError(t, err)

	assert.Equal(t, 11, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Data, 1)
	res := page.Data[0]
	assert.Equal(t, "A-101", res.NumeroUnidad)
	assert.Equal(t, "72.5", res.AreaM2.Decimal.String())
	assert.False(t, res.Precio.Valid)
	require.NotNil(t, res.ResidenteActual)
	assert.Equal(t, "Ana", res.ResidenteActual.Nombre)
	assert.Equal(t, int64(2), res.RowVersion)
}

func TestGetAllEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": nil, "total": 0, "pages": 0, "currentPage": 1})
	}))
	defer srv.Close()

	page, err := New(Options{BaseURL: srv.URL}).GetAll(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "Residencia no encontrada"})
	}))
	defer srv.Close()

	_, err := New(Options{BaseURL: srv.URL}).GetByID(context.Background(), 9)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "Residencia no encontrada", apiErr.Message)
	assert.Equal(t, "404 not_found: Residencia no encontrada", apiErr.Error())
}

func TestAPIErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := New(Options{BaseURL: srv.URL}).Delete(context.Background(), 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Forbidden", apiErr.Message)
}

func TestOnlyReadsAreRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "internal_server_error", "message": "boom"})
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, RetryCount: 2})

	_, err := c.GetByID(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	_, err = c.AssignResident(context.Background(), 1, AssignResidentInput{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMutationsDecodeEnvelope(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		status := http.StatusOK
		if r.Method == http.MethodPost && r.URL.Path == "/residences" {
			status = http.StatusCreated
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"message":"ok","residence":`+residenceJSON+`}`)
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL})
	ctx := context.Background()

	created, err := c.Create(ctx, CreateResidenceInput{NumeroUnidad: "A-101"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)

	_, err = c.Update(ctx, 3, ResidenceUpdate{"descripcion": nil, "piso": 2})
	require.NoError(t, err)

	_, err = c.AssignResident(ctx, 3, AssignResidentInput{})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 3)
	assert.Equal(t, "A-101", bodies[0]["numero_unidad"])
	assert.Contains(t, bodies[1], "descripcion")
	assert.Nil(t, bodies[1]["descripcion"])
	assert.Contains(t, bodies[2], "residente_nuevo_id", "a release sends an explicit null")
	assert.Nil(t, bodies[2]["residente_nuevo_id"])
}

func TestMutationWithoutResidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}))
	defer srv.Close()

	_, err := New(Options{BaseURL: srv.URL}).Update(context.Background(), 1, ResidenceUpdate{})
	assert.ErrorContains(t, err, "no residence")
}

func TestGetReassignmentHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/residences/3/history", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id":2,"residencia_id":3,"residente_anterior_id":5,"residente_nuevo_id":null,"tipo_cambio":"Liberacion",
			 "motivo":"Mudanza","autorizado_por":1,"autorizadoPor":{"id":1,"nombre":"Marta","apellido":"Ríos"}},
			{"id":1,"residencia_id":3,"residente_anterior_id":null,"residente_nuevo_id":5,"tipo_cambio":"Asignacion",
			 "motivo":"Asignación de residente","autorizado_por":1}
		]`)
	}))
	defer srv.Close()

	rows, err := New(Options{BaseURL: srv.URL}).GetReassignmentHistory(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Liberacion", rows[0].TipoCambio)
	assert.Nil(t, rows[0].ResidenteNuevoID)
	require.NotNil(t, rows[0].AutorizadoPorUser)
	assert.Equal(t, "Marta", rows[0].AutorizadoPorUser.Nombre)
	assert.Equal(t, int64(5), *rows[1].ResidenteNuevoID)
}
