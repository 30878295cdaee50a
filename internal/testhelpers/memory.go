package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/comunidad/residence-service/internal/models"
	"github.com/comunidad/residence-service/internal/repositories"
)

// ErrDuplicateUnit mimics the unique-violation the database raises on
// numero_unidad.
var ErrDuplicateUnit = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

// MemoryStore is an in-memory twin of the residence, history and user tables
// used by service and controller tests. AssignAtomic calls are serialized
// the way the row lock serializes them in Postgres.
type MemoryStore struct {
	mu       sync.Mutex
	assignMu sync.Mutex

	residences map[int64]*models.Residence
	history    []*models.ReassignmentHistory
	users      map[int64]*models.User

	nextResidenceID int64
	nextHistoryID   int64
	nextUserID      int64

	// Clock drives every generated timestamp.
	Clock func() time.Time

	// FailHistoryInsert makes the next history write fail, to exercise rollback.
	FailHistoryInsert error
	// StaleUpdates makes that many UpdateIfVersion calls lose the race.
	StaleUpdates int
	// SkipUnitLookup hides existing rows from GetByUnitNumber so the
	// unique constraint path can be reached.
	SkipUnitLookup bool
}

func NewMemoryStore() *MemoryStore {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	return &MemoryStore{
		residences: map[int64]*models.Residence{},
		users:      map[int64]*models.User{},
		Clock: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

func (s *MemoryStore) ResidenceRepo() repositories.ResidenceRepository {
	return &memoryResidenceRepo{s}
}

func (s *MemoryStore) HistoryRepo() repositories.ReassignmentHistoryRepository {
	return &memoryHistoryRepo{s}
}

func (s *MemoryStore) UserRepo() repositories.UserRepository {
	return &memoryUserRepo{s}
}

// AddUser inserts a user directly and returns its id.
func (s *MemoryStore) AddUser(name, surname, email string, role models.UserRole) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	phone := fmt.Sprintf("+57300%07d", s.nextUserID)
	u := &models.User{
		ID:       s.nextUserID,
		Name:     name,
		Surname:  surname,
		Email:    email,
		Phone:    &phone,
		Role:     role,
		IsActive: true,
	}
	s.users[u.ID] = u
	return u
}

// PutResidence stores r verbatim, bypassing every rule. Used to build
// inconsistent fixtures.
func (s *MemoryStore) PutResidence(r *models.Residence) *models.Residence {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.nextResidenceID++
		r.ID = s.nextResidenceID
	}
	if r.RowVersion == 0 {
		r.RowVersion = 1
	}
	cp := *r
	s.residences[r.ID] = &cp
	return r
}

// PutHistory appends h verbatim.
func (s *MemoryStore) PutHistory(h *models.ReassignmentHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHistoryID++
	h.ID = s.nextHistoryID
	if h.ChangedAt.IsZero() {
		h.ChangedAt = s.Clock()
	}
	cp := *h
	s.history = append(s.history, &cp)
}

// HistoryCount returns the number of history rows of a residence.
func (s *MemoryStore) HistoryCount(residenceID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.history {
		if h.ResidenceID == residenceID {
			n++
		}
	}
	return n
}

// Residence returns a copy of the stored row, or nil.
func (s *MemoryStore) Residence(id int64) *models.Residence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.residenceLocked(id)
}

func (s *MemoryStore) residenceLocked(id int64) *models.Residence {
	r, ok := s.residences[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

/* ───────────── residences ───────────── */

type memoryResidenceRepo struct{ s *MemoryStore }

func (m *memoryResidenceRepo) Create(_ context.Context, r *models.Residence) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.residences {
		if existing.UnitNumber == r.UnitNumber {
			return ErrDuplicateUnit
		}
	}
	s.nextResidenceID++
	now := s.Clock()
	r.ID = s.nextResidenceID
	r.CreatedAt, r.UpdatedAt = now, now
	r.RowVersion = 1
	cp := *r
	s.residences[r.ID] = &cp
	return nil
}

func (m *memoryResidenceRepo) GetByID(_ context.Context, id int64) (*models.Residence, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.residenceLocked(id), nil
}

func (m *memoryResidenceRepo) GetByUnitNumber(_ context.Context, unitNumber string) (*models.Residence, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SkipUnitLookup {
		return nil, nil
	}
	for id, r := range s.residences {
		if r.UnitNumber == unitNumber {
			return s.residenceLocked(id), nil
		}
	}
	return nil, nil
}

func (m *memoryResidenceRepo) List(_ context.Context, f repositories.ResidenceFilter, limit, offset int) ([]*models.Residence, int, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Residence
	for id, r := range s.residences {
		if matches(r, f) {
			matched = append(matched, s.residenceLocked(id))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UnitNumber < matched[j].UnitNumber })

	total := len(matched)
	if offset >= total {
		return []*models.Residence{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func matches(r *models.Residence, f repositories.ResidenceFilter) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.Block != nil && (r.Block == nil || *r.Block != *f.Block) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		inUnit := strings.Contains(strings.ToLower(r.UnitNumber), needle)
		inBlock := r.Block != nil && strings.Contains(strings.ToLower(*r.Block), needle)
		if !inUnit && !inBlock {
			return false
		}
	}
	return true
}

func (m *memoryResidenceRepo) ListAll(ctx context.Context) ([]*models.Residence, error) {
	out, _, err := m.List(ctx, repositories.ResidenceFilter{}, 1<<30, 0)
	return out, err
}

func (m *memoryResidenceRepo) UpdateIfVersion(_ context.Context, r *models.Residence, expected int64) (pgconn.CommandTag, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.residences[r.ID]
	if !ok {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	if s.StaleUpdates > 0 {
		s.StaleUpdates--
		stored.RowVersion++
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	if stored.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	for id, other := range s.residences {
		if id != r.ID && other.UnitNumber == r.UnitNumber {
			return nil, ErrDuplicateUnit
		}
	}
	cp := *r
	cp.RowVersion = expected + 1
	cp.UpdatedAt = s.Clock()
	s.residences[r.ID] = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (m *memoryResidenceRepo) UpdateWithRetry(ctx context.Context, id int64, mutate func(*models.Residence) error) error {
	return repositories.WithRetry(ctx, 3, id, m.GetByID, m.UpdateIfVersion, mutate)
}

func (m *memoryResidenceRepo) AssignAtomic(
	_ context.Context,
	id int64,
	apply repositories.AssignFunc,
) (*models.Residence, *models.ReassignmentHistory, error) {
	s := m.s
	s.assignMu.Lock()
	defer s.assignMu.Unlock()

	current := s.Residence(id)
	if current == nil {
		return nil, nil, pgx.ErrNoRows
	}

	// apply may read users, so the store lock is only taken for the writes.
	s.mu.Lock()
	now := s.Clock()
	s.mu.Unlock()
	entry, err := apply(current, now)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailHistoryInsert != nil {
		err := s.FailHistoryInsert
		s.FailHistoryInsert = nil
		return nil, nil, err
	}

	s.nextHistoryID++
	entry.ID = s.nextHistoryID
	entry.ResidenceID = id
	entry.ChangedAt = now
	h := *entry
	s.history = append(s.history, &h)

	current.UpdatedAt = now
	current.RowVersion++
	s.residences[id] = current
	return s.residenceLocked(id), entry, nil
}

func (m *memoryResidenceRepo) Delete(_ context.Context, id int64) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residences[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.residences, id)
	kept := s.history[:0]
	for _, h := range s.history {
		if h.ResidenceID != id {
			kept = append(kept, h)
		}
	}
	s.history = kept
	return nil
}

/* ───────────── history ───────────── */

type memoryHistoryRepo struct{ s *MemoryStore }

func (m *memoryHistoryRepo) ListByResidenceID(_ context.Context, residenceID int64) ([]*models.ReassignmentHistory, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.ReassignmentHistory
	for _, h := range s.history {
		if h.ResidenceID == residenceID {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ChangedAt.After(out[j].ChangedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memoryHistoryRepo) LatestPerResidence(ctx context.Context) (map[int64]*models.ReassignmentHistory, error) {
	s := m.s
	s.mu.Lock()
	ids := map[int64]struct{}{}
	for _, h := range s.history {
		ids[h.ResidenceID] = struct{}{}
	}
	s.mu.Unlock()

	out := make(map[int64]*models.ReassignmentHistory, len(ids))
	for id := range ids {
		rows, err := m.ListByResidenceID(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = rows[0]
	}
	return out, nil
}

/* ───────────── users ───────────── */

type memoryUserRepo struct{ s *MemoryStore }

func (m *memoryUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUserRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make(map[int64]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.s.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryUserRepo) Create(_ context.Context, u *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Email == u.Email {
			return errors.New("duplicate email")
		}
	}
	m.s.nextUserID++
	u.ID = m.s.nextUserID
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}
