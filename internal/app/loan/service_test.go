package loan_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/diillson/equipment-lending/internal/adapter/database"
	"github.com/diillson/equipment-lending/internal/app/loan"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"github.com/diillson/equipment-lending/internal/mocks"
	"github.com/diillson/equipment-lending/internal/testutils"
	"github.com/diillson/equipment-lending/pkg/clock"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db      *database.Database
	clock   *clock.Fixed
	service *loan.Service
	admin   model.Actor
	student model.Actor
	other   model.Actor
	viewer  model.Actor
}

type recorder struct {
	mu       sync.Mutex
	created  int
	returned int
	fines    float64
	failures map[string]int
}

func (r *recorder) LoanCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *recorder) LoanReturned(_ int, fine float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.returned++
	r.fines += fine
}

func (r *recorder) OperationFailed(_ string, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures == nil {
		r.failures = map[string]int{}
	}
	r.failures[kind]++
}

type invalidator struct{ calls int }

func (i *invalidator) InvalidateListings(context.Context) { i.calls++ }

func newFixture(t *testing.T, opts ...loan.Option) *fixture {
	db := testutils.NewTestDatabase(t)
	clk := &clock.Fixed{At: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}

	return &fixture{
		db:      db,
		clock:   clk,
		service: loan.NewService(db, clk, 50.0, testutils.TestLogger(t), opts...),
		admin:   testutils.SeedUser(t, db, "admin", model.RoleAdmin).ToModel().Actor(),
		student: testutils.SeedUser(t, db, "ana", model.RoleStudent).ToModel().Actor(),
		other:   testutils.SeedUser(t, db, "bruno", model.RoleStudent).ToModel().Actor(),
		viewer:  testutils.SeedUser(t, db, "carla", model.RoleConsulta).ToModel().Actor(),
	}
}

func (f *fixture) equipmentStatus(t *testing.T, id string) model.EquipmentStatus {
	equipment, err := f.db.Equipment().GetByID(context.Background(), id)
	require.NoError(t, err)
	return model.EquipmentStatus(equipment.Status)
}

// requireConsistent verifica que cada equipamento está Loaned se e somente se tem exatamente um empréstimo ativo
func (f *fixture) requireConsistent(t *testing.T) {
	ctx := context.Background()
	items, err := f.db.Equipment().List(ctx)
	require.NoError(t, err)

	for _, item := range items {
		active, err := f.db.Loans().CountActiveByEquipment(ctx, item.ID)
		require.NoError(t, err)
		if model.EquipmentStatus(item.Status) == model.EquipmentLoaned {
			assert.Equal(t, int64(1), active, "equipamento %s", item.Code)
		} else {
			assert.Equal(t, int64(0), active, "equipamento %s", item.Code)
		}
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("empresta equipamento disponível", func(t *testing.T) {
		rec := &recorder{}
		inv := &invalidator{}
		f := newFixture(t, loan.WithRecorder(rec), loan.WithListingInvalidator(inv))
		equipment := testutils.SeedEquipment(t, f.db, "NB-01", nil)
		expected := f.clock.Now().Add(48 * time.Hour)

		created, err := f.service.Create(ctx, f.student, equipment.ID, &expected)
		require.NoError(t, err)

		assert.Len(t, created.ID, 26)
		assert.Equal(t, model.LoanActive, created.State)
		assert.Equal(t, f.student.ID, created.StudentID)
		assert.True(t, f.clock.Now().Equal(created.CreatedAt))
		require.NotNil(t, created.ExpectedReturnAt)
		assert.True(t, expected.Equal(*created.ExpectedReturnAt))
		assert.Zero(t, created.LateDays)
		assert.Zero(t, created.FineAmount)
		assert.Equal(t, model.EquipmentLoaned, f.equipmentStatus(t, equipment.ID))
		assert.Equal(t, 1, rec.created)
		assert.Equal(t, 1, inv.calls)
		f.requireConsistent(t)
	})

	t.Run("prazo é opcional", func(t *testing.T) {
		f := newFixture(t)
		equipment := testutils.SeedEquipment(t, f.db, "NB-02", nil)

		created, err := f.service.Create(ctx, f.student, equipment.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, created.ExpectedReturnAt)
	})

	t.Run("equipamento já emprestado", func(t *testing.T) {
		rec := &recorder{}
		f := newFixture(t, loan.WithRecorder(rec))
		equipment := testutils.SeedEquipment(t, f.db, "NB-03", nil)

		_, err := f.service.Create(ctx, f.student, equipment.ID, nil)
		require.NoError(t, err)

		_, err = f.service.Create(ctx, f.other, equipment.ID, nil)
		assert.ErrorIs(t, err, apperrors.ErrNotAvailable)
		assert.Equal(t, 1, rec.failures["not_available"])

		loans, err := f.db.Loans().List(ctx, repository.LoanFilter{})
		require.NoError(t, err)
		assert.Len(t, loans, 1)
		f.requireConsistent(t)
	})

	t.Run("equipamento inexistente", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Create(ctx, f.student, "missing", nil)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("somente alunos criam empréstimos", func(t *testing.T) {
		f := newFixture(t)
		equipment := testutils.SeedEquipment(t, f.db, "NB-04", nil)

		for _, actor := range []model.Actor{f.admin, f.viewer} {
			_, err := f.service.Create(ctx, actor, equipment.ID, nil)
			assert.ErrorIs(t, err, apperrors.ErrForbidden)
		}
		assert.Equal(t, model.EquipmentAvailable, f.equipmentStatus(t, equipment.ID))
	})

	t.Run("prazo no passado", func(t *testing.T) {
		f := newFixture(t)
		equipment := testutils.SeedEquipment(t, f.db, "NB-05", nil)
		past := f.clock.Now().Add(-time.Minute)

		_, err := f.service.Create(ctx, f.student, equipment.ID, &past)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Equal(t, model.EquipmentAvailable, f.equipmentStatus(t, equipment.ID))
	})

	t.Run("pedidos concorrentes no mesmo equipamento", func(t *testing.T) {
		f := newFixture(t)
		equipment := testutils.SeedEquipment(t, f.db, "NB-06", nil)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			refused   int
		)
		for _, actor := range []model.Actor{f.student, f.other, f.student, f.other} {
			wg.Add(1)
			go func(actor model.Actor) {
				defer wg.Done()
				_, err := f.service.Create(ctx, actor, equipment.ID, nil)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
				} else if apperrors.Is(err, apperrors.ErrNotAvailable) {
					refused++
				}
			}(actor)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 3, refused)
		f.requireConsistent(t)
	})
}

func TestService_Return(t *testing.T) {
	ctx := context.Background()

	t.Run("devolução 25 horas depois do prazo gera um dia de multa", func(t *testing.T) {
		rec := &recorder{}
		f := newFixture(t, loan.WithRecorder(rec))
		equipment := testutils.SeedEquipment(t, f.db, "CAM-01", nil)
		expected := f.clock.Now().Add(2 * time.Hour)

		created, err := f.service.Create(ctx, f.student, equipment.ID, &expected)
		require.NoError(t, err)

		f.clock.At = expected.Add(25 * time.Hour)
		returned, err := f.service.Return(ctx, f.student, created.ID)
		require.NoError(t, err)

		assert.Equal(t, model.LoanReturned, returned.State)
		assert.Equal(t, 1, returned.LateDays)
		assert.Equal(t, 50.0, returned.FineAmount)
		require.NotNil(t, returned.ReturnedAt)
		assert.True(t, f.clock.Now().Equal(*returned.ReturnedAt))
		assert.Equal(t, model.EquipmentAvailable, f.equipmentStatus(t, equipment.ID))
		assert.Equal(t, 50.0, rec.fines)

		stored, err := f.db.Loans().GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, string(model.LoanReturned), stored.State)
		assert.Equal(t, 1, stored.LateDays)
		assert.Equal(t, 50.0, stored.FineAmount)
		f.requireConsistent(t)
	})

	t.Run("devolução 23 horas depois do prazo não gera multa", func(t *testing.T) {
		f := newFixture(t)
		equipment := testutils.SeedEquipment(t, f.db, "CAM-02", nil)
		expected := f.clock.Now().Add(time.Hour)

		created, err := f.service.Create(ctx, f.student, equipment.ID, &expected)
		require.NoError(t, err)

		f.clock.At = expected.Add(23 * time.Hour)
		returned, err := f.service.Return(ctx, f.admin, created.ID)
		require.NoError(t, err)

		assert.Equal(t, 0, returned.LateDays)
		assert.Equal(t, 0.0, returned.FineAmount)
	})

	t.Run("usa a taxa do equipamento", func(t *testing.T) {
		f := newFixture(t)
		rate := 12.5
		equipment := testutils.SeedEquipment(t, f.db, "CAM-03", &rate)
		expected := f.clock.Now()

		created, err := f.service.Create(ctx, f.student, equipment.ID, &expected)
		require.NoError(t, err)

		f.clock.Advance(72*time.Hour + time.Minute)
		returned, err := f.service.Return(ctx, f.student, created.ID)
		require.NoError(t, err)

		assert.Equal(t, 3, returned.LateDays)
		assert.Equal(t, 37.5, returned.FineAmount)
	})

	t.Run("taxa zero explícita isenta de multa", func(t *testing.T) {
		f := newFixture(t)
		free := 0.0
		equipment := testutils.SeedEquipment(t, f.db, "CAM-04", &free)
		expected := f.clock.Now()

		created, err := f.service.Create(ctx, f.student, equipment.ID, &expected)
		require.NoError(t, err)

		f.clock.Advance(96 * time.Hour)
		returned, err := f.service.Return(ctx, f.student, created.ID)
		require.NoError(t, err)

		assert.Equal(t, 4, returned.LateDays)
		assert.Equal(t, 0.0, returned.FineAmount)
	})

	t.Run("devolução em dobro é recusada", func(t *testing.T) {
		f := newFixture(t)
		equipment := testutils.SeedEquipment(t, f.db, "CAM-05", nil)

		created, err := f.service.Create(ctx, f.student, equipment.ID, nil)
		require.NoError(t, err)
		_, err = f.service.Return(ctx, f.student, created.ID)
		require.NoError(t, err)

		// outro aluno pega o mesmo equipamento; a devolução repetida não pode liberá-lo
		second, err := f.service.Create(ctx, f.other, equipment.ID, nil)
		require.NoError(t, err)

		_, err = f.service.Return(ctx, f.admin, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Equal(t, model.EquipmentLoaned, f.equipmentStatus(t, equipment.ID))

		stored, err := f.db.Loans().GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, string(model.LoanActive), stored.State)
		f.requireConsistent(t)
	})

	t.Run("aluno não devolve empréstimo de outro", func(t *testing.T) {
		f := newFixture(t)
		equipment := testutils.SeedEquipment(t, f.db, "CAM-06", nil)

		created, err := f.service.Create(ctx, f.student, equipment.ID, nil)
		require.NoError(t, err)

		_, err = f.service.Return(ctx, f.other, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		_, err = f.service.Return(ctx, f.viewer, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		assert.Equal(t, model.EquipmentLoaned, f.equipmentStatus(t, equipment.ID))
	})

	t.Run("empréstimo inexistente", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Return(ctx, f.admin, "01HZZZZZZZZZZZZZZZZZZZZZZZ")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("devoluções concorrentes aplicam a multa uma vez", func(t *testing.T) {
		rec := &recorder{}
		f := newFixture(t, loan.WithRecorder(rec))
		equipment := testutils.SeedEquipment(t, f.db, "CAM-07", nil)
		expected := f.clock.Now()

		created, err := f.service.Create(ctx, f.student, equipment.ID, &expected)
		require.NoError(t, err)
		f.clock.Advance(49 * time.Hour)

		var wg sync.WaitGroup
		errs := make([]error, 3)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.service.Return(ctx, f.admin, created.ID)
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, rec.returned)
		assert.Equal(t, 100.0, rec.fines)
		f.requireConsistent(t)
	})
}

func TestService_PreviewReturn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	equipment := testutils.SeedEquipment(t, f.db, "PRJ-01", nil)
	expected := f.clock.Now().Add(time.Hour)

	created, err := f.service.Create(ctx, f.student, equipment.ID, &expected)
	require.NoError(t, err)

	t.Run("no prazo", func(t *testing.T) {
		preview, err := f.service.PreviewReturn(ctx, f.student, created.ID)
		require.NoError(t, err)

		assert.False(t, preview.Overdue)
		assert.Equal(t, 0, preview.LateDays)
		assert.Equal(t, 0.0, preview.Fine)
		assert.Equal(t, "PRJ-01", preview.Equipment.Code)
	})

	t.Run("atrasado menos de um dia", func(t *testing.T) {
		f.clock.At = expected.Add(5 * time.Hour)

		preview, err := f.service.PreviewReturn(ctx, f.admin, created.ID)
		require.NoError(t, err)

		assert.True(t, preview.Overdue)
		assert.Equal(t, 0, preview.LateDays)
		assert.Equal(t, 0.0, preview.Fine)
	})

	t.Run("atrasado dois dias", func(t *testing.T) {
		f.clock.At = expected.Add(50 * time.Hour)

		preview, err := f.service.PreviewReturn(ctx, f.student, created.ID)
		require.NoError(t, err)

		assert.True(t, preview.Overdue)
		assert.Equal(t, 2, preview.LateDays)
		assert.Equal(t, 100.0, preview.Fine)

		// a prévia não grava nada
		stored, err := f.db.Loans().GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, string(model.LoanActive), stored.State)
		assert.Zero(t, stored.FineAmount)
	})

	t.Run("sem permissão", func(t *testing.T) {
		_, err := f.service.PreviewReturn(ctx, f.other, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		_, err = f.service.PreviewReturn(ctx, f.viewer, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("já devolvido", func(t *testing.T) {
		_, err := f.service.Return(ctx, f.student, created.ID)
		require.NoError(t, err)

		_, err = f.service.PreviewReturn(ctx, f.student, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})
}

func TestService_Lists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := testutils.SeedEquipment(t, f.db, "LST-01", nil)
	second := testutils.SeedEquipment(t, f.db, "LST-02", nil)
	third := testutils.SeedEquipment(t, f.db, "LST-03", nil)

	a1, err := f.service.Create(ctx, f.student, first.ID, nil)
	require.NoError(t, err)
	b1, err := f.service.Create(ctx, f.other, second.ID, nil)
	require.NoError(t, err)
	a2, err := f.service.Create(ctx, f.student, third.ID, nil)
	require.NoError(t, err)
	_, err = f.service.Return(ctx, f.student, a1.ID)
	require.NoError(t, err)

	ids := func(loans []*model.Loan) []string {
		out := make([]string, 0, len(loans))
		for _, l := range loans {
			out = append(out, l.ID)
		}
		return out
	}

	t.Run("admin vê todos os ativos", func(t *testing.T) {
		loans, err := f.service.ListActive(ctx, f.admin)
		require.NoError(t, err)
		assert.Equal(t, []string{b1.ID, a2.ID}, ids(loans))
	})

	t.Run("aluno vê só os próprios ativos", func(t *testing.T) {
		loans, err := f.service.ListActive(ctx, f.student)
		require.NoError(t, err)
		assert.Equal(t, []string{a2.ID}, ids(loans))
	})

	t.Run("admin vê todo o histórico em ordem de inserção", func(t *testing.T) {
		loans, err := f.service.ListHistory(ctx, f.admin)
		require.NoError(t, err)
		assert.Equal(t, []string{a1.ID, b1.ID, a2.ID}, ids(loans))
	})

	t.Run("aluno vê o próprio histórico", func(t *testing.T) {
		loans, err := f.service.ListHistory(ctx, f.student)
		require.NoError(t, err)
		assert.Equal(t, []string{a1.ID, a2.ID}, ids(loans))
	})

	t.Run("consulta é negado", func(t *testing.T) {
		loans, err := f.service.ListActive(ctx, f.viewer)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.Nil(t, loans)

		_, err = f.service.ListHistory(ctx, f.viewer)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestService_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	rec := new(mocks.MockLoanRecorder)
	f := newFixture(t, loan.WithRecorder(rec))
	equipment := testutils.SeedEquipment(t, f.db, "ROT-01", nil)
	expected := f.clock.Now().Add(24 * time.Hour)

	rec.On("LoanCreated").Once()
	rec.On("OperationFailed", "create", "not_available").Once()
	rec.On("LoanReturned", 2, 100.0).Once()
	rec.On("OperationFailed", "return", "invalid_state").Once()

	created, err := f.service.Create(ctx, f.student, equipment.ID, &expected)
	require.NoError(t, err)

	_, err = f.service.Create(ctx, f.other, equipment.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrNotAvailable)

	f.clock.Advance(3*24*time.Hour + time.Hour)
	_, err = f.service.Return(ctx, f.student, created.ID)
	require.NoError(t, err)

	_, err = f.service.Return(ctx, f.student, created.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)

	rec.AssertExpectations(t)
}
