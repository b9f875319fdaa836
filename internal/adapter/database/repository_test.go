package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"github.com/diillson/equipment-lending/internal/ids"
	"github.com/diillson/equipment-lending/internal/testutils"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquipmentTransitionStatus(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewTestDatabase(t)
	equipment := testutils.SeedEquipment(t, db, "TAB-01", nil)

	changed, err := db.Equipment().TransitionStatus(ctx, equipment.ID, model.EquipmentAvailable, model.EquipmentLoaned)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = db.Equipment().TransitionStatus(ctx, equipment.ID, model.EquipmentAvailable, model.EquipmentLoaned)
	require.NoError(t, err)
	assert.False(t, changed, "status atual não confere, nenhuma linha deve mudar")

	loaned, err := db.Equipment().ListByStatus(ctx, model.EquipmentLoaned)
	require.NoError(t, err)
	require.Len(t, loaned, 1)
	assert.Equal(t, "TAB-01", loaned[0].Code)
}

func TestEquipmentUpdateKeepsStatus(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewTestDatabase(t)
	equipment := testutils.SeedEquipment(t, db, "TAB-02", nil)

	_, err := db.Equipment().TransitionStatus(ctx, equipment.ID, model.EquipmentAvailable, model.EquipmentLoaned)
	require.NoError(t, err)

	equipment.Name = "Tablet novo"
	equipment.Status = string(model.EquipmentAvailable)
	require.NoError(t, db.Equipment().Update(ctx, equipment))

	stored, err := db.Equipment().GetByID(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tablet novo", stored.Name)
	assert.Equal(t, string(model.EquipmentLoaned), stored.Status)
}

func TestEquipmentNotFound(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewTestDatabase(t)

	_, err := db.Equipment().GetByID(ctx, "inexistente")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, db.Equipment().Delete(ctx, "inexistente"), apperrors.ErrNotFound)
}

func TestLoanMarkReturnedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewTestDatabase(t)
	student := testutils.SeedUser(t, db, "ana", model.RoleStudent)
	equipment := testutils.SeedEquipment(t, db, "CAL-01", nil)

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	loan := &model.LoanEntity{
		ID:          ids.NewLoanID(now),
		EquipmentID: equipment.ID,
		StudentID:   student.ID,
		CreatedAt:   now,
		State:       string(model.LoanActive),
	}
	require.NoError(t, db.Loans().Create(ctx, loan))

	returnedAt := now.Add(72 * time.Hour)
	loan.ReturnedAt = &returnedAt
	loan.State = string(model.LoanReturned)
	loan.LateDays = 2
	loan.FineAmount = 100

	changed, err := db.Loans().MarkReturned(ctx, loan)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = db.Loans().MarkReturned(ctx, loan)
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := db.Loans().GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.LoanReturned), stored.State)
	assert.Equal(t, 2, stored.LateDays)
	assert.Equal(t, 100.0, stored.FineAmount)

	active, err := db.Loans().CountActiveByEquipment(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Zero(t, active)
}

func TestLoanListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewTestDatabase(t)
	ana := testutils.SeedUser(t, db, "ana", model.RoleStudent)
	bruno := testutils.SeedUser(t, db, "bruno", model.RoleStudent)

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	var created []string
	for i, student := range []*model.UserEntity{ana, bruno, ana} {
		equipment := testutils.SeedEquipment(t, db, "EQ-"+string(rune('A'+i)), nil)
		loan := &model.LoanEntity{
			ID:          ids.NewLoanID(base),
			EquipmentID: equipment.ID,
			StudentID:   student.ID,
			CreatedAt:   base,
			State:       string(model.LoanActive),
		}
		require.NoError(t, db.Loans().Create(ctx, loan))
		created = append(created, loan.ID)
	}

	all, err := db.Loans().List(ctx, repository.LoanFilter{State: model.LoanActive})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, loan := range all {
		assert.Equal(t, created[i], loan.ID, "mesmo instante, ordem de inserção preservada")
	}

	own, err := db.Loans().List(ctx, repository.LoanFilter{StudentID: ana.ID})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	require.NoError(t, db.Loans().DeleteByStudent(ctx, ana.ID))
	rest, err := db.Loans().List(ctx, repository.LoanFilter{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, bruno.ID, rest[0].StudentID)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewTestDatabase(t)
	equipment := testutils.SeedEquipment(t, db, "MIC-01", nil)
	errAbort := errors.New("abortar")

	err := db.WithinTx(ctx, func(tx repository.Repositories) error {
		changed, err := tx.Equipment().TransitionStatus(ctx, equipment.ID, model.EquipmentAvailable, model.EquipmentLoaned)
		require.NoError(t, err)
		require.True(t, changed)
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	stored, err := db.Equipment().GetByID(ctx, equipment.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.EquipmentAvailable), stored.Status)
}
