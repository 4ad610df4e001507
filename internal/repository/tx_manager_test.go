package repository_test

import (
	"context"
	"errors"
	"testing"

	"opsportal/internal/database/databasetest"
	"opsportal/internal/model"
	"opsportal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_RollsBackEveryRepository(t *testing.T) {
	db := databasetest.New(t)
	tx := repository.NewTransactionManager(db)
	requests := repository.NewRequestRepository(db)
	audit := repository.NewAuditRepository(db)
	ctx := context.Background()

	p := newPurchase(t, 1, "10")
	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, requests.Create(txCtx, p))
		require.NoError(t, audit.Log(txCtx, &model.AuditLog{Action: model.ActionSubmitRequest, EntityID: p.ID.String()}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, total, err := requests.List(ctx, model.KindPurchase, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = audit.List(ctx, repository.AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTransactionManager_NestedCallsShareTransaction(t *testing.T) {
	db := databasetest.New(t)
	tx := repository.NewTransactionManager(db)
	requests := repository.NewRequestRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(outer context.Context) error {
		require.NoError(t, tx.RunInTx(outer, func(inner context.Context) error {
			return requests.Create(inner, newPurchase(t, 1, "1"))
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, total, err := requests.List(ctx, model.KindPurchase, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
