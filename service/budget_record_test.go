package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walet/models"
)

func TestCreateBudgetRecord(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fixture(t, 0, 0)

	income, err := env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
		ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: 900, IsIncome: true, IsEditable: true, Notes: "grant",
	})
	require.NoError(t, err)
	assert.True(t, income.IsIncome)
	assert.Equal(t, int64(900), env.totalBudget(t, fx.project.ID))

	_, err = env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
		ProjectID: fx.project.ID, ActorID: fx.manager.ID, MemberID: &fx.alice.ID, Amount: 400, IsIncome: false, IsEditable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), env.totalBudget(t, fx.project.ID))

	events := env.publisher.events
	require.Len(t, events, 2)
	assert.Equal(t, EventBudgetRecordCreated, events[1].Type)
	assert.Equal(t, int64(500), *events[1].TotalBudget)
}

func TestCreateBudgetRecord_Errors(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fixture(t, 100, 0)
	outsider := env.user(t, "outsider")

	tests := []struct {
		name    string
		in      BudgetRecordInput
		wantErr error
		wantMsg string
	}{
		{"负数金额", BudgetRecordInput{ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: -20, IsIncome: true},
			ErrValidation, "Amount can not be negative"},
		{"备注过长", BudgetRecordInput{ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: 1, IsIncome: true, Notes: strings.Repeat("x", 51)},
			ErrValidation, "Notes must be at most 50 characters"},
		{"支出缺少成员", BudgetRecordInput{ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: 1},
			ErrValidation, "Member is required for expense records"},
		{"非项目经理", BudgetRecordInput{ProjectID: fx.project.ID, ActorID: fx.alice.ID, Amount: 1, IsIncome: true},
			ErrPermission, "You don't have permissions to add budget record to this project"},
		{"成员不属于项目", BudgetRecordInput{ProjectID: fx.project.ID, ActorID: fx.manager.ID, MemberID: &outsider.ID, Amount: 1},
			ErrNotFound, "Project member not found"},
		{"支出超过资金池", BudgetRecordInput{ProjectID: fx.project.ID, ActorID: fx.manager.ID, MemberID: &fx.alice.ID, Amount: 101},
			ErrInsufficientFunds, "Project budget is not sufficient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.CreateBudgetRecord(env.ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}

	assert.Equal(t, int64(100), env.totalBudget(t, fx.project.ID))
	assert.Equal(t, int64(0), env.count(t, &models.ProjectBudgetRecord{}, "project_id = ?", fx.project.ID))
}

func TestUpdateBudgetRecord_AppliesDifference(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fixture(t, 0, 0)

	record, err := env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
		ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: 1000, IsIncome: true, IsEditable: true,
	})
	require.NoError(t, err)

	amount := int64(600)
	_, err = env.ledger.UpdateBudgetRecord(env.ctx, UpdateBudgetRecordInput{RecordID: record.ID, ActorID: fx.manager.ID, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, int64(600), env.totalBudget(t, fx.project.ID))

	// 收入改为支出：600 -> -600，资金池不足
	isIncome := false
	_, err = env.ledger.UpdateBudgetRecord(env.ctx, UpdateBudgetRecordInput{
		RecordID: record.ID, ActorID: fx.manager.ID, IsIncome: &isIncome, MemberID: &fx.alice.ID,
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(600), env.totalBudget(t, fx.project.ID))

	small, err := env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
		ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: 100, IsIncome: true, IsEditable: true,
	})
	require.NoError(t, err)
	updated, err := env.ledger.UpdateBudgetRecord(env.ctx, UpdateBudgetRecordInput{
		RecordID: small.ID, ActorID: fx.manager.ID, IsIncome: &isIncome, MemberID: &fx.alice.ID,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsIncome)
	assert.Equal(t, int64(500), env.totalBudget(t, fx.project.ID))
}

func TestDeleteBudgetRecord(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fixture(t, 0, 0)

	income, err := env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
		ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: 300, IsIncome: true, IsEditable: true,
	})
	require.NoError(t, err)
	expense, err := env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
		ProjectID: fx.project.ID, ActorID: fx.manager.ID, MemberID: &fx.alice.ID, Amount: 200, IsEditable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), env.totalBudget(t, fx.project.ID))

	// 删除收入会让资金池变负
	err = env.ledger.DeleteBudgetRecord(env.ctx, income.ID, fx.manager.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, env.ledger.DeleteBudgetRecord(env.ctx, expense.ID, fx.manager.ID))
	assert.Equal(t, int64(300), env.totalBudget(t, fx.project.ID))
	require.NoError(t, env.ledger.DeleteBudgetRecord(env.ctx, income.ID, fx.manager.ID))
	assert.Equal(t, int64(0), env.totalBudget(t, fx.project.ID))

	assert.ErrorIs(t, env.ledger.DeleteBudgetRecord(env.ctx, uuid.New(), fx.manager.ID), ErrNotFound)
}

func TestBudgetRecord_FundsRecordsAreNotEditable(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fixture(t, 500, 0)

	_, err := env.ledger.SendFunds(env.ctx, FundsInput{ProjectID: fx.project.ID, MemberID: fx.alice.ID, ActorID: fx.manager.ID, Funds: 50})
	require.NoError(t, err)

	records, err := env.ledger.ListBudgetRecords(env.ctx, fx.project.ID, fx.manager.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	amount := int64(1)
	_, err = env.ledger.UpdateBudgetRecord(env.ctx, UpdateBudgetRecordInput{RecordID: records[0].ID, ActorID: fx.manager.ID, Amount: &amount})
	assert.ErrorIs(t, err, ErrPermission)
	assert.Equal(t, "This budget record is not editable", err.Error())
	assert.ErrorIs(t, env.ledger.DeleteBudgetRecord(env.ctx, records[0].ID, fx.manager.ID), ErrPermission)

	_, err = env.ledger.GetBudgetRecord(env.ctx, records[0].ID, fx.alice.ID)
	assert.ErrorIs(t, err, ErrPermission)
	got, err := env.ledger.GetBudgetRecord(env.ctx, records[0].ID, fx.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Amount)

	_, err = env.ledger.ListBudgetRecords(env.ctx, fx.project.ID, fx.alice.ID)
	assert.ErrorIs(t, err, ErrPermission)
}
