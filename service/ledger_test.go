package service

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walet/models"
)

// TestLedger_RandomOperationsKeepBalancesConsistent 随机执行资金操作，每步之后：
// 余额不为负；total_budget 等于记录收支之和；成员额度等于划入 - 收回 - 消费
func TestLedger_RandomOperationsKeepBalancesConsistent(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fixture(t, 0, 0)
	bob := env.user(t, "bob")
	env.member(t, fx.project, bob, 0)
	users := []uuid.UUID{fx.alice.ID, bob.ID}

	_, err := env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
		ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: 1000, IsIncome: true,
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	var txs []uuid.UUID
	for step := 0; step < 200; step++ {
		user := users[rng.Intn(len(users))]
		amount := int64(rng.Intn(300) + 1)

		switch rng.Intn(5) {
		case 0:
			_, err = env.ledger.SendFunds(env.ctx, FundsInput{ProjectID: fx.project.ID, MemberID: user, ActorID: fx.manager.ID, Funds: amount})
		case 1:
			_, err = env.ledger.TakeFunds(env.ctx, FundsInput{ProjectID: fx.project.ID, MemberID: user, ActorID: fx.manager.ID, Funds: amount})
		case 2:
			var tx *models.Transaction
			tx, err = env.ledger.CreateTransaction(env.ctx, TransactionInput{
				ProjectID: fx.project.ID, ActorID: user, CategoryID: fx.category.ID, Amount: amount,
			})
			if err == nil {
				txs = append(txs, tx.ID)
			}
		case 3:
			if len(txs) == 0 {
				continue
			}
			i := rng.Intn(len(txs))
			var tx models.Transaction
			require.NoError(t, env.db.First(&tx, "id = ?", txs[i]).Error)
			err = env.ledger.DeleteTransaction(env.ctx, tx.ID, tx.UserID)
			if err == nil {
				txs = append(txs[:i], txs[i+1:]...)
			}
		case 4:
			_, err = env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
				ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: amount, IsIncome: rng.Intn(2) == 0, MemberID: &user, IsEditable: true,
			})
		}
		if err != nil {
			require.ErrorIs(t, err, ErrInsufficientFunds, "step %d", step)
		}
		assertBalancesConsistent(t, env, fx.project.ID, users)
	}
}

func assertBalancesConsistent(t *testing.T, env *testEnv, projectID uuid.UUID, users []uuid.UUID) {
	t.Helper()

	var records []models.ProjectBudgetRecord
	require.NoError(t, env.db.Where("project_id = ?", projectID).Find(&records).Error)
	var pool int64
	sent := map[uuid.UUID]int64{}
	for _, r := range records {
		pool += r.Effect()
		// 划拨记录不可编辑：支出为划入成员，收入为从成员收回
		if r.MemberID == nil || r.IsEditable {
			continue
		}
		if r.IsIncome {
			sent[*r.MemberID] -= r.Amount
		} else {
			sent[*r.MemberID] += r.Amount
		}
	}
	total := env.totalBudget(t, projectID)
	assert.GreaterOrEqual(t, total, int64(0))
	assert.Equal(t, pool, total)

	for _, u := range users {
		var spent int64
		require.NoError(t, env.db.Model(&models.Transaction{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("project_id = ? AND user_id = ?", projectID, u).
			Scan(&spent).Error)
		budget := env.memberBudget(t, projectID, u)
		assert.GreaterOrEqual(t, budget, int64(0))
		assert.Equal(t, sent[u]-spent, budget)
	}
}

// 内存中的余额已过期（另一个事务先扣减），条件更新不命中，行保持不变
func TestAdjustBudget_StaleBalanceIsRejected(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fixture(t, 500, 100)

	var member models.ProjectMember
	require.NoError(t, env.db.First(&member, "project_id = ? AND member_id = ?", fx.project.ID, fx.alice.ID).Error)
	var project models.Project
	require.NoError(t, env.db.First(&project, "id = ?", fx.project.ID).Error)

	require.NoError(t, env.db.Model(&models.ProjectMember{}).Where("id = ?", member.ID).Update("budget", 10).Error)
	require.NoError(t, env.db.Model(&models.Project{}).Where("id = ?", project.ID).Update("total_budget", 20).Error)

	err := adjustMemberBudget(env.db, &member, -50, msgMemberBudgetTooLow)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.EqualError(t, err, msgMemberBudgetTooLow)
	assert.Equal(t, int64(100), member.Budget)
	assert.Equal(t, int64(10), env.memberBudget(t, fx.project.ID, fx.alice.ID))

	err = adjustProjectBudget(env.db, &project, -300, msgProjectBudgetTooLow)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(500), project.TotalBudget)
	assert.Equal(t, int64(20), env.totalBudget(t, fx.project.ID))

	// 额度仍足够时按数据库中的值扣减
	require.NoError(t, adjustMemberBudget(env.db, &member, -10, msgMemberBudgetTooLow))
	assert.Equal(t, int64(0), env.memberBudget(t, fx.project.ID, fx.alice.ID))
}
