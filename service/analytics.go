package service

import (
	"context"
	"strconv"
	"time"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const analyticsTopN = 5

// AnalyticsFilter 按月/年筛选，0 表示不筛选
type AnalyticsFilter struct {
	Month int
	Year  int
}

// ParseAnalyticsFilter 解析查询参数
// month 取值 1-12，year 取值 2000 至今年；不允许未来时间；只给 month 时按今年计算
func ParseAnalyticsFilter(month, year string, now time.Time) (AnalyticsFilter, error) {
	var f AnalyticsFilter
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return f, validationf("Invalid year")
		}
		if y < 2000 || y > now.Year() {
			return f, validationf("Year must be between 2000 and %d", now.Year())
		}
		f.Year = y
	}
	if month != "" {
		m, err := strconv.Atoi(month)
		if err != nil {
			return f, validationf("Invalid month")
		}
		if m < 1 || m > 12 {
			return f, validationf("Month must be between 1 and 12")
		}
		if f.Year == 0 {
			f.Year = now.Year()
		}
		if f.Year == now.Year() && m > int(now.Month()) {
			return f, validationf("Month can not be in the future")
		}
		f.Month = m
	}
	return f, nil
}

// Range 筛选对应的时间区间 [start, end)，ok 为 false 表示不筛选
func (f AnalyticsFilter) Range(loc *time.Location) (start, end time.Time, ok bool) {
	switch {
	case f.Month > 0:
		start = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0), true
	case f.Year > 0:
		start = time.Date(f.Year, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// CategorySpending 类别消费汇总
type CategorySpending struct {
	Name           string `json:"name"`
	TotalSpendings int64  `json:"total_spendings"`
}

// MemberSpending 成员消费汇总
type MemberSpending struct {
	Username    string `json:"username"`
	TotalAmount int64  `json:"total_amount"`
}

// ProjectAnalytics 项目收支分析
type ProjectAnalytics struct {
	TotalEarnings  int64              `json:"total_earnings"`
	TotalSpendings int64              `json:"total_spendings"`
	TopCategories  []CategorySpending `json:"top_categories"`
	TopMembers     []MemberSpending   `json:"top_members"`
}

// GetProjectAnalytics 项目收支分析（项目经理），结果按项目缓存
func (l *Ledger) GetProjectAnalytics(ctx context.Context, projectID, actorID uuid.UUID, filter AnalyticsFilter) (*ProjectAnalytics, error) {
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(project, actorID, "You don't have permissions to view analytics of this project"); err != nil {
		return nil, err
	}

	if cached, ok := l.cache.Get(ctx, projectID, filter); ok {
		return cached, nil
	}

	result, err := computeAnalytics(db, projectID, filter)
	if err != nil {
		return nil, err
	}
	l.cache.Set(ctx, projectID, filter, result)
	return result, nil
}

func computeAnalytics(db *gorm.DB, projectID uuid.UUID, filter AnalyticsFilter) (*ProjectAnalytics, error) {
	start, end, filtered := filter.Range(time.Local)
	inRange := func(q *gorm.DB, column string) *gorm.DB {
		if filtered {
			return q.Where(column+" >= ? AND "+column+" < ?", start, end)
		}
		return q
	}

	result := &ProjectAnalytics{
		TopCategories: []CategorySpending{},
		TopMembers:    []MemberSpending{},
	}

	earnings := db.Model(&models.ProjectBudgetRecord{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("project_id = ? AND is_income = ?", projectID, true)
	if err := inRange(earnings, "created_at").Scan(&result.TotalEarnings).Error; err != nil {
		return nil, err
	}

	spendings := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("project_id = ?", projectID)
	if err := inRange(spendings, "created_at").Scan(&result.TotalSpendings).Error; err != nil {
		return nil, err
	}

	categories := db.Table("transactions").
		Select("project_categories.name AS name, SUM(transactions.amount) AS total_spendings").
		Joins("JOIN project_categories ON project_categories.id = transactions.transaction_category_id").
		Where("transactions.project_id = ?", projectID)
	err := inRange(categories, "transactions.created_at").
		Group("project_categories.name").
		Order("total_spendings DESC").
		Limit(analyticsTopN).
		Scan(&result.TopCategories).Error
	if err != nil {
		return nil, err
	}

	members := db.Table("transactions").
		Select("users.username AS username, SUM(transactions.amount) AS total_amount").
		Joins("JOIN users ON users.id = transactions.user_id").
		Where("transactions.project_id = ?", projectID)
	err = inRange(members, "transactions.created_at").
		Group("users.username").
		Order("total_amount DESC").
		Limit(analyticsTopN).
		Scan(&result.TopMembers).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
