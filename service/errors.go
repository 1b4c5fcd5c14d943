package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Kind 业务错误分类，决定 HTTP 状态码
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindPermission
	KindNotFound
	KindInsufficientFunds
	KindExternalService
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindExternalService:
		return "external_service"
	default:
		return "unexpected"
	}
}

// Error 业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同类错误即匹配，errors.Is(err, ErrNotFound) 可用于任意 NotFound 错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// 各类错误的哨兵值，只用于 errors.Is 比较
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrPermission        = &Error{Kind: KindPermission}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrExternalService   = &Error{Kind: KindExternalService}
)

// KindOf 返回错误分类，非业务错误返回 KindUnexpected
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func permissionDenied(msg string) error {
	return &Error{Kind: KindPermission, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func insufficientFunds(msg string) error {
	return &Error{Kind: KindInsufficientFunds, Message: msg}
}

func externalService(msg string, err error) error {
	return &Error{Kind: KindExternalService, Message: msg, Err: err}
}

// isDuplicateKey 唯一约束冲突
// 未开启 TranslateError 的连接按各数据库的错误文本识别
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// 常用错误信息
const (
	msgProjectNotFound       = "Project not found"
	msgMemberNotFound        = "Project member not found"
	msgUserNotFound          = "User not found"
	msgTransactionNotFound   = "Transaction not found"
	msgBudgetRequestNotFound = "Budget request not found"
	msgBudgetRecordNotFound  = "Budget record not found"
	msgCategoryNotFound      = "Category not found"
	msgInvitationNotFound    = "Invitation not found"

	msgFundsMustBePositive     = "Funds must be positive"
	msgProjectBudgetTooLow     = "Project budget is not sufficient"
	msgMemberBudgetTooLow      = "Member budget is not sufficient"
	msgNotEnoughAmount         = "not enough amount"
	msgApproveBudgetTooLow     = "Insufficient project budget to approve this request"
	msgAlreadyResolved         = "This request has already been resolved"
	msgInvalidAction           = "Action must be 'approve' or 'reject'"
	msgAmountMustBePositive    = "Amount must be positive"
	msgAmountNegative          = "Amount can not be negative"
	msgNotificationFailed      = "Failed to send notification"
	msgBudgetRecordNotEditable = "This budget record is not editable"
	msgAlreadyMember           = "You are already a member of this project"
	msgCategoryExists          = "Category already exists in this project"
	msgInvalidStatus           = "Status must be one of 'pending', 'approved' or 'rejected'"
)
