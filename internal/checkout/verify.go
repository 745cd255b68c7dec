package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/repository"
)

var ErrSessionIDRequired = errors.New("session id is required")

// VerifyResult 支付会话校验结果；Record 仅供内部使用，不直接序列化
type VerifyResult struct {
	SessionID string                 `json:"session_id"`
	Paid      bool                   `json:"paid"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Record    *models.CheckoutRecord `json:"-"`
}

// Receipt 回跳接口的响应；记录详情只返回给下单的会话归属
type Receipt struct {
	SessionID string                 `json:"session_id"`
	Paid      bool                   `json:"paid"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Record    *models.CheckoutRecord `json:"record,omitempty"`
}

// ReceiptFor 按调用方归属裁剪结果
func (r *VerifyResult) ReceiptFor(owner string) Receipt {
	if r == nil {
		return Receipt{}
	}
	receipt := Receipt{SessionID: r.SessionID, Paid: r.Paid, Status: r.Status, Message: r.Message}
	owner = strings.TrimSpace(owner)
	if r.Record != nil && owner != "" && r.Record.OwnerKey == owner {
		receipt.Record = r.Record
	}
	return receipt
}

// Verifier 支付会话校验，供回跳接口与异步任务共用
type Verifier struct {
	client  Client
	records repository.CheckoutRecordRepository
}

// NewVerifier 创建校验器
func NewVerifier(client Client, records repository.CheckoutRecordRepository) *Verifier {
	return &Verifier{client: client, records: records}
}

// Verify 查询上游支付状态并回写结账记录
func (v *Verifier) Verify(ctx context.Context, sessionID string) (*VerifyResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	resp, err := v.client.VerifySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := &VerifyResult{SessionID: sessionID, Status: constants.CheckoutStatusUnpaid}
	if resp != nil {
		result.Paid = resp.Paid()
		result.Message = resp.Message
	}
	if result.Paid {
		result.Status = constants.CheckoutStatusPaid
	}
	if v.records == nil {
		return result, nil
	}
	record, err := v.records.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		logger.FromContext(ctx).Debugw("checkout_verify_record_not_found", "session_id", sessionID)
		return result, nil
	}
	if record.Status == constants.CheckoutStatusPaid {
		result.Record = record
		return result, nil
	}
	now := time.Now()
	if err := v.records.UpdateStatus(record.ID, result.Status, &now); err != nil {
		return nil, err
	}
	record.Status = result.Status
	record.VerifiedAt = &now
	result.Record = record
	return result, nil
}
