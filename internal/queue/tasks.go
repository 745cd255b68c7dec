package queue

import (
	"encoding/json"

	"github.com/ayokah-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCheckoutVerify 支付回跳会话校验任务
	TaskCheckoutVerify = constants.TaskCheckoutVerify
)

// CheckoutVerifyPayload 会话校验任务载荷
type CheckoutVerifyPayload struct {
	RecordID  uint   `json:"record_id"`
	Ref       string `json:"ref"`
	SessionID string `json:"session_id"`
}

// NewCheckoutVerifyTask 创建会话校验任务
func NewCheckoutVerifyTask(payload CheckoutVerifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCheckoutVerify, body), nil
}

// ParseCheckoutVerifyPayload 解析会话校验任务载荷
func ParseCheckoutVerifyPayload(task *asynq.Task) (CheckoutVerifyPayload, error) {
	var payload CheckoutVerifyPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
