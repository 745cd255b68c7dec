package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/ayokah-next/internal/checkout"
	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/queue"

	"github.com/hibiken/asynq"
)

type fakeVerifier struct {
	calls  []string
	result *checkout.VerifyResult
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, sessionID string) (*checkout.VerifyResult, error) {
	f.calls = append(f.calls, sessionID)
	return f.result, f.err
}

func verifyTask(t *testing.T, sessionID string) *asynq.Task {
	t.Helper()
	task, err := queue.NewCheckoutVerifyTask(queue.CheckoutVerifyPayload{RecordID: 1, Ref: "ref-1", SessionID: sessionID})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	return task
}

func TestHandleCheckoutVerifyPaid(t *testing.T) {
	verifier := &fakeVerifier{result: &checkout.VerifyResult{Paid: true, Status: "paid"}}
	consumer := NewConsumer(verifier)
	if err := consumer.handleCheckoutVerify(context.Background(), verifyTask(t, "cs_1")); err != nil {
		t.Fatalf("paid session should succeed: %v", err)
	}
	if len(verifier.calls) != 1 || verifier.calls[0] != "cs_1" {
		t.Fatalf("unexpected verify calls: %v", verifier.calls)
	}
}

func TestHandleCheckoutVerifyPendingRetries(t *testing.T) {
	consumer := NewConsumer(&fakeVerifier{result: &checkout.VerifyResult{Status: "unpaid"}})
	err := consumer.handleCheckoutVerify(context.Background(), verifyTask(t, "cs_2"))
	if !errors.Is(err, ErrCheckoutPending) {
		t.Fatalf("unpaid session should retry, got %v", err)
	}
}

func TestHandleCheckoutVerifyUpstreamErrors(t *testing.T) {
	rejected := NewConsumer(&fakeVerifier{err: &commerce.APIError{Status: 404}})
	if err := rejected.handleCheckoutVerify(context.Background(), verifyTask(t, "cs_3")); err != nil {
		t.Fatalf("4xx should not retry, got %v", err)
	}
	unavailable := NewConsumer(&fakeVerifier{err: &commerce.APIError{Status: 503}})
	if err := unavailable.handleCheckoutVerify(context.Background(), verifyTask(t, "cs_3")); err == nil {
		t.Fatalf("5xx should be retried")
	}
}

func TestHandleCheckoutVerifySkipsInvalidPayload(t *testing.T) {
	verifier := &fakeVerifier{}
	consumer := NewConsumer(verifier)
	if err := consumer.handleCheckoutVerify(context.Background(), verifyTask(t, "")); err != nil {
		t.Fatalf("empty session should be skipped: %v", err)
	}
	bad := asynq.NewTask(queue.TaskCheckoutVerify, []byte("{"))
	if err := consumer.handleCheckoutVerify(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
	if len(verifier.calls) != 0 {
		t.Fatalf("verifier should not be called")
	}
}
