package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukahub/duka-backend/pkg/daraja"
	pkgerrors "github.com/dukahub/duka-backend/pkg/errors"
	"github.com/dukahub/duka-backend/pkg/logger"
	"github.com/dukahub/duka-backend/pkg/redis"
)

const (
	callbackGuardScope = "daraja_cb"
	callbackGuardTTL   = 24 * time.Hour
)

type PaymentReconciler interface {
	Reconcile(ctx context.Context, envelope daraja.CallbackEnvelope, raw []byte) error
}

// ackBody is the acknowledgement shape the provider expects on delivery.
type ackBody struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// DarajaCallback ingests asynchronous payment results. The provider retries
// non-200 responses aggressively, so every delivery is acknowledged with 200
// no matter what happens inside; failures are logged and left for the status
// query path to recover. Replayed deliveries are absorbed by a short-lived
// guard key before reconciliation even runs.
func DarajaCallback(svc PaymentReconciler, guard redis.IdempotencyStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			logError(logg, ctx, "callback.unavailable", pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			writeAck(w)
			return
		}

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			logError(logg, ctx, "callback.body_unreadable", err)
			writeAck(w)
			return
		}

		var envelope daraja.CallbackEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			logError(logg, ctx, "callback.malformed", err)
			writeAck(w)
			return
		}

		ref := strings.TrimSpace(envelope.Body.StkCallback.CheckoutRequestID)
		if ref == "" {
			logError(logg, ctx, "callback.malformed", pkgerrors.New(pkgerrors.CodeMalformedCallback, "callback missing CheckoutRequestID"))
			writeAck(w)
			return
		}

		var guardKey string
		if guard != nil {
			guardKey = guard.IdempotencyKey(callbackGuardScope, ref)
			fresh, err := guard.SetNX(ctx, guardKey, "1", callbackGuardTTL)
			if err != nil {
				logError(logg, ctx, "callback.guard_failed", err)
				writeAck(w)
				return
			}
			if !fresh {
				writeAck(w)
				return
			}
		}

		if err := svc.Reconcile(ctx, envelope, raw); err != nil {
			// release the guard so a redelivery can reconcile once the
			// underlying condition clears
			if guard != nil && guardKey != "" {
				_ = guard.Del(ctx, guardKey)
			}
			if logg != nil {
				warnCtx := logg.WithField(ctx, "checkout_request_id", ref)
				if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
					logg.Warn(warnCtx, "callback.unmatched")
				} else {
					logg.Error(warnCtx, "callback.reconcile_failed", err)
				}
			}
			writeAck(w)
			return
		}

		if logg != nil {
			okCtx := logg.WithField(ctx, "checkout_request_id", ref)
			logg.Info(okCtx, "callback.reconciled")
		}
		writeAck(w)
	}
}

func logError(logg *logger.Logger, ctx context.Context, msg string, err error) {
	if logg == nil {
		return
	}
	logg.Error(ctx, msg, err)
}

func writeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ackBody{ResultCode: 0, ResultDesc: "Accepted"})
}
