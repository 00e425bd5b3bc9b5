package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"powertools/internal/events"
	"powertools/internal/shared"
	"powertools/internal/store"
)

func (a *API) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req shared.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := checkOwner(r.Context(), req.Email); err != nil {
		a.fail(w, r, err)
		return
	}

	order := shared.Order{
		ToolID:     req.ToolID,
		ToolName:   req.ToolName,
		Email:      req.Email,
		Quantity:   req.Quantity,
		TotalPrice: req.TotalPrice,
	}
	res, err := a.Store.Insert(r.Context(), store.Orders, order)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.publish(r, events.OrderCreated, res.InsertedID, order)
	writeJSON(w, http.StatusOK, res)
}

// CancelOrder deletes an order; an unknown id is a no-op.
func (a *API) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, ok := CallerEmail(r.Context()); ok {
		var order shared.Order
		err := a.Store.FindOne(r.Context(), store.Orders, store.ByID(id), &order)
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
			writeJSON(w, http.StatusOK, shared.DeleteResult{Acknowledged: true})
			return
		case err != nil:
			a.fail(w, r, err)
			return
		}
		if err := checkOwner(r.Context(), order.Email); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	res, err := a.Store.Delete(r.Context(), store.Orders, store.ByID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if res.DeletedCount > 0 {
		a.publish(r, events.OrderCancelled, id, nil)
	}
	writeJSON(w, http.StatusOK, res)
}

// ListOrders runs behind Guard(IsSelf(QueryParam("email"))).
func (a *API) ListOrders(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerEmail(r.Context())
	orders := []shared.Order{}
	if err := a.Store.Find(r.Context(), store.Orders, store.ByEmail(caller), &orders); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (a *API) GetOrder(w http.ResponseWriter, r *http.Request) {
	var order shared.Order
	if err := a.Store.FindOne(r.Context(), store.Orders, store.ByID(chi.URLParam(r, "id")), &order); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ConfirmPayment records the payment and then marks the order paid. The
// two writes are not atomic: the order update is applied even when
// recording the payment fails, and that failure is still reported. Both
// writes are keyed on the transaction id, so a retry records a missing
// payment exactly once and leaves the order as it is.
func (a *API) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req shared.ConfirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.OrderID != "" && req.OrderID != id {
		a.fail(w, r, badRequest("orderId does not match path"))
		return
	}

	ctx := r.Context()
	var order shared.Order
	if err := a.Store.FindOne(ctx, store.Orders, store.ByID(id), &order); err != nil {
		a.fail(w, r, err)
		return
	}
	if order.Paid {
		if order.TransactionID != req.TransactionID {
			a.fail(w, r, conflict("order already paid"))
			return
		}
		if err := a.recordPayment(ctx, id, order, req); err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, shared.UpdateResult{Acknowledged: true, MatchedCount: 1})
		return
	}

	recErr := a.recordPayment(ctx, id, order, req)
	var ae *apiError
	if errors.As(recErr, &ae) {
		a.fail(w, r, recErr)
		return
	}
	if recErr != nil {
		log.Error().Err(recErr).
			Str("request_id", chimw.GetReqID(ctx)).
			Str("order_id", id).
			Str("transaction_id", req.TransactionID).
			Msg("record payment")
	}

	res, err := a.Store.Update(ctx, store.Orders, store.ByID(id), map[string]any{
		"paid":          true,
		"transactionId": req.TransactionID,
	}, false)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if recErr != nil {
		a.fail(w, r, recErr)
		return
	}
	a.publish(r, events.PaymentConfirmed, id, map[string]any{"transactionId": req.TransactionID})
	writeJSON(w, http.StatusOK, res)
}

// recordPayment stores the payment record for order id unless one already
// exists for the transaction. A record held by another order is a Conflict.
func (a *API) recordPayment(ctx context.Context, id string, order shared.Order, req shared.ConfirmPaymentRequest) error {
	var recorded shared.PaymentRecord
	err := a.Store.FindOne(ctx, store.Payments, store.Filter{"transactionId": req.TransactionID}, &recorded)
	switch {
	case err == nil:
		if recorded.OrderID != id {
			return conflict("transaction already recorded for another order")
		}
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	caller, _ := CallerEmail(ctx)
	amount := req.Amount
	if amount == 0 {
		amount = order.TotalPrice
	}
	_, err = a.Store.Insert(ctx, store.Payments, shared.PaymentRecord{
		TransactionID: req.TransactionID,
		OrderID:       id,
		Amount:        amount,
		Email:         caller,
		CreatedAt:     time.Now().UTC(),
	})
	return err
}
