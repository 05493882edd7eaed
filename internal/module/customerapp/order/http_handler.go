package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/hirestore/hs-order/internal/pkg/middleware"
	"github.com/hirestore/hs-order/internal/pkg/session"
	"github.com/hirestore/hs-order/pkg/errors"
	publicMiddleware "github.com/hirestore/hs-order/pkg/middleware"
	"github.com/hirestore/hs-order/pkg/response"
	"github.com/hirestore/hs-order/pkg/status"
)

type HTTPHandler struct {
	Validate     *validator.Validate
	OrderUseCase OrderUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, validate *validator.Validate, orderUseCase OrderUseCase) {
	handler := &HTTPHandler{
		Validate:     validate,
		OrderUseCase: orderUseCase,
	}

	router.HandleFunc("/hs-order/v1/customerapp/orders", publicMiddleware.SetRouteChain(handler.PlaceOrder, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/hs-order/v1/customerapp/orders", publicMiddleware.SetRouteChain(handler.GetManyOrder, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/hs-order/v1/customerapp/orders/{reference}", publicMiddleware.SetRouteChain(handler.GetOrder, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/hs-order/v1/customerapp/payments/initialize", publicMiddleware.SetRouteChain(handler.InitializePayment, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/hs-order/v1/customerapp/payments/verify", publicMiddleware.SetRouteChain(handler.VerifyPayment, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/hs-order/v1/customerapp/payments/on-verify", publicMiddleware.SetRouteChain(handler.OnVerifyPayment)).Methods(http.MethodPost)
	router.HandleFunc("/hs-order/v1/customerapp/payments/on-notification", publicMiddleware.SetRouteChain(handler.OnPaymentNotification)).Methods(http.MethodPost)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf("%s", strings.Join(errMessages, ", "))
}

func writeError(w http.ResponseWriter, err error, data interface{}) {
	ae := errors.Destruct(err)
	response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
		Status:  ae.Status,
		Message: ae.Message,
		Data:    data,
	})
}

func (handler HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	req := PlaceOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.OrderUseCase.PlaceOrder(ctx, acc, req)
	if err != nil {
		// the order exists even when its payment link could not be created
		if errors.HasStatus(err, status.PAYMENT_LINK_FAILED) {
			writeError(w, err, resp)
			return
		}
		writeError(w, err, nil)
		return
	}

	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "order has been successfully placed",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) GetManyOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	qs := r.URL.Query()

	req := GetManyOrderRequest{}
	req.Status = qs.Get("status")
	req.Page, _ = strconv.ParseInt(qs.Get("page"), 10, 64)
	req.Size, _ = strconv.ParseInt(qs.Get("size"), 10, 64)

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, total, err := handler.OrderUseCase.GetManyOrder(ctx, acc, req)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of orders",
		Data:    resp,
		Meta:    response.NewPaginationMeta(req.Page, req.Size, total),
	})
}

func (handler HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	resp, err := handler.OrderUseCase.GetOrder(ctx, acc, mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, err, nil)
		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "order's detail",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) InitializePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	req := InitializePaymentRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.OrderUseCase.InitializePayment(ctx, acc, req)
	if err != nil {
		if errors.HasStatus(err, status.PAYMENT_LINK_FAILED) {
			writeError(w, err, resp)
			return
		}
		writeError(w, err, nil)
		return
	}

	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "payment has been successfully initialized",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	req := VerifyPaymentRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	handler.verify(w, r, req)
}

// OnVerifyPayment is called by the deferred verification task.
func (handler HTTPHandler) OnVerifyPayment(w http.ResponseWriter, r *http.Request) {
	task := VerifyPaymentTask{}
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	handler.verify(w, r, VerifyPaymentRequest{Reference: task.Reference})
}

func (handler HTTPHandler) OnPaymentNotification(w http.ResponseWriter, r *http.Request) {
	n := PaymentNotificationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	handler.verify(w, r, VerifyPaymentRequest{Reference: n.PaymentReference()})
}

func (handler HTTPHandler) verify(w http.ResponseWriter, r *http.Request, req VerifyPaymentRequest) {
	ctx := r.Context()

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.OrderUseCase.VerifyPayment(ctx, req)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	if !resp.Success {
		response.JSON(w, http.StatusOK, response.RESTEnvelope{
			Status:  status.PAYMENT_NOT_SETTLED,
			Message: resp.Message,
			Data:    resp,
			Meta:    nil,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: resp.Message,
		Data:    resp,
		Meta:    nil,
	})
}
