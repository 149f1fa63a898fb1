package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/services"
)

type cashInRequest struct {
	Number string `json:"number" binding:"required"`
}

type cashOutRequest struct {
	Number string  `json:"number" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// callbackRequest is the gateway webhook body.
type callbackRequest struct {
	Data struct {
		Ref    string `json:"ref" binding:"required"`
		Status string `json:"status" binding:"required"`
	} `json:"data"`
}

func CashIn(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/cashin/:orderId"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		orderID, ok := parseObjectIDParam(c, route, "orderId")
		if !ok {
			return
		}
		var req cashInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		res, err := payments.CashIn(c.Request.Context(), userID, orderID, req.Number)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "payment initiated", "payment": res.Payment, "data": res.Gateway})
	}
}

func PaymentCallback(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/callBack"
		defer handlePanic(c, route)

		var req callbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		res, err := payments.HandleCallback(c.Request.Context(), services.CallbackInput{
			Ref:    req.Data.Ref,
			Status: req.Data.Status,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}

		message := "payment updated"
		switch {
		case res.Duplicate:
			message = "callback already processed"
		case res.RefundDue:
			message = "payment recorded, refund required"
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   message,
			"duplicate": res.Duplicate,
			"refundDue": res.RefundDue,
			"payment":   res.Payment,
			"order":     res.Order,
		})
	}
}

func CashOut(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/cashout"
		defer handlePanic(c, route)

		var req cashOutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		res, err := payments.CashOut(c.Request.Context(), req.Number, req.Amount)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cash-out initiated", "data": res})
	}
}

func Transactions(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payment/transaction"
		defer handlePanic(c, route)

		raw, err := payments.Transactions(c.Request.Context())
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": raw})
	}
}

func ViewAllPayments(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payment/view-all-Payment"
		defer handlePanic(c, route)

		list, err := payments.ListPayments(c.Request.Context(), c.Query("status"))
		if err != nil {
			respondError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Payment{}
		}
		c.JSON(http.StatusOK, gin.H{"payments": list})
	}
}
