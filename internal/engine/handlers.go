package engine

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trackfolio/ledger-api/internal/ledger"
	"github.com/trackfolio/ledger-api/internal/types"
	"github.com/trackfolio/ledger-api/pkg/response"
)

// GinHandlers contains the HTTP handlers for the order API.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

func accountIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("account_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid account id")
		return 0, false
	}
	return uint(id), true
}

// parseDay validates the optional day field; empty means today.
func parseDay(c *gin.Context, raw string) (ledger.Day, bool) {
	if raw == "" {
		return "", true
	}
	day, err := ledger.ParseDay(raw)
	if err != nil {
		response.BadRequest(c, err.Error())
		return "", false
	}
	return day, true
}

// CreateAccountHandler handles POST requests to open accounts.
func (h *GinHandlers) CreateAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreateAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if req.OpeningBalance < 0 {
			response.BadRequest(c, "opening balance must be non-negative")
			return
		}

		acct, err := h.service.CreateAccount(req.Username, req.OpeningBalance)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, types.AccountResponse{
			AccountID:      acct.ID,
			Username:       acct.Username,
			Cash:           acct.Cash,
			OpeningBalance: acct.OpeningBalance,
		})
	}
}

// CreateInstrumentHandler handles POST requests to register instruments.
// Internal endpoint.
func (h *GinHandlers) CreateInstrumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreateInstrumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		inst, err := h.service.CreateInstrument(req.Ticker)
		response.Handle(c, inst, err)
	}
}

// SetPriceHandler handles PUT requests upserting a (ticker, day) price
// point. Internal endpoint.
func (h *GinHandlers) SetPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.SetPriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		day, err := ledger.ParseDay(req.Day)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.SetPrice(req.Ticker, day, req.Price); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"ticker": req.Ticker, "day": req.Day, "price": req.Price})
	}
}

// PlaceOrderHandler handles POST requests placing stock orders. Requires
// an Idempotency-Key header so retried requests replay the original
// transaction.
func (h *GinHandlers) PlaceOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		accountID, ok := accountIDParam(c)
		if !ok {
			return
		}

		var req types.OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		day, ok := parseDay(c, req.Day)
		if !ok {
			return
		}

		txn, err := h.service.PlaceOrderByTicker(accountID, req.Ticker, req.Quantity, day, req.Price, idempotencyKey)
		response.Handle(c, txn, err)
	}
}

// TransferFundsHandler handles POST requests depositing or withdrawing
// cash. Requires an Idempotency-Key header.
func (h *GinHandlers) TransferFundsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		accountID, ok := accountIDParam(c)
		if !ok {
			return
		}

		var req types.TransferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		day, ok := parseDay(c, req.Day)
		if !ok {
			return
		}

		txn, err := h.service.TransferFunds(accountID, req.Amount, day, idempotencyKey)
		response.Handle(c, txn, err)
	}
}

func (h *GinHandlers) GetBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDParam(c)
		if !ok {
			return
		}

		cash, err := h.service.GetBalance(accountID)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, types.BalanceResponse{AccountID: accountID, Cash: cash})
	}
}

func (h *GinHandlers) GetHoldingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDParam(c)
		if !ok {
			return
		}
		ticker := c.Param("ticker")

		quantity, err := h.service.GetHoldings(accountID, ticker)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, types.HoldingsResponse{AccountID: accountID, Ticker: ticker, Quantity: quantity})
	}
}

func (h *GinHandlers) GetTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDParam(c)
		if !ok {
			return
		}

		txns, err := h.service.Transactions(accountID)
		response.Handle(c, txns, err)
	}
}

func (h *GinHandlers) AuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountIDParam(c)
		if !ok {
			return
		}

		audit, err := h.service.Audit(accountID)
		response.Handle(c, audit, err)
	}
}
