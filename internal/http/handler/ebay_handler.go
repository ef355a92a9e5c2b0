package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/repricelab/ebay-connect/internal/domain/ebay"
	"github.com/repricelab/ebay-connect/internal/http/middleware"
	"github.com/repricelab/ebay-connect/internal/service/ebaylink"
)

// EbayHandler exposes the eBay account linking endpoints.
type EbayHandler struct {
	Link ebaylink.LinkService
}

// NewEbayHandler creates the handler.
func NewEbayHandler(link ebaylink.LinkService) *EbayHandler {
	return &EbayHandler{Link: link}
}

// accountResponse is the client-facing view of a linked account. Tokens and
// the cert/dev halves of the credential triple are never exposed.
type accountResponse struct {
	ID          string    `json:"id"`
	EbayUserID  string    `json:"ebayUserId"`
	AppID       string    `json:"appId"`
	TokenExpiry time.Time `json:"tokenExpiry"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InitiateOAuth validates the submitted credential triple and returns the
// authorize URL for the user's consent redirect.
func (h *EbayHandler) InitiateOAuth(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	var creds ebay.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "eBay credentials required to initiate OAuth flow"})
		return
	}
	authURL, err := h.Link.InitiateOAuth(c.Request.Context(), userID, creds)
	if err != nil {
		h.respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authURL": authURL, "message": "OAuth flow initiated successfully"})
}

// Callback completes the OAuth flow and returns the linked account identity.
func (h *EbayHandler) Callback(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	account, err := h.Link.CompleteCallback(c.Request.Context(), userID, c.Query("code"))
	if err != nil {
		h.respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Successfully connected eBay account",
		"ebayAccountId": strconv.FormatInt(account.ID, 10),
		"ebayUserId":    account.EbayUserID,
	})
}

// Accounts lists the user's active linked accounts.
func (h *EbayHandler) Accounts(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	accounts, err := h.Link.Accounts(c.Request.Context(), userID)
	if err != nil {
		h.respondLinkError(c, err)
		return
	}
	resp := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, accountResponse{
			ID:          strconv.FormatInt(account.ID, 10),
			EbayUserID:  account.EbayUserID,
			AppID:       account.Credentials.AppID,
			TokenExpiry: account.TokenExpiry,
			IsActive:    account.IsActive,
			CreatedAt:   account.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Disconnect deactivates a linked account.
func (h *EbayHandler) Disconnect(c *gin.Context) {
	userID, accountID, ok := h.accountParams(c)
	if !ok {
		return
	}
	if err := h.Link.Disconnect(c.Request.Context(), userID, accountID); err != nil {
		h.respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account disconnected successfully"})
}

// Refresh exchanges the account's refresh token for a new access token.
func (h *EbayHandler) Refresh(c *gin.Context) {
	userID, accountID, ok := h.accountParams(c)
	if !ok {
		return
	}
	if err := h.Link.RefreshToken(c.Request.Context(), userID, accountID); err != nil {
		h.respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed successfully"})
}

// Sync pulls the account's inventory items.
func (h *EbayHandler) Sync(c *gin.Context) {
	userID, accountID, ok := h.accountParams(c)
	if !ok {
		return
	}
	inventory, err := h.Link.SyncInventory(c.Request.Context(), userID, accountID)
	if err != nil {
		h.respondLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Inventory synced successfully",
		"items":   inventory.Items,
	})
}

// accountParams authenticates the caller and validates the accountId path
// parameter. Malformed ids are rejected before any store lookup.
func (h *EbayHandler) accountParams(c *gin.Context) (userID, accountID int64, ok bool) {
	userID, authed := middleware.UserID(c)
	if !authed {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return 0, 0, false
	}
	accountID, err := strconv.ParseInt(c.Param("accountId"), 10, 64)
	if err != nil || accountID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid account ID format"})
		return 0, 0, false
	}
	return userID, accountID, true
}

func (h *EbayHandler) respondLinkError(c *gin.Context, err error) {
	logger := zap.L()
	var upstream *ebay.UpstreamError
	switch {
	case errors.Is(err, ebay.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": "All eBay credentials are required"})
	case errors.Is(err, ebay.ErrCodeMissing):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Authorization code missing"})
	case errors.Is(err, ebay.ErrCredentialsMissing):
		logger.Warn("ebay callback without pending credentials")
		c.JSON(http.StatusBadRequest, gin.H{"message": "No pending eBay credentials; initiate the OAuth flow first"})
	case errors.Is(err, ebay.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Account not found"})
	case errors.As(err, &upstream):
		logger.Warn("ebay upstream failure", zap.Int("upstream_status", upstream.Status))
		c.JSON(http.StatusBadGateway, gin.H{"message": "eBay API error", "error": upstream.Message})
	default:
		logger.Error("ebay link failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
