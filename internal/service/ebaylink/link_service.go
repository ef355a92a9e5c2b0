package ebaylink

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/repricelab/ebay-connect/internal/adapter/ebayapi"
	"github.com/repricelab/ebay-connect/internal/config"
	"github.com/repricelab/ebay-connect/internal/domain/ebay"
	"github.com/repricelab/ebay-connect/internal/repository"
)

// LinkService orchestrates linking eBay seller accounts to platform users:
// credential intake, the OAuth authorization-code flow, token refresh, and
// inventory reads through stored tokens.
type LinkService interface {
	InitiateOAuth(ctx context.Context, userID int64, creds ebay.Credentials) (string, error)
	CompleteCallback(ctx context.Context, userID int64, code string) (*ebay.Account, error)
	Accounts(ctx context.Context, userID int64) ([]ebay.Account, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
	RefreshToken(ctx context.Context, userID, accountID int64) error
	SyncInventory(ctx context.Context, userID, accountID int64) (*ebay.Inventory, error)
}

type linkService struct {
	accounts repository.AccountRepository
	pending  repository.PendingAuthStore
	client   ebayapi.Client
	node     *snowflake.Node
	cfg      config.Config
	logger   *zap.Logger
	tracer   trace.Tracer

	// refreshLocks serializes refreshes per account within this process so two
	// concurrent refreshes cannot interleave their token pairs.
	refreshMu    sync.Mutex
	refreshLocks map[int64]*sync.Mutex
}

// NewLinkService wires the link service implementation.
func NewLinkService(
	accounts repository.AccountRepository,
	pending repository.PendingAuthStore,
	client ebayapi.Client,
	node *snowflake.Node,
	cfg config.Config,
	logger *zap.Logger,
) LinkService {
	return &linkService{
		accounts:     accounts,
		pending:      pending,
		client:       client,
		node:         node,
		cfg:          cfg,
		logger:       logger,
		tracer:       otel.Tracer("github.com/repricelab/ebay-connect/internal/service/ebaylink"),
		refreshLocks: make(map[int64]*sync.Mutex),
	}
}

// BuildAuthorizeURL deterministically constructs the signin URL for the given
// application id. No side effects, no network calls.
func BuildAuthorizeURL(base, appID, redirectURI, scope string) string {
	params := url.Values{}
	params.Set("client_id", appID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", scope)
	return base + "?" + params.Encode()
}

// InitiateOAuth validates the user-supplied credential triple, stores it as
// the user's pending context (replacing any prior one), and returns the
// authorize URL to redirect the user to.
func (s *linkService) InitiateOAuth(ctx context.Context, userID int64, creds ebay.Credentials) (string, error) {
	if !creds.Complete() {
		return "", ebay.ErrInvalidCredentials
	}

	pending := ebay.PendingAuth{Credentials: creds, CreatedAt: time.Now().UTC()}
	if err := s.pending.Begin(ctx, userID, pending, s.cfg.PendingAuthTTL); err != nil {
		return "", err
	}

	authURL := BuildAuthorizeURL(ebayapi.AuthorizeURL(s.cfg.EbaySandbox), creds.AppID, s.cfg.EbayRedirectURI, s.cfg.EbayScope)
	s.logger.Info("ebay oauth initiated", zap.Int64("user_id", userID))
	return authURL, nil
}

// CompleteCallback consumes the user's pending credentials, exchanges the
// authorization code for tokens, resolves the seller identity, and persists
// the linked account. Nothing is persisted when any step fails; the pending
// context is gone either way once consumed.
func (s *linkService) CompleteCallback(ctx context.Context, userID int64, code string) (*ebay.Account, error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.CompleteCallback")
	defer span.End()

	if strings.TrimSpace(code) == "" {
		return nil, ebay.ErrCodeMissing
	}

	creds, err := s.consumeCredentials(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	token, err := s.client.ExchangeCode(ctx, creds, code, s.cfg.EbayRedirectURI)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	info, err := s.client.GetUser(ctx, token.AccessToken)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	account := ebay.Account{
		ID:           s.node.Generate().Int64(),
		UserID:       userID,
		EbayUserID:   info.UserID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
		Credentials:  creds,
		IsActive:     true,
	}
	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("ebay account linked",
		zap.Int64("user_id", userID),
		zap.Int64("account_id", created.ID),
		zap.String("ebay_user_id", created.EbayUserID),
	)
	return &created, nil
}

// consumeCredentials applies the callback credential policy: the pending
// context wins; without one the callback fails unless the operator explicitly
// opted into the process-wide fallback triple.
func (s *linkService) consumeCredentials(ctx context.Context, userID int64) (ebay.Credentials, error) {
	pending, err := s.pending.Consume(ctx, userID)
	if err != nil {
		return ebay.Credentials{}, err
	}
	if pending != nil {
		return pending.Credentials, nil
	}
	if s.cfg.AllowFallbackCredentials && s.cfg.FallbackCredentials.Complete() {
		s.logger.Warn("ebay callback using fallback credentials", zap.Int64("user_id", userID))
		return s.cfg.FallbackCredentials, nil
	}
	return ebay.Credentials{}, ebay.ErrCredentialsMissing
}

// Accounts lists the user's active linked accounts.
func (s *linkService) Accounts(ctx context.Context, userID int64) ([]ebay.Account, error) {
	return s.accounts.ListActiveByUser(ctx, userID)
}

// Disconnect deactivates a linked account. The row is kept so price logs and
// pricing rules referencing it stay intact; repeating the call is a no-op.
func (s *linkService) Disconnect(ctx context.Context, userID, accountID int64) error {
	if _, err := s.ownedAccount(ctx, userID, accountID, false); err != nil {
		return err
	}
	if err := s.accounts.SetActive(ctx, accountID, false); err != nil {
		return err
	}
	s.logger.Info("ebay account disconnected", zap.Int64("user_id", userID), zap.Int64("account_id", accountID))
	return nil
}

// RefreshToken exchanges the account's stored refresh token for a new access
// token using the account's own immutable credential triple. On upstream
// failure the stored token pair is left untouched.
func (s *linkService) RefreshToken(ctx context.Context, userID, accountID int64) error {
	ctx, span := s.tracer.Start(ctx, "LinkService.RefreshToken")
	defer span.End()

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.ownedAccount(ctx, userID, accountID, true)
	if err != nil {
		span.RecordError(err)
		return err
	}

	token, err := s.client.RefreshToken(ctx, account.Credentials, account.RefreshToken)
	if err != nil {
		span.RecordError(err)
		return err
	}

	expiry := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if err := s.accounts.UpdateTokens(ctx, accountID, token.AccessToken, token.RefreshToken, expiry); err != nil {
		span.RecordError(err)
		return err
	}

	s.logger.Info("ebay token refreshed", zap.Int64("account_id", accountID), zap.Time("expiry", expiry))
	return nil
}

// SyncInventory pulls the account's inventory through its stored access token.
func (s *linkService) SyncInventory(ctx context.Context, userID, accountID int64) (*ebay.Inventory, error) {
	account, err := s.ownedAccount(ctx, userID, accountID, true)
	if err != nil {
		return nil, err
	}
	return s.client.GetInventoryItems(ctx, account.AccessToken, 100)
}

// ownedAccount loads the account and hides its existence from non-owners. When
// requireActive is set, inactive accounts are reported as not found too; a
// disconnected account cannot be refreshed or synced.
func (s *linkService) ownedAccount(ctx context.Context, userID, accountID int64, requireActive bool) (ebay.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return ebay.Account{}, err
	}
	if account.UserID != userID {
		return ebay.Account{}, ebay.ErrAccountNotFound
	}
	if requireActive && !account.IsActive {
		return ebay.Account{}, ebay.ErrAccountNotFound
	}
	return account, nil
}

func (s *linkService) accountLock(accountID int64) *sync.Mutex {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	lock, ok := s.refreshLocks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.refreshLocks[accountID] = lock
	}
	return lock
}
