package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dhanbyte/shopwave-sub001/internal/domain"
	"github.com/dhanbyte/shopwave-sub001/internal/http/middleware"
	"github.com/dhanbyte/shopwave-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// fakeStore backs the ledger with maps for handler tests.
type fakeStore struct {
	mu       sync.Mutex
	codes    map[string]*domain.ReferralCode
	counters map[string]*domain.StatsCounters
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		codes:    make(map[string]*domain.ReferralCode),
		counters: make(map[string]*domain.StatsCounters),
	}
}

func (f *fakeStore) Create(ctx context.Context, owner string) (*domain.ReferralCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc := &domain.ReferralCode{Code: "gen-" + owner, OwnerUserID: owner, IsActive: true}
	f.codes[rc.Code] = rc
	return rc, nil
}

func (f *fakeStore) GetActiveByCode(ctx context.Context, code string) (*domain.ReferralCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc, ok := f.codes[code]
	if !ok || !rc.IsActive {
		return nil, pgx.ErrNoRows
	}
	return rc, nil
}

func (f *fakeStore) Deactivate(ctx context.Context, code, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc, ok := f.codes[code]
	if !ok || rc.OwnerUserID != owner {
		return pgx.ErrNoRows
	}
	rc.IsActive = false
	return nil
}

func (f *fakeStore) CountActiveByOwner(ctx context.Context, owner string) (int, error) {
	return 0, nil
}

func (f *fakeStore) RecordSignup(ctx context.Context, ev *domain.SignupEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure(ev.ReferrerID).TotalSignups++
	return nil
}

func (f *fakeStore) RecordReward(ctx context.Context, ev *domain.RewardEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.ensure(ev.ReferrerID)
	c.TotalReferrals++
	c.TotalEarnings += ev.RewardAmount
	c.TotalCoins += ev.Coins
	c.AvailableCoins = c.TotalCoins - c.UsedCoins
	return nil
}

func (f *fakeStore) Redeem(ctx context.Context, userID string, coins int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.counters[userID]
	if !ok || c.TotalCoins-c.UsedCoins < coins {
		return 0, pgx.ErrNoRows
	}
	c.UsedCoins += coins
	c.AvailableCoins = c.TotalCoins - c.UsedCoins
	return c.AvailableCoins, nil
}

func (f *fakeStore) GetCounters(ctx context.Context, userID string) (*domain.StatsCounters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.counters[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (f *fakeStore) RewardHistory(ctx context.Context, userID string, limit int) ([]domain.RewardEvent, error) {
	return []domain.RewardEvent{}, nil
}

func (f *fakeStore) SignupHistory(ctx context.Context, userID string, limit int) ([]domain.SignupEvent, error) {
	return []domain.SignupEvent{}, nil
}

func (f *fakeStore) CreateDebit(ctx context.Context, w *domain.Withdrawal) error {
	_, err := f.Redeem(ctx, w.UserID, w.Coins)
	return err
}

func (f *fakeStore) GetByUser(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	return []domain.Withdrawal{}, nil
}

func (f *fakeStore) Resolve(ctx context.Context, id string, status domain.WithdrawalStatus, notes string) (*domain.Withdrawal, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) ensure(userID string) *domain.StatsCounters {
	c, ok := f.counters[userID]
	if !ok {
		c = &domain.StatsCounters{UserID: userID}
		f.counters[userID] = c
	}
	return c
}

func newTestRouter(store *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ledger := service.NewLedger(store, store, store, 0, 0)
	h := NewHandler(ledger, nil)

	r := gin.New()
	r.GET("/api/v1/referral/validate", h.ValidateCode)
	r.POST("/api/v1/referral/signup", h.AttributeSignup)
	r.POST("/api/v1/referral/purchase", h.AttributePurchase)
	r.POST("/api/v1/referral/redeem", h.RedeemCoins)
	r.GET("/api/v1/referral/stats", h.GetStats)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateCodeEndpoint(t *testing.T) {
	store := newFakeStore()
	store.codes["R123"] = &domain.ReferralCode{Code: "R123", OwnerUserID: "R", IsActive: true}
	store.codes["DEAD"] = &domain.ReferralCode{Code: "DEAD", OwnerUserID: "R", IsActive: false}
	r := newTestRouter(store)

	if w := doJSON(t, r, "GET", "/api/v1/referral/validate", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing code: status = %d; want 400", w.Code)
	}
	if w := doJSON(t, r, "GET", "/api/v1/referral/validate?code=NOPE", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown code: status = %d; want 404", w.Code)
	}
	if w := doJSON(t, r, "GET", "/api/v1/referral/validate?code=DEAD", ""); w.Code != http.StatusNotFound {
		t.Fatalf("inactive code: status = %d; want 404", w.Code)
	}

	w := doJSON(t, r, "GET", "/api/v1/referral/validate?code=R123", "")
	if w.Code != http.StatusOK {
		t.Fatalf("valid code: status = %d; want 200", w.Code)
	}
	var resp struct {
		Data domain.ReferralCode `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.OwnerUserID != "R" {
		t.Fatalf("owner = %s; want R", resp.Data.OwnerUserID)
	}
}

func TestSignupEndpoint(t *testing.T) {
	store := newFakeStore()
	store.codes["R123"] = &domain.ReferralCode{Code: "R123", OwnerUserID: "R", IsActive: true}
	r := newTestRouter(store)

	if w := doJSON(t, r, "POST", "/api/v1/referral/signup", `{"referralCode":"R123"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing newUserId: status = %d; want 400", w.Code)
	}
	if w := doJSON(t, r, "POST", "/api/v1/referral/signup", `{"referralCode":"R123","newUserId":"R"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("self referral: status = %d; want 400", w.Code)
	}
	if w := doJSON(t, r, "POST", "/api/v1/referral/signup", `{"referralCode":"R123","newUserId":"U"}`); w.Code != http.StatusOK {
		t.Fatalf("signup: status = %d; want 200", w.Code)
	}
	if store.counters["R"].TotalSignups != 1 {
		t.Fatalf("total_signups = %d; want 1", store.counters["R"].TotalSignups)
	}
}

func TestRedeemEndpoint(t *testing.T) {
	store := newFakeStore()
	store.codes["R123"] = &domain.ReferralCode{Code: "R123", OwnerUserID: "R", IsActive: true}
	r := newTestRouter(store)

	if w := doJSON(t, r, "POST", "/api/v1/referral/purchase", `{"code":"R123","refereeId":"U","orderId":"O1","orderAmount":999}`); w.Code != http.StatusOK {
		t.Fatalf("purchase: status = %d; want 200", w.Code)
	}

	if w := doJSON(t, r, "POST", "/api/v1/referral/redeem", `{"userId":"R","coinsToUse":6}`); w.Code != http.StatusBadRequest {
		t.Fatalf("redeem over balance: status = %d; want 400", w.Code)
	}

	w := doJSON(t, r, "POST", "/api/v1/referral/redeem", `{"userId":"R","coinsToUse":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("redeem: status = %d; want 200", w.Code)
	}
	var resp struct {
		Success        bool  `json:"success"`
		AvailableCoins int64 `json:"available_coins"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.AvailableCoins != 2 {
		t.Fatalf("resp = %+v; want success with 2 coins left", resp)
	}
}

func TestStatsEndpoint(t *testing.T) {
	r := newTestRouter(newFakeStore())

	if w := doJSON(t, r, "GET", "/api/v1/referral/stats", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing userId: status = %d; want 400", w.Code)
	}

	w := doJSON(t, r, "GET", "/api/v1/referral/stats?userId=nobody", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status = %d; want 200", w.Code)
	}
	var stats domain.ReferralStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalCoins != 0 || stats.AvailableCoins != 0 {
		t.Fatalf("expected zero-valued stats, got %+v", stats.StatsCounters)
	}
}

func TestAdminGate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/admin/referrals", middleware.JWT(), middleware.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	if w := doJSON(t, r, "GET", "/api/v1/admin/referrals", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d; want 401", w.Code)
	}

	userToken, _ := service.GenerateJWT("u1", "customer")
	req := httptest.NewRequest("GET", "/api/v1/admin/referrals", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("non-admin token: status = %d; want 401", w.Code)
	}

	adminToken, _ := service.GenerateJWT("a1", "admin")
	req = httptest.NewRequest("GET", "/api/v1/admin/referrals", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("admin token: status = %d; want 200", w.Code)
	}
}
