package api

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/store"
	"github.com/engage-protocol/ep-indexer/internal/store/schema"
)

const (
	testCampaignAddr = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
	testBankAddr     = "0x1000000000000000000000000000000000000001"
	testUserAddr     = "0x3000000000000000000000000000000000000003"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestServer(s store.Store, auth config.AuthConfig) *Server {
	return NewServer(s, &config.APIConfig{
		BaseConfig: config.BaseConfig{Debug: true},
		Auth:       auth,
	})
}

func doRequest(server *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	server.http.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	server := newTestServer(store.NewMemoryStore(), config.AuthConfig{})

	w := doRequest(server, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetProduct(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now().UTC()
	require.NoError(t, s.InsertProduct(context.Background(), &schema.Product{
		ID:                  "7",
		Domain:              "example.com",
		Name:                "My Product",
		CreatedTimestamp:    now,
		LastUpdateTimestamp: now,
		LastUpdateBlock:     100,
	}))
	server := newTestServer(s, config.AuthConfig{})

	w := doRequest(server, http.MethodGet, "/v1/products/7", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "7", body.ID)
	assert.Equal(t, "My Product", body.Name)
	assert.Equal(t, "example.com", body.Domain)
}

func TestGetProductNotFound(t *testing.T) {
	server := newTestServer(store.NewMemoryStore(), config.AuthConfig{})

	w := doRequest(server, http.MethodGet, "/v1/products/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProductInvalidID(t *testing.T) {
	server := newTestServer(store.NewMemoryStore(), config.AuthConfig{})

	w := doRequest(server, http.MethodGet, "/v1/products/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCampaignNormalizesAddress(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.InsertCampaign(context.Background(), &schema.Campaign{
		ID:                    testCampaignAddr,
		Type:                  "frak.campaign.referral",
		Name:                  "summer",
		Version:               "0.1",
		ProductID:             "7",
		InteractionContractID: "0x5000000000000000000000000000000000000005",
		Attached:              true,
	}))
	server := newTestServer(s, config.AuthConfig{})

	// lookups accept any casing of the address
	w := doRequest(server, http.MethodGet, "/v1/campaigns/0x8ba1f109551bd432803012645ac136ddd64dba72", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body CampaignResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, testCampaignAddr, body.ID)
	assert.Equal(t, "summer", body.Name)
}

func TestGetCampaignStatsNotFound(t *testing.T) {
	server := newTestServer(store.NewMemoryStore(), config.AuthConfig{})

	w := doRequest(server, http.MethodGet, "/v1/campaigns/"+testCampaignAddr+"/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUserRewards(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.InsertBankingContract(ctx, &schema.BankingContract{
		ID:               testBankAddr,
		TokenID:          "0x4000000000000000000000000000000000000004",
		ProductID:        "7",
		TotalDistributed: "0",
		TotalClaimed:     "0",
		IsDistributing:   true,
	}))
	_, err := s.ApplyRewardAddition(ctx, store.RewardAdditionInput{
		LogID:          "eip155:42161:100:0xaa:0",
		BankAddress:    testBankAddr,
		UserAddress:    testUserAddr,
		EmitterAddress: testCampaignAddr,
		Amount:         big.NewInt(100),
		Timestamp:      time.Now().UTC(),
		BlockNumber:    100,
	})
	require.NoError(t, err)
	server := newTestServer(s, config.AuthConfig{})

	w := doRequest(server, http.MethodGet, "/v1/users/"+testUserAddr+"/rewards", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rewards []RewardResponse `json:"rewards"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rewards, 1)
	assert.Equal(t, "100", body.Rewards[0].PendingAmount)
	assert.Equal(t, testBankAddr, body.Rewards[0].BankingContractID)
}

func TestListUserActivityLimitValidation(t *testing.T) {
	server := newTestServer(store.NewMemoryStore(), config.AuthConfig{})

	w := doRequest(server, http.MethodGet, "/v1/users/"+testUserAddr+"/activity?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(server, http.MethodGet, "/v1/users/"+testUserAddr+"/activity?limit=501", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(server, http.MethodGet, "/v1/users/"+testUserAddr+"/activity", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	server := newTestServer(store.NewMemoryStore(), config.AuthConfig{
		APIKeys: []string{"secret-key"},
	})

	w := doRequest(server, http.MethodGet, "/v1/products/7", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(server, http.MethodGet, "/v1/products/7", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a valid key reaches the handler
	w = doRequest(server, http.MethodGet, "/v1/products/7", map[string]string{"X-API-Key": "secret-key"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// health stays open
	w = doRequest(server, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
