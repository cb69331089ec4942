package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tradesync/src/database"
	"tradesync/src/model"
	"tradesync/src/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One named in-memory database per test; shared cache keeps it alive
	// across the pooled connections gorm opens.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()

	exec := NewActionExecutor(
		repository.NewNotificationRepository().WithDB(db),
		repository.NewJournalRepository().WithDB(db),
	).WithHTTPClient(resty.New()) // no retries in tests

	return NewEngine(
		repository.NewRoutingRuleRepository().WithDB(db),
		repository.NewSignalRepository().WithDB(db),
		exec,
	)
}

func seedSignal(t *testing.T, db *gorm.DB, signal *model.Signal) *model.Signal {
	t.Helper()
	if signal.Status == "" {
		signal.Status = model.SignalStatusNew
	}
	require.NoError(t, db.Create(signal).Error)
	return signal
}

func TestMatchesPredicates(t *testing.T) {
	price := 1.1
	signal := &model.Signal{
		Symbol: "EURUSD", Action: "BUY", Provider: "tradingview",
		Confidence: 70, Price: &price,
	}

	min60, min80 := 60, 80
	max65 := 65

	cases := []struct {
		name       string
		conditions model.RuleConditions
		want       bool
	}{
		{"empty conditions match everything", model.RuleConditions{}, true},
		{"symbol member", model.RuleConditions{Symbols: []string{"GBPUSD", "eurusd"}}, true},
		{"symbol not member", model.RuleConditions{Symbols: []string{"GBPUSD"}}, false},
		{"action member", model.RuleConditions{Actions: []string{"buy"}}, true},
		{"provider not member", model.RuleConditions{Providers: []string{"mql_signals"}}, false},
		{"min confidence met", model.RuleConditions{MinConfidence: &min60}, true},
		{"min confidence not met", model.RuleConditions{MinConfidence: &min80}, false},
		{"max confidence exceeded", model.RuleConditions{MaxConfidence: &max65}, false},
		{"all predicates anded", model.RuleConditions{
			Symbols: []string{"EURUSD"}, Actions: []string{"SELL"},
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.conditions, signal))
		})
	}
}

func TestPriorityOrderAndStopAfterMatch(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.SignalRoutingRule{
		UserID: 1, Name: "low", Priority: 5, Enabled: true,
		Actions: []model.RuleAction{{Type: model.RuleActionSendNotification}},
	}).Error)
	require.NoError(t, db.Create(&model.SignalRoutingRule{
		UserID: 1, Name: "high", Priority: 10, Enabled: true, StopAfterMatch: true,
		Actions: []model.RuleAction{{Type: model.RuleActionSendNotification}},
	}).Error)

	signal := seedSignal(t, db, &model.Signal{UserID: 1, Symbol: "EURUSD", Action: "BUY"})

	result, err := engine.Route(ctx, 1, signal)
	require.NoError(t, err)

	// Only the priority-10 rule runs; stop_after_match halts evaluation.
	assert.Equal(t, []string{"high"}, result.MatchedRules)
	require.Len(t, result.ExecutedActions, 1)
	assert.Equal(t, "high", result.ExecutedActions[0].Rule)
	assert.True(t, result.ExecutedActions[0].Success)
}

func TestDisabledAndNonMatchingRulesSkipped(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)

	require.NoError(t, db.Create(&model.SignalRoutingRule{
		UserID: 1, Name: "disabled", Enabled: false,
		Actions: []model.RuleAction{{Type: model.RuleActionSendNotification}},
	}).Error)
	require.NoError(t, db.Create(&model.SignalRoutingRule{
		UserID: 1, Name: "wrong symbol", Enabled: true,
		Conditions: model.RuleConditions{Symbols: []string{"GBPUSD"}},
		Actions:    []model.RuleAction{{Type: model.RuleActionSendNotification}},
	}).Error)

	signal := seedSignal(t, db, &model.Signal{UserID: 1, Symbol: "EURUSD", Action: "BUY"})

	result, err := engine.Route(context.Background(), 1, signal)
	require.NoError(t, err)
	assert.Empty(t, result.MatchedRules)
	assert.Empty(t, result.ExecutedActions)
}

func TestActionFailureDoesNotBlockFollowingActions(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	require.NoError(t, db.Create(&model.SignalRoutingRule{
		UserID: 1, Name: "multi", Enabled: true,
		Actions: []model.RuleAction{
			{Type: model.RuleActionWebhook, URL: server.URL},
			{Type: "teleport"},
			{Type: model.RuleActionSendNotification, Title: "still runs"},
		},
	}).Error)

	signal := seedSignal(t, db, &model.Signal{UserID: 1, Symbol: "EURUSD", Action: "SELL"})

	result, err := engine.Route(context.Background(), 1, signal)
	require.NoError(t, err)
	require.Len(t, result.ExecutedActions, 3)

	assert.False(t, result.ExecutedActions[0].Success)
	assert.Contains(t, result.ExecutedActions[0].Error, "502")

	assert.False(t, result.ExecutedActions[1].Success)
	assert.Equal(t, "Unknown action type: teleport", result.ExecutedActions[1].Error)

	assert.True(t, result.ExecutedActions[2].Success)

	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNotificationPlaceholderSubstitution(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)

	require.NoError(t, db.Create(&model.SignalRoutingRule{
		UserID: 1, Name: "templated", Enabled: true,
		Actions: []model.RuleAction{{
			Type:    model.RuleActionSendNotification,
			Title:   "{{action}} {{symbol}}",
			Message: "entry {{price}}, sl {{stop_loss}}, conf {{confidence}}",
		}},
	}).Error)

	price, sl := 21000.0, 20990.0
	signal := seedSignal(t, db, &model.Signal{
		UserID: 1, Symbol: "NQ1", Action: "BUY",
		Price: &price, StopLoss: &sl, Confidence: 85,
	})

	_, err := engine.Route(context.Background(), 1, signal)
	require.NoError(t, err)

	var notification model.Notification
	require.NoError(t, db.Where("user_id = ?", 1).First(&notification).Error)
	assert.Equal(t, "BUY NQ1", notification.Title)
	assert.Equal(t, "entry 21000, sl 20990, conf 85", notification.Message)
}

func TestWebhookActionPostsSignalWithBearer(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)

	var gotAuth string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, db.Create(&model.SignalRoutingRule{
		UserID: 1, Name: "forward", Enabled: true,
		Actions: []model.RuleAction{{
			Type: model.RuleActionAPICall, URL: server.URL, BearerToken: "s3cret",
		}},
	}).Error)

	signal := seedSignal(t, db, &model.Signal{UserID: 1, Symbol: "XAUUSD", Action: "SELL"})

	result, err := engine.Route(context.Background(), 1, signal)
	require.NoError(t, err)
	require.Len(t, result.ExecutedActions, 1)
	assert.True(t, result.ExecutedActions[0].Success)

	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, "XAUUSD", gotBody["symbol"])
	assert.Equal(t, "SELL", gotBody["action"])
}

func TestRouteAndSettleTransitionsStatus(t *testing.T) {
	db := newTestDB(t)
	engine := newTestEngine(t, db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.SignalRoutingRule{
		UserID: 1, Name: "any", Enabled: true,
		Actions: []model.RuleAction{{Type: model.RuleActionSendNotification}},
	}).Error)

	matched := seedSignal(t, db, &model.Signal{UserID: 1, Symbol: "EURUSD", Action: "BUY"})
	_, err := engine.RouteAndSettle(ctx, 1, matched)
	require.NoError(t, err)
	assert.Equal(t, model.SignalStatusExecuted, matched.Status)

	var stored model.Signal
	require.NoError(t, db.First(&stored, matched.ID).Error)
	assert.Equal(t, model.SignalStatusExecuted, stored.Status)

	// A signal no rule matches stays "new" for a later manual trigger.
	unmatched := seedSignal(t, db, &model.Signal{UserID: 2, Symbol: "EURUSD", Action: "BUY"})
	_, err = engine.RouteAndSettle(ctx, 2, unmatched)
	require.NoError(t, err)

	require.NoError(t, db.First(&stored, unmatched.ID).Error)
	assert.Equal(t, model.SignalStatusNew, stored.Status)
}
