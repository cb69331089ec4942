package routing

import (
	"context"
	"strings"

	logger "github.com/sirupsen/logrus"

	"tradesync/src/model"
	"tradesync/src/repository"
)

// ActionResult captures one action execution. Failures are recorded here and
// never propagated; one action failing must not block the rest.
type ActionResult struct {
	Rule       string `json:"rule"`
	ActionType string `json:"action_type"`
	Success    bool   `json:"success"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RouteResult is what a routing pass over one signal produced.
type RouteResult struct {
	MatchedRules    []string       `json:"matched_rules"`
	ExecutedActions []ActionResult `json:"executed_actions"`
}

// Engine evaluates a user's enabled routing rules against a signal, highest
// priority first, and executes the actions of every matching rule.
type Engine struct {
	rules   *repository.RoutingRuleRepository
	signals *repository.SignalRepository
	exec    *ActionExecutor
}

func NewEngine(
	rules *repository.RoutingRuleRepository,
	signals *repository.SignalRepository,
	exec *ActionExecutor,
) *Engine {
	return &Engine{rules: rules, signals: signals, exec: exec}
}

// Route runs one evaluation pass. Rules are stateless and fetched fresh, so
// concurrent edits take effect on the next signal.
func (e *Engine) Route(ctx context.Context, userID uint, signal *model.Signal) (*RouteResult, error) {
	rules, err := e.rules.FindEnabledByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &RouteResult{
		MatchedRules:    []string{},
		ExecutedActions: []ActionResult{},
	}

	for _, rule := range rules {
		if !Matches(rule.Conditions, signal) {
			continue
		}
		result.MatchedRules = append(result.MatchedRules, rule.Name)

		for _, action := range rule.Actions {
			ar := ActionResult{Rule: rule.Name, ActionType: action.Type}

			out, execErr := e.exec.Execute(ctx, userID, action, signal)
			if execErr != nil {
				ar.Error = execErr.Error()
				logger.WithFields(map[string]interface{}{
					"rule":      rule.Name,
					"action":    action.Type,
					"signal_id": signal.ID,
				}).WithError(execErr).Warn("Routing action failed")
			} else {
				ar.Success = true
				ar.Result = out
			}
			result.ExecutedActions = append(result.ExecutedActions, ar)
		}

		if rule.StopAfterMatch {
			break
		}
	}

	return result, nil
}

// RouteAndSettle routes the signal and moves it out of "new" when at least one
// rule matched. Signals with no matching rule stay "new" so a later manual
// trigger can still act on them.
func (e *Engine) RouteAndSettle(ctx context.Context, userID uint, signal *model.Signal) (*RouteResult, error) {
	result, err := e.Route(ctx, userID, signal)
	if err != nil {
		return nil, err
	}

	if len(result.MatchedRules) > 0 {
		status := model.SignalStatusExecuted
		if !anySucceeded(result.ExecutedActions) {
			status = model.SignalStatusRejected
		}
		if _, err := e.signals.TransitionStatus(ctx, userID, signal.ID, status); err != nil {
			return nil, err
		}
		signal.Status = status
	}

	return result, nil
}

// HandleNewSignal lets the engine sit behind the normalizer as its signal
// sink. Routing errors are logged, never bubbled into event processing.
func (e *Engine) HandleNewSignal(ctx context.Context, signal *model.Signal) {
	result, err := e.RouteAndSettle(ctx, signal.UserID, signal)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"signal_id": signal.ID,
			"symbol":    signal.Symbol,
		}).WithError(err).Error("Failed to route new signal")
		return
	}

	logger.WithFields(map[string]interface{}{
		"signal_id":     signal.ID,
		"symbol":        signal.Symbol,
		"matched_rules": len(result.MatchedRules),
		"actions":       len(result.ExecutedActions),
	}).Info("Signal routed")
}

func anySucceeded(results []ActionResult) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}

// Matches evaluates the rule's present predicates against the signal. Absent
// predicates pass; present ones are ANDed.
func Matches(c model.RuleConditions, s *model.Signal) bool {
	if len(c.Symbols) > 0 && !containsFold(c.Symbols, s.Symbol) {
		return false
	}
	if len(c.Actions) > 0 && !containsFold(c.Actions, s.Action) {
		return false
	}
	if len(c.Providers) > 0 && !containsFold(c.Providers, s.Provider) {
		return false
	}
	if c.MinConfidence != nil && s.Confidence < *c.MinConfidence {
		return false
	}
	if c.MaxConfidence != nil && s.Confidence > *c.MaxConfidence {
		return false
	}
	return true
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
