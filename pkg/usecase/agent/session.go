// Package agent implements the conversational ordering core: a per-turn
// state machine that decides whether menu access is permitted, grounds
// replies in ranked candidates, and finalizes orders.
//
// Menu exposure is double-gated. The model decision must request it AND a
// local vocabulary heuristic must independently confirm user intent; the
// model cannot talk itself into the menu.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/adapter"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/repository"
	"github.com/m-mizutani/parlaplate/pkg/service/persona"
	"github.com/m-mizutani/parlaplate/pkg/service/rank"
	"github.com/m-mizutani/parlaplate/pkg/utils/logging"
	"google.golang.org/genai"
)

type State string

const (
	StateAwaitingIntent State = "AWAITING_INTENT"
	StateMenuUnlocked   State = "MENU_UNLOCKED"
	StateOrderFinalized State = "ORDER_FINALIZED"
)

// Replies fixed by the turn-boundary failure semantics and finalization
const (
	apologyReply  = "Özür dilerim, bir sorun oluştu. Lütfen tekrar deneyin."
	finalizeReply = "Harika! Siparişiniz hazırlanıyor. Sipariş detaylarınızı aşağıdan alabilirsiniz."
	closedReply   = "Siparişiniz alındı, afiyet olsun!"
)

const (
	contextWindow   = 5
	candidateTopK   = 8
	orderConfidence = 0.8
)

// Session drives one conversation against one menu. A session is a single
// logical thread: one turn completes fully before the next is accepted.
type Session struct {
	gemini adapter.Gemini
	ranker *rank.Ranker
	repo   repository.Repository
	sink   adapter.OrderSink

	persona     persona.Persona
	menu        *model.Menu
	menuRef     string
	constraints model.Constraints

	state          State
	history        []model.Turn
	historyID      model.HistoryID
	lastCandidates []model.MenuItem
	order          *model.Order
}

// NewInput contains the dependencies and configuration for a session
type NewInput struct {
	Gemini    adapter.Gemini
	Ranker    *rank.Ranker
	Repo      repository.Repository
	OrderSink adapter.OrderSink // optional analytics sink

	Menu        *model.Menu
	MenuRef     string // source reference recorded in the order export
	PersonaID   string
	Constraints model.Constraints
}

// New validates the menu and resolves the persona. Menu validation is the
// one hard failure allowed to prevent a session from starting.
func New(ctx context.Context, input NewInput) (*Session, error) {
	if input.Menu == nil {
		return nil, goerr.Wrap(model.ErrInvalidMenu, "menu is required")
	}
	if err := input.Menu.Validate(); err != nil {
		return nil, err
	}

	personaID := input.PersonaID
	if personaID == "" {
		personaID = persona.DefaultID
	}
	p, err := persona.Get(personaID)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("session started",
		"persona", p.Name, "restaurant", input.Menu.Restaurant.Label(),
		"items", len(input.Menu.Items))

	return &Session{
		gemini:      input.Gemini,
		ranker:      input.Ranker,
		repo:        input.Repo,
		sink:        input.OrderSink,
		persona:     p,
		menu:        input.Menu,
		menuRef:     input.MenuRef,
		constraints: input.Constraints,
		state:       StateAwaitingIntent,
		historyID:   model.NewHistoryID(),
	}, nil
}

// State returns the current gating state
func (s *Session) State() State {
	return s.state
}

// Order returns the finalized order, or nil before finalization
func (s *Session) Order() *model.Order {
	return s.order
}

// Diagnostics is the explicit per-turn trail replacing ambient state
type Diagnostics struct {
	IntentClear    bool
	RawAction      model.Action
	Notes          string
	CandidateCount int
	Fallback       string // non-empty when a failure was converted to a safe reply
}

// TurnResult is everything one user turn produces
type TurnResult struct {
	Reply      string
	Action     model.Action
	Candidates []model.MenuItem
	Order      *model.Order
	Diag       Diagnostics
}

// Respond handles one user turn. Upstream or ranking failures never
// escape: they are converted into an apologetic reply with an ASK action,
// and the conversation state is left unchanged so the user can retry.
func (s *Session) Respond(ctx context.Context, message string) *TurnResult {
	if s.state == StateOrderFinalized {
		return &TurnResult{
			Reply:  closedReply,
			Action: model.ActionFinalize,
			Order:  s.order,
			Diag:   Diagnostics{RawAction: model.ActionFinalize},
		}
	}

	result, err := s.respond(ctx, message)
	if err != nil {
		logging.From(ctx).Error("turn failed, using safe fallback", "error", err)
		return &TurnResult{
			Reply:  apologyReply,
			Action: model.ActionAsk,
			Diag:   Diagnostics{Fallback: err.Error()},
		}
	}

	s.recordTurn(ctx, message, result.Reply)
	return result
}

func (s *Session) respond(ctx context.Context, message string) (*TurnResult, error) {
	intentClear := detectIntent(s.history, message)

	raw, err := s.complete(ctx, nil, s.conversationContext(message))
	if err != nil {
		return nil, goerr.Wrap(err, "decision call failed")
	}

	decision, reply := normalizeDecision(raw)

	diag := Diagnostics{
		IntentClear: intentClear,
		RawAction:   decision.Action,
		Notes:       decision.Notes,
	}

	result := &TurnResult{
		Reply:  reply,
		Action: decision.Action,
		Diag:   diag,
	}

	switch {
	case decision.Action.NeedsMenu() && intentClear:
		candidates, grounded, err := s.groundReply(ctx, message)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			s.lastCandidates = candidates
			result.Candidates = candidates
			result.Diag.CandidateCount = len(candidates)
			if grounded != "" {
				result.Reply = grounded
			}
		}
		if s.state == StateAwaitingIntent {
			s.state = StateMenuUnlocked
		}

	case decision.Action == model.ActionFinalize:
		order := s.buildOrder(decision)
		if err := order.Validate(); err != nil {
			// Nothing could be materialized, e.g. an empty menu. The
			// session stays open rather than finalizing an unusable order.
			logging.From(ctx).Warn("cannot finalize order", "error", err)
			result.Action = model.ActionAsk
			result.Diag.Notes = "nothing_to_finalize"
			break
		}
		s.order = order
		s.state = StateOrderFinalized
		s.persistOrder(ctx, order)
		result.Order = order
		result.Reply = finalizeReply

	default:
		// ASK, or a menu action without confirmed local intent: the
		// provisional reply stands and no menu content is surfaced.
	}

	logging.From(ctx).Info("turn completed",
		"action", result.Action, "intent_clear", intentClear,
		"candidates", len(result.Candidates), "state", s.state)

	return result, nil
}

// groundReply runs the keyword-extraction sub-call, ranks candidates, and
// issues the second grounded completion
func (s *Session) groundReply(ctx context.Context, message string) ([]model.MenuItem, string, error) {
	keywords := s.extractKeywords(ctx, message)

	candidates, err := s.ranker.Rank(ctx, s.menu, keywords, s.constraints, candidateTopK)
	if err != nil {
		return nil, "", goerr.Wrap(err, "candidate ranking failed")
	}
	if len(candidates) == 0 {
		return nil, "", nil
	}

	prompt := s.conversationContext(message) +
		"\n\nProvide specific recommendations from the menu candidates."
	raw, err := s.complete(ctx, candidates, prompt)
	if err != nil {
		return nil, "", goerr.Wrap(err, "grounded call failed")
	}

	_, reply := normalizeDecision(raw)
	return candidates, reply, nil
}

// complete issues one completion call with the unified system prompt,
// grounded with candidates when provided
func (s *Session) complete(ctx context.Context, candidates []model.MenuItem, userContent string) (string, error) {
	systemPrompt, err := buildSystemPrompt(s.persona, &s.menu.Restaurant, candidates)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
	}
	contents := []*genai.Content{genai.NewContentFromText(userContent, genai.RoleUser)}

	resp, err := s.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return "", err
	}

	return adapter.ResponseText(resp)
}

// conversationContext flattens the recent history plus the new message
func (s *Session) conversationContext(message string) string {
	var b strings.Builder

	start := len(s.history) - contextWindow
	if start < 0 {
		start = 0
	}
	for _, turn := range s.history[start:] {
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("user: ")
	b.WriteString(message)

	return b.String()
}

// buildOrder materializes the order on a FINALIZE decision. Item names
// come from the decision when present, then from the last surfaced
// candidates, then from the menu itself, so the order is never empty.
func (s *Session) buildOrder(decision model.Decision) *model.Order {
	var items []model.OrderItem
	for _, name := range decision.Items {
		if name = strings.TrimSpace(name); name != "" {
			items = append(items, model.OrderItem{Name: name})
		}
	}

	if len(items) == 0 {
		fallback := s.lastCandidates
		if len(fallback) > promptCandidateLimit {
			fallback = fallback[:promptCandidateLimit]
		}
		for _, c := range fallback {
			items = append(items, model.OrderItem{Name: c.Name})
		}
	}
	if len(items) == 0 && len(s.menu.Items) > 0 {
		items = append(items, model.OrderItem{
			Name:  s.menu.Items[0].Name,
			Notes: "persona pick",
		})
	}

	return &model.Order{
		ID:         model.NewOrderID(),
		Items:      items,
		Persona:    s.persona.ID,
		Restaurant: s.menu.Restaurant.Label(),
		Confidence: orderConfidence,
		MenuJSON:   s.menuRef,
		Timestamp:  time.Now(),
	}
}

// persistOrder saves the order and streams it to the analytics sink.
// Both are best-effort: the order is already materialized for the caller.
func (s *Session) persistOrder(ctx context.Context, order *model.Order) {
	if s.repo != nil {
		if err := s.repo.PutOrder(ctx, order); err != nil {
			logging.From(ctx).Warn("failed to persist order", "error", err)
		}
	}

	if s.sink != nil {
		names := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			names = append(names, item.Name)
		}
		row := &adapter.OrderRow{
			OrderID:    string(order.ID),
			ItemNames:  names,
			Persona:    order.Persona,
			Restaurant: order.Restaurant,
			Confidence: order.Confidence,
			MenuJSON:   order.MenuJSON,
			Timestamp:  order.Timestamp,
		}
		if err := s.sink.InsertOrder(ctx, row); err != nil {
			logging.From(ctx).Warn("failed to stream order to sink", "error", err)
		}
	}
}

// recordTurn appends the exchange to the in-memory history and saves the
// conversation record when a repository is configured
func (s *Session) recordTurn(ctx context.Context, message, reply string) {
	s.history = append(s.history,
		model.Turn{Role: model.RoleUser, Content: message},
		model.Turn{Role: model.RoleAssistant, Content: reply},
	)

	if s.repo == nil {
		return
	}
	history := &model.History{
		ID:         s.historyID,
		Persona:    s.persona.ID,
		Restaurant: s.menu.Restaurant.Label(),
		Turns:      s.history,
		Order:      s.order,
	}
	if err := s.repo.PutHistory(ctx, history); err != nil {
		logging.From(ctx).Warn("failed to persist history", "error", err)
	}
}
