package services

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/domain/user"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/manager"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/types"
	"github.com/pixreview/pixreview-go/internal/infrastructure/email"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/internal/infrastructure/security"
	"github.com/pixreview/pixreview-go/pkg/config"
)

// noPendingFeedback marks a session with no open feedback prompt.
const noPendingFeedback = -1

// FunnelService drives the visitor funnel: step transitions, reward
// bookkeeping, and the handoff to the lead service for persistence.
// Transitions are serialized; each one executes atomically with respect
// to the others.
type FunnelService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	cache       *manager.Manager
	leads       *LeadService
	emailSvc    email.Service
	catalog     []funnel.Product

	rng   *rand.Rand
	rngMu sync.Mutex
	mu    sync.Mutex
	nowFn func() time.Time
}

// NewFunnelService creates a new funnel service
func NewFunnelService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, cache *manager.Manager, leads *LeadService, emailSvc email.Service, catalog []funnel.Product) *FunnelService {
	return &FunnelService{
		logger:      logger,
		perfTracker: perfTracker,
		cache:       cache,
		leads:       leads,
		emailSvc:    emailSvc,
		catalog:     catalog,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service clock. Intended for tests.
func (s *FunnelService) SetClock(nowFn func() time.Time) {
	s.nowFn = nowFn
}

// SetRand overrides the reward source. Intended for tests.
func (s *FunnelService) SetRand(rng *rand.Rand) {
	s.rng = rng
}

// StateSnapshot is the session view returned to the browser after
// every funnel operation.
type StateSnapshot struct {
	SessionID           string          `json:"sessionId"`
	Step                funnel.Step     `json:"step"`
	UserName            string          `json:"userName,omitempty"`
	CurrentProductIndex int             `json:"currentProductIndex"`
	TotalProducts       int             `json:"totalProducts"`
	Balance             float64         `json:"balance"`
	EvaluationsCount    int             `json:"evaluationsCount"`
	InterludePending    bool            `json:"interludePending"`
	AwaitingFeedback    bool            `json:"awaitingFeedback"`
	CurrentProduct      *funnel.Product `json:"currentProduct,omitempty"`
	FinalBalance        float64         `json:"finalBalance,omitempty"`
}

// FunnelResult holds the outcome of a funnel operation.
type FunnelResult struct {
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	NotFound bool           `json:"-"`
	State    *StateSnapshot `json:"state,omitempty"`
}

func failure(msg string) *FunnelResult {
	return &FunnelResult{Success: false, Error: msg}
}

func notFound() *FunnelResult {
	return &FunnelResult{Success: false, Error: "session not found", NotFound: true}
}

// CreateSession starts a fresh funnel run at the Welcome step.
func (s *FunnelService) CreateSession() *FunnelResult {
	marker := s.perfTracker.StartOperation("funnel:create_session")
	defer marker.Complete()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	session := &types.FunnelSession{
		SessionID:            security.GenerateSessionID(),
		Step:                 funnel.StepWelcome,
		PendingFeedbackIndex: noPendingFeedback,
		CreatedAt:            now,
		LastActivity:         now,
		ExpiresAt:            now.Add(config.SessionTTL),
	}
	s.cache.SetSession(session)

	s.logger.Funnel().Info("Funnel session created", "sessionId", session.SessionID)
	marker.SetSuccess(true)
	return &FunnelResult{Success: true, State: s.snapshot(session)}
}

// GetState returns the current session snapshot without mutating it.
func (s *FunnelService) GetState(sessionID string) *FunnelResult {
	session, found := s.cache.GetSession(sessionID)
	if !found {
		return notFound()
	}
	return &FunnelResult{Success: true, State: s.snapshot(session)}
}

// SubmitName captures the visitor's name and moves Welcome to Explainer.
// An empty name blocks the transition and leaves state unchanged.
func (s *FunnelService) SubmitName(sessionID, name string) *FunnelResult {
	marker := s.perfTracker.StartOperation("funnel:submit_name")
	defer marker.Complete()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.cache.GetSession(sessionID)
	if !found {
		marker.SetSuccess(false)
		return notFound()
	}

	name = strings.TrimSpace(name)
	if name == "" {
		marker.SetSuccess(false)
		return failure("name is required")
	}

	if err := s.fire(session, funnel.EventSubmitName); err != nil {
		marker.SetError(err)
		return failure("name already submitted")
	}

	session.UserName = name
	session.RecordID = security.GenerateULID()
	s.touch(session)

	marker.AddMetadata("recordId", session.RecordID)
	marker.SetSuccess(true)
	return &FunnelResult{Success: true, State: s.snapshot(session)}
}

// Advance moves Explainer to Evaluating, or dismisses a pending
// interlude while Evaluating.
func (s *FunnelService) Advance(sessionID string) *FunnelResult {
	marker := s.perfTracker.StartOperation("funnel:advance")
	defer marker.Complete()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.cache.GetSession(sessionID)
	if !found {
		marker.SetSuccess(false)
		return notFound()
	}

	switch {
	case session.Step == funnel.StepExplainer:
		if err := s.fire(session, funnel.EventBeginEvaluating); err != nil {
			marker.SetError(err)
			return failure("cannot begin evaluating")
		}
	case session.Step == funnel.StepEvaluating && session.InterludePending:
		session.InterludePending = false
	default:
		marker.SetSuccess(false)
		return failure("nothing to advance")
	}

	s.touch(session)
	marker.SetSuccess(true)
	return &FunnelResult{Success: true, State: s.snapshot(session)}
}

// Rate applies one rating to the current product index. Skip advances
// with no side effects; disliked opens the feedback prompt; the rest
// draw a reward, persist the evaluation, and advance.
func (s *FunnelService) Rate(sessionID string, rating funnel.Rating) *FunnelResult {
	marker := s.perfTracker.StartOperation("funnel:rate")
	defer marker.Complete()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.cache.GetSession(sessionID)
	if !found {
		marker.SetSuccess(false)
		return notFound()
	}

	if !rating.Valid() {
		marker.SetSuccess(false)
		return failure("invalid rating")
	}
	if session.Step != funnel.StepEvaluating {
		marker.SetSuccess(false)
		return failure("not evaluating")
	}
	if session.InterludePending {
		marker.SetSuccess(false)
		return failure("interlude pending")
	}
	if session.PendingFeedbackIndex != noPendingFeedback {
		marker.SetSuccess(false)
		return failure("feedback pending")
	}
	if session.CurrentProductIndex >= len(s.catalog) {
		marker.SetSuccess(false)
		return failure("no product to rate")
	}

	marker.AddMetadata("rating", string(rating))

	switch rating {
	case funnel.RatingSkip:
		s.advanceIndex(session)

	case funnel.RatingDisliked:
		session.PendingFeedbackIndex = session.CurrentProductIndex

	default:
		product := s.catalog[session.CurrentProductIndex]
		amount := s.drawReward()
		eval := &funnel.Evaluation{
			ID:           security.GenerateULID(),
			RecordID:     session.RecordID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			Rating:       rating,
			EarnedAmount: amount,
			CreatedAt:    s.nowFn(),
		}
		if err := s.leads.RecordEvaluation(session.RecordID, session.UserName, eval, 0); err != nil {
			s.logger.LogError(logging.ChannelFunnel, "rate", err, map[string]any{"sessionId": sessionID})
			marker.SetError(err)
			return failure("failed to record evaluation")
		}
		session.Balance += amount
		session.EvaluationsCount++
		s.advanceIndex(session)
	}

	s.touch(session)
	marker.SetSuccess(true)
	return &FunnelResult{Success: true, State: s.snapshot(session)}
}

// SubmitFeedback resolves an open disliked prompt. Non-empty feedback
// earns the fixed bonus; either way the disliked evaluation is recorded
// with its own reward draw and the index advances exactly once.
func (s *FunnelService) SubmitFeedback(sessionID, feedback string, declined bool) *FunnelResult {
	marker := s.perfTracker.StartOperation("funnel:submit_feedback")
	defer marker.Complete()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.cache.GetSession(sessionID)
	if !found {
		marker.SetSuccess(false)
		return notFound()
	}

	if session.Step != funnel.StepEvaluating || session.PendingFeedbackIndex == noPendingFeedback {
		marker.SetSuccess(false)
		return failure("no feedback pending")
	}

	feedback = strings.TrimSpace(feedback)
	if declined {
		feedback = ""
	}

	var bonus float64
	if feedback != "" {
		bonus = config.FeedbackBonus
	}

	product := s.catalog[session.PendingFeedbackIndex]
	amount := s.drawReward()
	eval := &funnel.Evaluation{
		ID:           security.GenerateULID(),
		RecordID:     session.RecordID,
		ProductID:    product.ID,
		ProductName:  product.Name,
		Rating:       funnel.RatingDisliked,
		Feedback:     feedback,
		EarnedAmount: amount,
		CreatedAt:    s.nowFn(),
	}
	if err := s.leads.RecordEvaluation(session.RecordID, session.UserName, eval, bonus); err != nil {
		s.logger.LogError(logging.ChannelFunnel, "submit_feedback", err, map[string]any{"sessionId": sessionID})
		marker.SetError(err)
		return failure("failed to record evaluation")
	}

	session.Balance += amount + bonus
	session.EvaluationsCount++
	session.PendingFeedbackIndex = noPendingFeedback
	s.advanceIndex(session)

	s.touch(session)
	marker.AddMetadata("bonus", bonus)
	marker.SetSuccess(true)
	return &FunnelResult{Success: true, State: s.snapshot(session)}
}

// Withdraw finalizes a completed run: stores the payout details, fires
// the operator notification, and fully resets the session.
func (s *FunnelService) Withdraw(sessionID, fullName, pixKey, whatsapp string, allowContact bool) *FunnelResult {
	marker := s.perfTracker.StartOperation("funnel:withdraw")
	defer marker.Complete()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.cache.GetSession(sessionID)
	if !found {
		marker.SetSuccess(false)
		return notFound()
	}

	if session.Step != funnel.StepComplete {
		marker.SetSuccess(false)
		return failure("funnel not complete")
	}

	fullName = strings.TrimSpace(fullName)
	pixKey = strings.TrimSpace(pixKey)
	whatsapp = strings.TrimSpace(whatsapp)
	if fullName == "" || pixKey == "" || whatsapp == "" {
		marker.SetSuccess(false)
		return failure("fullName, pixKey and whatsapp are required")
	}

	if err := s.leads.EnsureRecord(session.RecordID, session.UserName); err != nil {
		marker.SetError(err)
		return failure("failed to load record")
	}

	withdrawal := &user.Withdrawal{FullName: fullName, PixKey: pixKey, WhatsApp: whatsapp}
	if err := s.leads.SetWithdrawal(session.RecordID, withdrawal, allowContact); err != nil {
		marker.SetError(err)
		return failure("failed to store withdrawal")
	}

	finalBalance := session.Balance + config.SignupBonus
	s.notifyWithdrawal(session.UserName, pixKey, whatsapp, finalBalance)

	s.logger.Funnel().Info("Funnel finalized",
		"sessionId", sessionID,
		"recordId", session.RecordID,
		"finalBalance", finalBalance,
		"evaluations", session.EvaluationsCount)

	s.resetSession(session)
	s.touch(session)

	marker.SetSuccess(true)
	return &FunnelResult{Success: true, State: s.snapshot(session)}
}

// fire runs one event through a step machine seeded at the session's
// current step and writes the resulting step back.
func (s *FunnelService) fire(session *types.FunnelSession, event string) error {
	machine := funnel.NewStepMachine(session.Step)
	if err := machine.Event(context.Background(), event); err != nil {
		return err
	}
	from := session.Step
	session.Step = funnel.Step(machine.Current())
	s.logger.LogFunnelTransition(session.SessionID, event, string(from), string(session.Step))
	return nil
}

// advanceIndex moves the product index forward, inserting an interlude
// at every second index and completing the funnel at the end of the
// catalog. The index only ever moves forward.
func (s *FunnelService) advanceIndex(session *types.FunnelSession) {
	session.CurrentProductIndex++
	next := session.CurrentProductIndex

	if next >= len(s.catalog) {
		session.InterludePending = false
		if err := s.fire(session, funnel.EventCompleteFunnel); err != nil {
			s.logger.Funnel().Error("Completion transition failed", "sessionId", session.SessionID, "error", err.Error())
		}
		return
	}

	if next%config.InterludeStride == 0 {
		session.InterludePending = true
	}
}

// resetSession clears a finalized run back to a clean Welcome state.
// The persisted record survives under its id; the session starts over.
func (s *FunnelService) resetSession(session *types.FunnelSession) {
	if err := s.fire(session, funnel.EventRestart); err != nil {
		session.Step = funnel.StepWelcome
	}
	session.UserName = ""
	session.RecordID = ""
	session.CurrentProductIndex = 0
	session.Balance = 0
	session.EvaluationsCount = 0
	session.InterludePending = false
	session.PendingFeedbackIndex = noPendingFeedback
}

func (s *FunnelService) notifyWithdrawal(name, pixKey, whatsapp string, amount float64) {
	if s.emailSvc == nil || config.NotifyEmailTo == "" {
		return
	}
	if err := s.emailSvc.SendWithdrawalNotification(config.NotifyEmailTo, name, pixKey, whatsapp, amount); err != nil {
		s.logger.System().Warn("Withdrawal notification failed", "error", err.Error())
	}
}

func (s *FunnelService) drawReward() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return funnel.DrawReward(s.rng, config.RewardLow, config.RewardHigh)
}

func (s *FunnelService) touch(session *types.FunnelSession) {
	now := s.nowFn()
	session.LastActivity = now
	session.ExpiresAt = now.Add(config.SessionTTL)
	s.cache.SetSession(session)
}

func (s *FunnelService) snapshot(session *types.FunnelSession) *StateSnapshot {
	snap := &StateSnapshot{
		SessionID:           session.SessionID,
		Step:                session.Step,
		UserName:            session.UserName,
		CurrentProductIndex: session.CurrentProductIndex,
		TotalProducts:       len(s.catalog),
		Balance:             session.Balance,
		EvaluationsCount:    session.EvaluationsCount,
		InterludePending:    session.InterludePending,
		AwaitingFeedback:    session.PendingFeedbackIndex != noPendingFeedback,
	}

	if session.Step == funnel.StepEvaluating && !session.InterludePending &&
		session.CurrentProductIndex < len(s.catalog) {
		product := s.catalog[session.CurrentProductIndex]
		snap.CurrentProduct = &product
	}
	if session.Step == funnel.StepComplete {
		snap.FinalBalance = session.Balance + config.SignupBonus
	}
	return snap
}
