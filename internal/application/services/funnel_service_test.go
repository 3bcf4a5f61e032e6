package services

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/infrastructure/messaging"
	persistuser "github.com/pixreview/pixreview-go/internal/infrastructure/persistence/user"
	"github.com/pixreview/pixreview-go/pkg/config"
)

func newFunnelFixture(t *testing.T) (*FunnelService, *LeadService, *persistuser.MemoryRecordRepository) {
	t.Helper()

	logger := newTestLogger(t)
	tracker := newTestTracker()
	repo := persistuser.NewMemoryRecordRepository()
	leads := NewLeadService(logger, tracker, repo)

	svc := NewFunnelService(logger, tracker, newTestCache(t), leads, nil, funnel.DefaultCatalog)
	svc.SetClock(newFakeClock().Now)
	svc.SetRand(rand.New(rand.NewSource(1)))
	return svc, leads, repo
}

func startEvaluating(t *testing.T, svc *FunnelService, name string) string {
	t.Helper()

	created := svc.CreateSession()
	if !created.Success {
		t.Fatalf("CreateSession() failed: %s", created.Error)
	}
	sessionID := created.State.SessionID

	if result := svc.SubmitName(sessionID, name); !result.Success {
		t.Fatalf("SubmitName() failed: %s", result.Error)
	}
	if result := svc.Advance(sessionID); !result.Success {
		t.Fatalf("Advance() failed: %s", result.Error)
	}
	return sessionID
}

func TestCreateSessionStartsAtWelcome(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)

	result := svc.CreateSession()
	if !result.Success {
		t.Fatalf("CreateSession() failed: %s", result.Error)
	}

	state := result.State
	if state.Step != funnel.StepWelcome {
		t.Errorf("step = %q, want %q", state.Step, funnel.StepWelcome)
	}
	if state.SessionID == "" {
		t.Error("session id is empty")
	}
	if state.Balance != 0 || state.EvaluationsCount != 0 {
		t.Errorf("fresh session has balance %v and %d evaluations", state.Balance, state.EvaluationsCount)
	}
}

func TestSubmitNameRequiresNonEmptyName(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)
	sessionID := svc.CreateSession().State.SessionID

	for _, name := range []string{"", "   ", "\t\n"} {
		result := svc.SubmitName(sessionID, name)
		if result.Success {
			t.Fatalf("SubmitName(%q) succeeded, want failure", name)
		}
	}

	state := svc.GetState(sessionID).State
	if state.Step != funnel.StepWelcome {
		t.Errorf("rejected name moved step to %q", state.Step)
	}

	result := svc.SubmitName(sessionID, "  Maria  ")
	if !result.Success {
		t.Fatalf("SubmitName() failed: %s", result.Error)
	}
	if result.State.Step != funnel.StepExplainer {
		t.Errorf("step = %q, want %q", result.State.Step, funnel.StepExplainer)
	}
	if result.State.UserName != "Maria" {
		t.Errorf("userName = %q, want trimmed %q", result.State.UserName, "Maria")
	}
}

func TestSubmitNameTwiceFails(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)
	sessionID := svc.CreateSession().State.SessionID

	if result := svc.SubmitName(sessionID, "Ana"); !result.Success {
		t.Fatalf("SubmitName() failed: %s", result.Error)
	}
	if result := svc.SubmitName(sessionID, "Outra"); result.Success {
		t.Fatal("second SubmitName() succeeded, want failure")
	}
}

func TestRateGuards(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)
	sessionID := svc.CreateSession().State.SessionID

	if result := svc.Rate(sessionID, funnel.RatingLoved); result.Success {
		t.Fatal("Rate() at welcome succeeded, want failure")
	}
	if result := svc.Rate(sessionID, funnel.Rating("bogus")); result.Success {
		t.Fatal("Rate() with invalid rating succeeded, want failure")
	}
	if result := svc.Rate("missing-session", funnel.RatingLoved); !result.NotFound {
		t.Fatal("Rate() on unknown session did not report not-found")
	}
}

func TestRateEarningDrawsRewardAndAdvances(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Carlos")

	result := svc.Rate(sessionID, funnel.RatingLoved)
	if !result.Success {
		t.Fatalf("Rate() failed: %s", result.Error)
	}

	state := result.State
	if state.CurrentProductIndex != 1 {
		t.Errorf("index = %d, want 1", state.CurrentProductIndex)
	}
	if state.EvaluationsCount != 1 {
		t.Errorf("evaluations = %d, want 1", state.EvaluationsCount)
	}
	if state.Balance < config.RewardLow || state.Balance > config.RewardHigh {
		t.Errorf("balance %v outside reward bounds [%v, %v]", state.Balance, config.RewardLow, config.RewardHigh)
	}
}

func TestRateSkipHasNoSideEffects(t *testing.T) {
	svc, leads, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Carlos")

	result := svc.Rate(sessionID, funnel.RatingSkip)
	if !result.Success {
		t.Fatalf("Rate(skip) failed: %s", result.Error)
	}

	state := result.State
	if state.CurrentProductIndex != 1 {
		t.Errorf("index = %d, want 1", state.CurrentProductIndex)
	}
	if state.Balance != 0 || state.EvaluationsCount != 0 {
		t.Errorf("skip produced balance %v and %d evaluations", state.Balance, state.EvaluationsCount)
	}

	stats, err := leads.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalUsers != 0 {
		t.Errorf("skip created %d records, want 0", stats.TotalUsers)
	}
}

func TestInterludeAtEverySecondIndex(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Paula")

	// Index 0 -> 1: no interlude. Index 1 -> 2: interlude pending.
	if state := svc.Rate(sessionID, funnel.RatingLiked).State; state.InterludePending {
		t.Fatal("interlude pending after first rating")
	}
	state := svc.Rate(sessionID, funnel.RatingLiked).State
	if !state.InterludePending {
		t.Fatal("no interlude pending at index 2")
	}
	if state.CurrentProduct != nil {
		t.Error("snapshot exposes a product while interlude is pending")
	}

	// Rating is blocked until the interlude is dismissed.
	if result := svc.Rate(sessionID, funnel.RatingLiked); result.Success {
		t.Fatal("Rate() during interlude succeeded, want failure")
	}

	dismissed := svc.Advance(sessionID)
	if !dismissed.Success {
		t.Fatalf("Advance() to dismiss interlude failed: %s", dismissed.Error)
	}
	if dismissed.State.InterludePending {
		t.Error("interlude still pending after dismissal")
	}
	if dismissed.State.CurrentProductIndex != 2 {
		t.Errorf("dismissal moved index to %d, want 2", dismissed.State.CurrentProductIndex)
	}

	if result := svc.Rate(sessionID, funnel.RatingLiked); !result.Success {
		t.Fatalf("Rate() after dismissal failed: %s", result.Error)
	}
}

func TestDislikedOpensFeedbackPrompt(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Rita")

	result := svc.Rate(sessionID, funnel.RatingDisliked)
	if !result.Success {
		t.Fatalf("Rate(disliked) failed: %s", result.Error)
	}

	state := result.State
	if !state.AwaitingFeedback {
		t.Fatal("disliked rating did not open the feedback prompt")
	}
	if state.CurrentProductIndex != 0 {
		t.Errorf("index advanced to %d before feedback resolved", state.CurrentProductIndex)
	}
	if state.Balance != 0 || state.EvaluationsCount != 0 {
		t.Error("disliked rating credited a reward before feedback resolved")
	}

	// Another rating is blocked while the prompt is open.
	if blocked := svc.Rate(sessionID, funnel.RatingLoved); blocked.Success {
		t.Fatal("Rate() with feedback pending succeeded, want failure")
	}
}

func TestSubmitFeedbackWithTextEarnsBonus(t *testing.T) {
	svc, leads, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Rita")
	svc.Rate(sessionID, funnel.RatingDisliked)

	result := svc.SubmitFeedback(sessionID, "Achei o material fraco", false)
	if !result.Success {
		t.Fatalf("SubmitFeedback() failed: %s", result.Error)
	}

	state := result.State
	if state.AwaitingFeedback {
		t.Error("feedback prompt still open after submission")
	}
	if state.CurrentProductIndex != 1 {
		t.Errorf("index = %d, want 1", state.CurrentProductIndex)
	}
	if state.EvaluationsCount != 1 {
		t.Errorf("evaluations = %d, want 1", state.EvaluationsCount)
	}

	minWant := config.RewardLow + config.FeedbackBonus
	maxWant := config.RewardHigh + config.FeedbackBonus
	if state.Balance < minWant || state.Balance > maxWant {
		t.Errorf("balance %v outside [%v, %v] with feedback bonus", state.Balance, minWant, maxWant)
	}

	records, err := leads.ListRecords()
	if err != nil || len(records) != 1 {
		t.Fatalf("ListRecords() = %d records, err %v", len(records), err)
	}
	evals := records[0].Evaluations
	if len(evals) != 1 || evals[0].Feedback != "Achei o material fraco" {
		t.Errorf("stored evaluation feedback = %+v", evals)
	}
	if records[0].FinalBalance != records[0].TotalEarned+config.SignupBonus {
		t.Errorf("FinalBalance %v != TotalEarned %v + signup bonus", records[0].FinalBalance, records[0].TotalEarned)
	}
}

func TestSubmitFeedbackDeclinedSkipsBonus(t *testing.T) {
	svc, leads, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Rita")
	svc.Rate(sessionID, funnel.RatingDisliked)

	result := svc.SubmitFeedback(sessionID, "este texto deve ser descartado", true)
	if !result.Success {
		t.Fatalf("SubmitFeedback(declined) failed: %s", result.Error)
	}

	state := result.State
	if state.Balance < config.RewardLow || state.Balance > config.RewardHigh {
		t.Errorf("declined feedback balance %v outside base reward bounds", state.Balance)
	}

	records, _ := leads.ListRecords()
	if len(records) != 1 || len(records[0].Evaluations) != 1 {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[0].Evaluations[0].Feedback != "" {
		t.Errorf("declined feedback stored text %q", records[0].Evaluations[0].Feedback)
	}
}

func TestSubmitFeedbackWithoutPromptFails(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Rita")

	if result := svc.SubmitFeedback(sessionID, "sem prompt", false); result.Success {
		t.Fatal("SubmitFeedback() without an open prompt succeeded")
	}
}

func TestFullWalkthroughCompletesFunnel(t *testing.T) {
	svc, leads, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Fernanda")

	total := len(funnel.DefaultCatalog)
	for i := 0; i < total; i++ {
		state := svc.GetState(sessionID).State
		if state.InterludePending {
			if result := svc.Advance(sessionID); !result.Success {
				t.Fatalf("Advance() at index %d failed: %s", i, result.Error)
			}
		}
		if result := svc.Rate(sessionID, funnel.RatingLoved); !result.Success {
			t.Fatalf("Rate() at index %d failed: %s", i, result.Error)
		}
	}

	state := svc.GetState(sessionID).State
	if state.Step != funnel.StepComplete {
		t.Fatalf("step = %q after full catalog, want %q", state.Step, funnel.StepComplete)
	}
	if state.EvaluationsCount != total {
		t.Errorf("evaluations = %d, want %d", state.EvaluationsCount, total)
	}
	if state.InterludePending {
		t.Error("interlude pending on the complete step")
	}
	if want := state.Balance + config.SignupBonus; state.FinalBalance != want {
		t.Errorf("finalBalance = %v, want %v", state.FinalBalance, want)
	}

	records, _ := leads.ListRecords()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	record := records[0]
	if len(record.Evaluations) != total {
		t.Errorf("stored %d evaluations, want %d", len(record.Evaluations), total)
	}
	if record.FinalBalance != record.TotalEarned+config.SignupBonus {
		t.Errorf("FinalBalance %v != TotalEarned %v + signup bonus", record.FinalBalance, record.TotalEarned)
	}
}

func TestWithdrawRequiresCompleteStep(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Bia")

	result := svc.Withdraw(sessionID, "Bia Souza", "bia@pix.com", "+5511999999999", true)
	if result.Success {
		t.Fatal("Withdraw() before completion succeeded")
	}
}

func TestWithdrawStoresDetailsAndResetsSession(t *testing.T) {
	svc, leads, _ := newFunnelFixture(t)
	sessionID := startEvaluating(t, svc, "Fernanda")

	for i := 0; i < len(funnel.DefaultCatalog); i++ {
		if svc.GetState(sessionID).State.InterludePending {
			svc.Advance(sessionID)
		}
		svc.Rate(sessionID, funnel.RatingLoved)
	}

	if result := svc.Withdraw(sessionID, "Fernanda Lima", "", "+5511988887777", true); result.Success {
		t.Fatal("Withdraw() with empty pix key succeeded")
	}

	result := svc.Withdraw(sessionID, "Fernanda Lima", "fernanda@pix.com", "+5511988887777", true)
	if !result.Success {
		t.Fatalf("Withdraw() failed: %s", result.Error)
	}

	// Session is fully reset for a fresh run.
	state := result.State
	if state.Step != funnel.StepWelcome {
		t.Errorf("step after withdraw = %q, want %q", state.Step, funnel.StepWelcome)
	}
	if state.UserName != "" || state.Balance != 0 || state.EvaluationsCount != 0 || state.CurrentProductIndex != 0 {
		t.Errorf("session not reset: %+v", state)
	}

	// The persisted record survives with the withdrawal attached.
	records, _ := leads.ListRecords()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	record := records[0]
	if record.Withdrawal == nil {
		t.Fatal("withdrawal not stored")
	}
	if record.Withdrawal.PixKey != "fernanda@pix.com" || record.Withdrawal.WhatsApp != "+5511988887777" {
		t.Errorf("withdrawal = %+v", record.Withdrawal)
	}
	if !record.AllowFutureContact {
		t.Error("allowFutureContact not stored")
	}
}

func TestGetStateUnknownSession(t *testing.T) {
	svc, _, _ := newFunnelFixture(t)

	result := svc.GetState("no-such-session")
	if result.Success || !result.NotFound {
		t.Fatalf("GetState() on unknown session = %+v, want not-found", result)
	}
}

// The browser heartbeats and polls state while the user rates, so the
// read paths run concurrently with transitions on the same session.
func TestConcurrentReadsDuringRating(t *testing.T) {
	logger := newTestLogger(t)
	tracker := newTestTracker()
	cache := newTestCache(t)
	leads := NewLeadService(logger, tracker, persistuser.NewMemoryRecordRepository())

	svc := NewFunnelService(logger, tracker, cache, leads, nil, funnel.DefaultCatalog)
	presence := NewPresenceService(logger, tracker, cache, &fakeBroadcaster{})
	roster := messaging.NewRosterBroadcaster(cache, logger)

	sessionID := startEvaluating(t, svc, "Maria")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if result := svc.GetState(sessionID); result.Success {
				if result.State.Balance < 0 || result.State.EvaluationsCount > len(funnel.DefaultCatalog) {
					t.Errorf("observed corrupt snapshot: %+v", result.State)
					return
				}
			}
			presence.Heartbeat(sessionID)
			roster.BuildPayload(time.Now().UTC())
		}
	}()

	for i := 0; i < len(funnel.DefaultCatalog); i++ {
		if svc.GetState(sessionID).State.InterludePending {
			if result := svc.Advance(sessionID); !result.Success {
				t.Errorf("Advance() failed: %s", result.Error)
			}
		}
		if result := svc.Rate(sessionID, funnel.RatingLoved); !result.Success {
			t.Errorf("Rate() failed: %s", result.Error)
		}
	}

	close(stop)
	wg.Wait()

	final := svc.GetState(sessionID).State
	if final.Step != funnel.StepComplete {
		t.Fatalf("step = %q, want %q", final.Step, funnel.StepComplete)
	}
	if final.EvaluationsCount != len(funnel.DefaultCatalog) {
		t.Errorf("evaluations = %d, want %d", final.EvaluationsCount, len(funnel.DefaultCatalog))
	}
	if final.FinalBalance != final.Balance+config.SignupBonus {
		t.Errorf("final balance %v does not match balance %v plus bonus", final.FinalBalance, final.Balance)
	}
}
