package flow

import (
	"context"
	"testing"

	"github.com/zeroinbox/cardactions/internal/catalog"
	"github.com/zeroinbox/cardactions/internal/mocks"
	"github.com/zeroinbox/cardactions/internal/registry"
	"github.com/zeroinbox/cardactions/pkg/models"
)

const testCatalogYAML = `
actions:
  - id: sign_form
    handler: documents
    required:
      - key: documentId
        aliases: [docId]
  - id: email_composer
    handler: composer
  - id: sign_and_send
    handler: documents
    compound: true
compounds:
  - id: sign_and_send
    steps: [sign_form, email_composer]
    end: open_fallback_composer
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("Failed to parse test catalog: %v", err)
	}
	return c
}

func testCard() *models.Card {
	return &models.Card{ID: "card-1", Title: "Permission slip"}
}

func TestRunTwoStepCompound(t *testing.T) {
	cat := testCatalog(t)

	sign := &mocks.MockHandler{
		InvokeFunc: func(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error) {
			if extracted["documentId"] != "doc-9" {
				t.Errorf("sign step documentId = %q, want doc-9", extracted["documentId"])
			}
			return models.HandlerOutcome{
				Status:    models.HandlerSuccess,
				Additions: map[string]string{"signerName": "Alex"},
			}, nil
		},
	}
	compose := &mocks.MockHandler{
		InvokeFunc: func(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error) {
			if extracted["signerName"] != "Alex" {
				t.Errorf("compose step did not receive signerName, got %v", extracted)
			}
			return models.HandlerOutcome{Status: models.HandlerSuccess}, nil
		},
	}

	reg := registry.New()
	reg.Register(models.HandlerDocuments, sign)
	reg.Register(models.HandlerComposer, compose)

	eng, err := New("sign_and_send", []string{"sign_form", "email_composer"}, models.EndOpenFallbackComposer, cat, reg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	state, err := eng.Run(context.Background(), testCard(), map[string]string{"docId": "doc-9"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if state.Phase != PhaseCompleted {
		t.Fatalf("Phase = %s, want completed (reason %q)", state.Phase, state.Reason)
	}
	if state.End != models.EndOpenFallbackComposer {
		t.Errorf("End = %s, want open_fallback_composer", state.End)
	}
	if sign.Calls() != 1 || compose.Calls() != 1 {
		t.Errorf("Step invocations = %d/%d, want 1/1 (no re-entry)", sign.Calls(), compose.Calls())
	}
	if eng.Context()["signerName"] != "Alex" {
		t.Errorf("Accumulated context missing signerName: %v", eng.Context())
	}
}

func TestAbortOnNeedsUserInput(t *testing.T) {
	cat := testCatalog(t)
	sign := &mocks.MockHandler{
		InvokeFunc: func(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error) {
			return models.HandlerOutcome{Status: models.HandlerNeedsUserInput}, nil
		},
	}
	compose := &mocks.MockHandler{}
	reg := registry.New()
	reg.Register(models.HandlerDocuments, sign)
	reg.Register(models.HandlerComposer, compose)

	eng, err := New("sign_and_send", []string{"sign_form", "email_composer"}, models.EndOpenFallbackComposer, cat, reg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	state, err := eng.Run(context.Background(), testCard(), map[string]string{"docId": "doc-9"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if state.Phase != PhaseAborted || state.Reason != ReasonMissingInput {
		t.Errorf("State = %+v, want aborted(missing_input)", state)
	}
	if compose.Calls() != 0 {
		t.Error("Later step must not run after an abort")
	}
}

func TestAbortOnUserCancel(t *testing.T) {
	cat := testCatalog(t)
	sign := &mocks.MockHandler{
		InvokeFunc: func(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error) {
			return models.HandlerOutcome{Status: models.HandlerCancelled}, nil
		},
	}
	reg := registry.New()
	reg.Register(models.HandlerDocuments, sign)
	reg.Register(models.HandlerComposer, &mocks.MockHandler{})

	eng, err := New("sign_and_send", []string{"sign_form", "email_composer"}, models.EndOpenFallbackComposer, cat, reg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	state, err := eng.Run(context.Background(), testCard(), map[string]string{"docId": "doc-9"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if state.Phase != PhaseAborted || state.Reason != ReasonUserCancelled {
		t.Errorf("State = %+v, want aborted(user_cancelled)", state)
	}
}

func TestContextCancellationObserved(t *testing.T) {
	cat := testCatalog(t)
	reg := registry.New()
	reg.Register(models.HandlerDocuments, &mocks.MockHandler{})
	reg.Register(models.HandlerComposer, &mocks.MockHandler{})

	eng, err := New("sign_and_send", []string{"sign_form", "email_composer"}, models.EndOpenFallbackComposer, cat, reg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, err := eng.Run(ctx, testCard(), map[string]string{"docId": "doc-9"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if state.Phase != PhaseAborted || state.Reason != ReasonUserCancelled {
		t.Errorf("State = %+v, want aborted(user_cancelled)", state)
	}
}

func TestCancelMidFlow(t *testing.T) {
	cat := testCatalog(t)
	reg := registry.New()
	reg.Register(models.HandlerDocuments, &mocks.MockHandler{})
	reg.Register(models.HandlerComposer, &mocks.MockHandler{})

	eng, err := New("sign_and_send", []string{"sign_form", "email_composer"}, models.EndOpenFallbackComposer, cat, reg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	eng.Start(map[string]string{"docId": "doc-9"})
	if _, err := eng.Step(context.Background(), testCard()); err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	eng.Cancel()
	state := eng.State()
	if state.Phase != PhaseAborted || state.Reason != ReasonUserCancelled {
		t.Errorf("State = %+v, want aborted(user_cancelled)", state)
	}

	// Terminal states ignore further cancels and steps.
	eng.Cancel()
	if _, err := eng.Step(context.Background(), testCard()); err != ErrNotRunning {
		t.Errorf("Step() after abort error = %v, want ErrNotRunning", err)
	}
}

func TestRestartUsesFreshContext(t *testing.T) {
	cat := testCatalog(t)
	sign := &mocks.MockHandler{
		InvokeFunc: func(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error) {
			return models.HandlerOutcome{
				Status:    models.HandlerSuccess,
				Additions: map[string]string{"signerName": "Alex"},
			}, nil
		},
	}
	reg := registry.New()
	reg.Register(models.HandlerDocuments, sign)
	reg.Register(models.HandlerComposer, &mocks.MockHandler{})

	eng, err := New("sign_and_send", []string{"sign_form", "email_composer"}, models.EndOpenFallbackComposer, cat, reg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	eng.Start(map[string]string{"docId": "doc-9"})
	if _, err := eng.Step(context.Background(), testCard()); err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	if eng.Context()["signerName"] != "Alex" {
		t.Fatal("Expected step 1 addition in accumulated context")
	}
	eng.Cancel()

	// Re-entry restarts at step 0 with no leftover additions.
	eng.Start(map[string]string{"docId": "doc-9"})
	state := eng.State()
	if state.Phase != PhaseStepRunning || state.Step != 0 {
		t.Errorf("State after restart = %+v, want step_running(0)", state)
	}
	if _, ok := eng.Context()["signerName"]; ok {
		t.Error("Restart must discard accumulated additions")
	}
}

func TestMissingRequiredStepInput(t *testing.T) {
	cat := testCatalog(t)
	sign := &mocks.MockHandler{}
	reg := registry.New()
	reg.Register(models.HandlerDocuments, sign)
	reg.Register(models.HandlerComposer, &mocks.MockHandler{})

	eng, err := New("sign_and_send", []string{"sign_form", "email_composer"}, models.EndOpenFallbackComposer, cat, reg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	// No documentId or alias at all.
	state, err := eng.Run(context.Background(), testCard(), map[string]string{"unrelated": "x"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if state.Phase != PhaseAborted || state.Reason != ReasonMissingInput {
		t.Errorf("State = %+v, want aborted(missing_input)", state)
	}
	if sign.Calls() != 0 {
		t.Error("Handler must not be invoked without its required input")
	}
}

func TestNewRejectsBadDefinitions(t *testing.T) {
	cat := testCatalog(t)
	reg := registry.New()

	if _, err := New("x", nil, models.EndReturnToHost, cat, reg); err == nil {
		t.Error("Expected empty step list to be rejected")
	}
	if _, err := New("x", []string{"ghost"}, models.EndReturnToHost, cat, reg); err == nil {
		t.Error("Expected unknown step to be rejected")
	}
	if _, err := New("x", []string{"sign_and_send"}, models.EndReturnToHost, cat, reg); err == nil {
		t.Error("Expected nested compound step to be rejected")
	}
}

func TestUnmappedStepHandler(t *testing.T) {
	cat := testCatalog(t)
	reg := registry.New() // nothing registered

	eng, err := New("sign_and_send", []string{"sign_form", "email_composer"}, models.EndOpenFallbackComposer, cat, reg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	state, err := eng.Run(context.Background(), testCard(), map[string]string{"docId": "doc-9"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if state.Phase != PhaseAborted || state.Reason != ReasonUnmappedStep {
		t.Errorf("State = %+v, want aborted(unmapped_step)", state)
	}
}
