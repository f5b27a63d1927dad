package calls

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"leadline-backend/internal/telephony"
	"leadline-backend/platform/apperr"
	"leadline-backend/platform/logger"

	"github.com/google/uuid"
)

type fakeCallStore struct {
	calls      map[uuid.UUID]Call
	recordings []Recording
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{calls: make(map[uuid.UUID]Call)}
}

func (f *fakeCallStore) CreateCall(_ context.Context, call *Call) (*Call, error) {
	stored := *call
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.calls[stored.ID] = stored
	return &stored, nil
}

func (f *fakeCallStore) GetCall(_ context.Context, id uuid.UUID) (*Call, error) {
	stored, ok := f.calls[id]
	if !ok {
		return nil, apperr.NotFound("call not found")
	}
	copied := stored
	return &copied, nil
}

func (f *fakeCallStore) UpdateCall(_ context.Context, call *Call) error {
	if _, ok := f.calls[call.ID]; !ok {
		return errors.New("missing call")
	}
	f.calls[call.ID] = *call
	return nil
}

func (f *fakeCallStore) UpdateSalesStatus(_ context.Context, id uuid.UUID, status string) (*Call, error) {
	stored, ok := f.calls[id]
	if !ok {
		return nil, apperr.NotFound("call not found")
	}
	stored.SalesStatus = status
	f.calls[id] = stored
	copied := stored
	return &copied, nil
}

func (f *fakeCallStore) ListCalls(_ context.Context, _, _ int) ([]Call, error) {
	var out []Call
	for _, c := range f.calls {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCallStore) AddRecording(_ context.Context, rec *Recording) (*Recording, error) {
	stored := *rec
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	f.recordings = append(f.recordings, stored)
	return &stored, nil
}

func (f *fakeCallStore) ListRecordings(_ context.Context, callID uuid.UUID) ([]Recording, error) {
	var out []Recording
	for _, rec := range f.recordings {
		if rec.CallID == callID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeCallStore) only(t *testing.T) Call {
	t.Helper()
	if len(f.calls) != 1 {
		t.Fatalf("expected exactly 1 call, got %d", len(f.calls))
	}
	for _, c := range f.calls {
		return c
	}
	return Call{}
}

type fakeProvider struct {
	placeErr  error
	placed    []telephony.CallRequest
	placeSID  string
	fetchInfo *telephony.CallInfo
	recs      []telephony.Recording
}

func (f *fakeProvider) PlaceCall(_ context.Context, req telephony.CallRequest) (*telephony.CallInfo, error) {
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	sid := f.placeSID
	if sid == "" {
		sid = "CA001"
	}
	return &telephony.CallInfo{SID: sid, Status: telephony.StatusQueued}, nil
}

func (f *fakeProvider) FetchCall(_ context.Context, _ string) (*telephony.CallInfo, error) {
	return f.fetchInfo, nil
}

func (f *fakeProvider) ListRecordings(_ context.Context, _ string) ([]telephony.Recording, error) {
	return f.recs, nil
}

func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }

type fakeCallsConfig struct{}

func (fakeCallsConfig) GetTelephonyOriginNumber() string { return "+15550001111" }
func (fakeCallsConfig) GetDefaultCountryCode() string    { return "+91" }
func (fakeCallsConfig) GetCallbackBaseURL() string       { return "https://crm.example.com" }

type fakeNudger struct {
	scheduled []uuid.UUID
}

func (f *fakeNudger) ScheduleCallReconcile(_ context.Context, callID uuid.UUID, _ time.Duration) error {
	f.scheduled = append(f.scheduled, callID)
	return nil
}

func newTestCallService(store *fakeCallStore, provider *fakeProvider, nudger ReconcileScheduler) *Service {
	return NewService(store, provider, fakeCallsConfig{}, nudger, nil, logger.New("development"))
}

func TestInitiateCallSuccess(t *testing.T) {
	store := newFakeCallStore()
	provider := &fakeProvider{placeSID: "CA777"}
	svc := newTestCallService(store, provider, nil)
	agent := uuid.New()

	call, err := svc.InitiateCall(context.Background(), InitiateCallInput{
		AgentID: agent,
		Phone:   "98765 43210",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.Phone != "+919876543210" {
		t.Fatalf("expected dialable phone, got %q", call.Phone)
	}
	if call.ProviderSID == nil || *call.ProviderSID != "CA777" {
		t.Fatalf("expected provider sid stored, got %v", call.ProviderSID)
	}
	if call.SalesStatus != SalesPending || call.Outcome != nil {
		t.Fatalf("expected pending sales status and no outcome, got %s/%v", call.SalesStatus, call.Outcome)
	}

	if len(provider.placed) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(provider.placed))
	}
	wantCallback := "https://crm.example.com/calls/webhook/" + call.ID.String()
	if provider.placed[0].CallbackURL != wantCallback {
		t.Fatalf("expected callback URL %q, got %q", wantCallback, provider.placed[0].CallbackURL)
	}
	if !provider.placed[0].Record {
		t.Fatal("expected recording enabled on placement")
	}
}

func TestInitiateCallRowSurvivesProviderFailure(t *testing.T) {
	store := newFakeCallStore()
	provider := &fakeProvider{placeErr: errors.New("timeout")}
	svc := newTestCallService(store, provider, nil)

	_, err := svc.InitiateCall(context.Background(), InitiateCallInput{
		AgentID: uuid.New(),
		Phone:   "9876543210",
	})
	if err == nil {
		t.Fatal("expected error from failed placement")
	}

	call := store.only(t)
	if call.Outcome == nil || *call.Outcome != OutcomeNoAnswer {
		t.Fatalf("expected no_answer outcome, got %v", call.Outcome)
	}
	if call.EndTime == nil {
		t.Fatal("expected end time set on failed placement")
	}
	if call.Note == "" {
		t.Fatal("expected failure note on call")
	}
}

func TestInitiateCallTypedErrors(t *testing.T) {
	cases := []struct {
		name     string
		placeErr error
		kind     apperr.Kind
	}{
		{"restricted destination", fmt.Errorf("wrapped: %w", telephony.ErrRestrictedDestination), apperr.KindBadRequest},
		{"misconfigured", fmt.Errorf("wrapped: %w", telephony.ErrMisconfigured), apperr.KindInternal},
		{"generic", errors.New("boom"), apperr.KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeCallStore()
			svc := newTestCallService(store, &fakeProvider{placeErr: tc.placeErr}, nil)

			_, err := svc.InitiateCall(context.Background(), InitiateCallInput{
				AgentID: uuid.New(),
				Phone:   "9876543210",
			})
			if !apperr.Is(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
		})
	}
}

func seedCall(store *fakeCallStore) Call {
	sid := "CA001"
	stored := Call{
		ID:          uuid.New(),
		AgentID:     uuid.New(),
		Phone:       "+919876543210",
		Direction:   DirectionOutgoing,
		ProviderSID: &sid,
		SalesStatus: SalesPending,
		StartTime:   time.Now(),
		CreatedAt:   time.Now(),
	}
	store.calls[stored.ID] = stored
	return stored
}

func TestCallbackRingingIsNoOp(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	svc := newTestCallService(store, &fakeProvider{}, nil)

	if err := svc.HandleProviderCallback(context.Background(), seeded.ID, CallbackInput{Status: telephony.StatusRinging}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := store.calls[seeded.ID]
	if after.Outcome != nil || after.EndTime != nil {
		t.Fatalf("ringing must not change state, got %+v", after)
	}
}

func TestCallbackInProgressSetsAnswered(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	svc := newTestCallService(store, &fakeProvider{}, nil)

	if err := svc.HandleProviderCallback(context.Background(), seeded.ID, CallbackInput{Status: telephony.StatusInProgress}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := store.calls[seeded.ID]
	if after.Outcome == nil || *after.Outcome != OutcomeAnswered {
		t.Fatalf("expected answered outcome, got %v", after.Outcome)
	}
	if after.EndTime != nil {
		t.Fatal("in-progress must not end the call")
	}
}

func TestCallbackCompletedDefaultsAnswered(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	svc := newTestCallService(store, &fakeProvider{}, nil)

	duration := 42
	if err := svc.HandleProviderCallback(context.Background(), seeded.ID, CallbackInput{
		Status:   telephony.StatusCompleted,
		Duration: &duration,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := store.calls[seeded.ID]
	if after.Outcome == nil || *after.Outcome != OutcomeAnswered {
		t.Fatalf("expected completed to default outcome to answered, got %v", after.Outcome)
	}
	if after.EndTime == nil {
		t.Fatal("expected end time on completion")
	}
	if after.Duration == nil || *after.Duration != 42 {
		t.Fatalf("expected duration 42, got %v", after.Duration)
	}
}

func TestCallbackOutOfOrderLateInProgress(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	svc := newTestCallService(store, &fakeProvider{}, nil)
	ctx := context.Background()

	duration := 30
	if err := svc.HandleProviderCallback(ctx, seeded.ID, CallbackInput{Status: telephony.StatusCompleted, Duration: &duration}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ended := store.calls[seeded.ID].EndTime

	// A stale in-progress arriving after completion must not reopen the call.
	if err := svc.HandleProviderCallback(ctx, seeded.ID, CallbackInput{Status: telephony.StatusInProgress}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := store.calls[seeded.ID]
	if after.EndTime == nil || !after.EndTime.Equal(*ended) {
		t.Fatal("late in-progress must not change end time")
	}
	if after.Outcome == nil || *after.Outcome != OutcomeAnswered {
		t.Fatalf("late in-progress must not change outcome, got %v", after.Outcome)
	}
}

func TestCallbackDuplicateCompletedIsIdempotent(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	svc := newTestCallService(store, &fakeProvider{}, nil)
	ctx := context.Background()

	duration := 30
	if err := svc.HandleProviderCallback(ctx, seeded.ID, CallbackInput{Status: telephony.StatusCompleted, Duration: &duration}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := store.calls[seeded.ID]

	other := 99
	if err := svc.HandleProviderCallback(ctx, seeded.ID, CallbackInput{Status: telephony.StatusCompleted, Duration: &other}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := store.calls[seeded.ID]
	if !after.EndTime.Equal(*first.EndTime) {
		t.Fatal("duplicate completion must keep the first end time")
	}
	if *after.Duration != 30 {
		t.Fatalf("duplicate completion must keep the first duration, got %d", *after.Duration)
	}
}

func TestCallbackBusyMarksMissed(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	svc := newTestCallService(store, &fakeProvider{}, nil)

	if err := svc.HandleProviderCallback(context.Background(), seeded.ID, CallbackInput{Status: telephony.StatusBusy}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := store.calls[seeded.ID]
	if after.Outcome == nil || *after.Outcome != OutcomeBusy {
		t.Fatalf("expected busy outcome, got %v", after.Outcome)
	}
	if after.Direction != DirectionMissed {
		t.Fatalf("expected missed direction, got %q", after.Direction)
	}
	if after.EndTime == nil {
		t.Fatal("expected end time on busy")
	}
}

func TestCallbackNoAnswerAndFailedMapToNoAnswer(t *testing.T) {
	for _, status := range []string{telephony.StatusNoAnswer, telephony.StatusFailed} {
		store := newFakeCallStore()
		seeded := seedCall(store)
		svc := newTestCallService(store, &fakeProvider{}, nil)

		if err := svc.HandleProviderCallback(context.Background(), seeded.ID, CallbackInput{Status: status}); err != nil {
			t.Fatalf("status %q: unexpected error: %v", status, err)
		}

		after := store.calls[seeded.ID]
		if after.Outcome == nil || *after.Outcome != OutcomeNoAnswer {
			t.Fatalf("status %q: expected no_answer, got %v", status, after.Outcome)
		}
		if after.Direction != DirectionMissed {
			t.Fatalf("status %q: expected missed direction, got %q", status, after.Direction)
		}
	}
}

func TestCallbackUnknownStatusIgnored(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	svc := newTestCallService(store, &fakeProvider{}, nil)

	if err := svc.HandleProviderCallback(context.Background(), seeded.ID, CallbackInput{Status: "some-future-status"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := store.calls[seeded.ID]
	if after.Outcome != nil || after.EndTime != nil {
		t.Fatalf("unknown status must not change state, got %+v", after)
	}
}

func TestCallbackUnknownCallNotFound(t *testing.T) {
	svc := newTestCallService(newFakeCallStore(), &fakeProvider{}, nil)

	err := svc.HandleProviderCallback(context.Background(), uuid.New(), CallbackInput{Status: telephony.StatusCompleted})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCallbackRecordingStoredAsSeparateEntity(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	svc := newTestCallService(store, &fakeProvider{}, nil)

	duration := 42
	if err := svc.HandleProviderCallback(context.Background(), seeded.ID, CallbackInput{
		Status:       telephony.StatusCompleted,
		Duration:     &duration,
		RecordingURL: "https://api.example.com/recordings/RE001.mp3",
		RecordingSID: "RE001",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.recordings) != 1 {
		t.Fatalf("expected 1 recording row, got %d", len(store.recordings))
	}
	if store.recordings[0].CallID != seeded.ID {
		t.Fatal("expected recording linked to call")
	}
	if store.calls[seeded.ID].RecordingURL != nil {
		t.Fatal("callback recording must not overwrite the call row")
	}
}

func TestCallbackCompletionWithoutRecordingSchedulesReconcile(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	nudger := &fakeNudger{}
	svc := newTestCallService(store, &fakeProvider{}, nudger)

	if err := svc.HandleProviderCallback(context.Background(), seeded.ID, CallbackInput{Status: telephony.StatusCompleted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(nudger.scheduled) != 1 || nudger.scheduled[0] != seeded.ID {
		t.Fatalf("expected one reconcile nudge for %s, got %v", seeded.ID, nudger.scheduled)
	}
}

func TestUpdateSalesStatusLeavesOutcomeAlone(t *testing.T) {
	store := newFakeCallStore()
	seeded := seedCall(store)
	outcome := OutcomeAnswered
	seeded.Outcome = &outcome
	store.calls[seeded.ID] = seeded
	svc := newTestCallService(store, &fakeProvider{}, nil)

	call, err := svc.UpdateSalesStatus(context.Background(), seeded.ID, SalesInterested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.SalesStatus != SalesInterested {
		t.Fatalf("expected interested, got %q", call.SalesStatus)
	}
	if call.Outcome == nil || *call.Outcome != OutcomeAnswered {
		t.Fatal("sales status update must not touch the outcome axis")
	}

	if _, err := svc.UpdateSalesStatus(context.Background(), seeded.ID, "maybe"); err == nil {
		t.Fatal("expected error for unknown sales status")
	}
}
