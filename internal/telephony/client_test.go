package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetTelephonyBaseURL() string        { return c.baseURL }
func (c testConfig) GetTelephonyAccountSID() string     { return "AC123" }
func (c testConfig) GetTelephonyAuthToken() string      { return "secret" }
func (c testConfig) GetTelephonyOriginNumber() string   { return "+15550001111" }
func (c testConfig) GetTelephonyTimeout() time.Duration { return 2 * time.Second }
func (c testConfig) GetDefaultCountryCode() string      { return "+91" }
func (c testConfig) GetCallbackBaseURL() string         { return "http://localhost" }
func (c testConfig) IsTelephonyEnabled() bool           { return true }

func TestOutcomeForStatus(t *testing.T) {
	cases := []struct {
		status  string
		outcome string
		final   bool
	}{
		{StatusCompleted, "answered", true},
		{StatusBusy, "busy", true},
		{StatusNoAnswer, "no_answer", true},
		{StatusFailed, "no_answer", true},
		{StatusCanceled, "no_answer", true},
		{StatusRinging, "", false},
		{StatusInProgress, "", false},
		{"something-new", "", false},
	}

	for _, tc := range cases {
		outcome, ok := OutcomeForStatus(tc.status)
		if ok != tc.final {
			t.Fatalf("status %q: expected final=%v, got %v", tc.status, tc.final, ok)
		}
		if outcome != tc.outcome {
			t.Fatalf("status %q: expected outcome %q, got %q", tc.status, tc.outcome, outcome)
		}
	}
}

func TestPlaceCallSendsFormAndParsesResponse(t *testing.T) {
	var gotTo, gotFrom, gotCallback string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "secret" {
			t.Fatal("expected basic auth with account credentials")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotCallback = r.PostFormValue("StatusCallback")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA001","status":"queued"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig{baseURL: server.URL}, nil)

	info, err := client.PlaceCall(context.Background(), CallRequest{
		To:          "+919876543210",
		From:        "+15550001111",
		CallbackURL: "http://localhost/calls/webhook/abc",
		Record:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.SID != "CA001" || info.Status != StatusQueued {
		t.Fatalf("unexpected call info: %+v", info)
	}
	if gotTo != "+919876543210" || gotFrom != "+15550001111" {
		t.Fatalf("unexpected To/From: %q/%q", gotTo, gotFrom)
	}
	if gotCallback != "http://localhost/calls/webhook/abc" {
		t.Fatalf("unexpected callback URL: %q", gotCallback)
	}
}

func TestPlaceCallRestrictedDestination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21215,"message":"Account not authorized to call this number"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig{baseURL: server.URL}, nil)

	_, err := client.PlaceCall(context.Background(), CallRequest{To: "+8500000000", From: "+15550001111"})
	if err == nil {
		t.Fatal("expected error for restricted destination")
	}
	if !errors.Is(err, ErrRestrictedDestination) {
		t.Fatalf("expected ErrRestrictedDestination, got %v", err)
	}
}

func TestPlaceCallBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig{baseURL: server.URL}, nil)

	_, err := client.PlaceCall(context.Background(), CallRequest{To: "+919876543210", From: "+15550001111"})
	if !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

func TestFetchCallParsesDurationAndTimes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"sid":"CA001","status":"completed","duration":"42",
			"start_time":"Mon, 02 Jan 2006 15:04:05 +0000",
			"end_time":"Mon, 02 Jan 2006 15:04:47 +0000"
		}`))
	}))
	defer server.Close()

	client := NewClient(testConfig{baseURL: server.URL}, nil)

	info, err := client.FetchCall(context.Background(), "CA001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %q", info.Status)
	}
	if info.Duration == nil || *info.Duration != 42 {
		t.Fatalf("expected duration 42, got %v", info.Duration)
	}
	if info.StartTime == nil || info.EndTime == nil {
		t.Fatal("expected parsed start and end times")
	}
}

func TestListRecordingsBuildsMediaURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recordings":[
			{"sid":"RE001","duration":"42","uri":"/2010-04-01/Accounts/AC123/Recordings/RE001.json"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig{baseURL: server.URL}, nil)

	recordings, err := client.ListRecordings(context.Background(), "CA001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recordings) != 1 {
		t.Fatalf("expected 1 recording, got %d", len(recordings))
	}
	want := server.URL + "/2010-04-01/Accounts/AC123/Recordings/RE001.mp3"
	if recordings[0].URL != want {
		t.Fatalf("expected media URL %q, got %q", want, recordings[0].URL)
	}
}
