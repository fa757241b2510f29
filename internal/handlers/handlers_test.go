package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/browser"
	"github.com/ternarybob/mailticket/internal/services/extractor"
	"github.com/ternarybob/mailticket/internal/services/fields"
	"github.com/ternarybob/mailticket/internal/services/jira"
	"github.com/ternarybob/mailticket/internal/services/status"
	"github.com/ternarybob/mailticket/internal/services/ticket"
	"github.com/ternarybob/mailticket/internal/storage/badger"
)

const gmailURL = "https://mail.google.com/mail/u/0/#inbox/FMfcgzQXJ"

const gmailPage = `<html><body><div role="main">
  <div class="ha"><h2 class="hP">Server outage on prod</h2></div>
  <span class="gD" email="alice@example.com" name="Alice Smith">Alice Smith</span>
  <span class="g3" title="Mon, Mar 3, 2025, 9:14 AM">Mar 3, 2025, 9:14 AM</span>
  <span class="g2" email="ops@example.com">Ops</span>
  <div class="a3s aiL"><div>The API is returning 502s.</div></div>
</div></body></html>`

// fakeJira serves the handful of tracker endpoints the handlers reach
type fakeJira struct {
	server     *httptest.Server
	issues     atomic.Int32
	myselfCode atomic.Int32

	mu          sync.Mutex
	lastPayload map[string]any
}

func (f *fakeJira) payload() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPayload
}

func newFakeJira(t *testing.T) *fakeJira {
	t.Helper()
	f := &fakeJira{}
	f.myselfCode.Store(http.StatusOK)
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/myself", func(w http.ResponseWriter, r *http.Request) {
		if code := int(f.myselfCode.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_, _ = w.Write([]byte(`{"accountId":"a1","displayName":"Ann Admin"}`))
	})
	mux.HandleFunc("/rest/api/3/field", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"summary","name":"Summary","custom":false,"schema":{"type":"string"}},
			{"id":"customfield_10010","name":"Severity","custom":true,"schema":{"type":"option"}},
			{"id":"customfield_10020","name":"Due date","custom":true,"schema":{"type":"string"}}
		]`))
	})
	mux.HandleFunc("/rest/api/3/issue/createmeta", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"projects":[{"key":"OPS","issuetypes":[{"name":"Task","fields":{
			"customfield_10010":{"required":true,"allowedValues":[{"id":"1","value":"High"},{"id":"2","value":"Low"}]}
		}}]}]}`))
	})
	mux.HandleFunc("/rest/api/2/issue/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastPayload = body.Fields
		f.mu.Unlock()
		if body.Fields["customfield_10010"] == "9" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":{"customfield_10010":"Option id '9' is not valid"}}`))
			return
		}
		n := f.issues.Add(1)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":"1000%d","key":"OPS-%d"}`, n, n)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

type fixture struct {
	jira       *fakeJira
	storage    interfaces.StorageManager
	status     *status.Service
	extract    *ExtractHandler
	tickets    *TicketHandler
	fields     *FieldHandler
	connection *ConnectionHandler
	settings   *SettingsHandler
}

type fakeCapturer struct {
	page      *browser.Page
	err       error
	onCapture func()
}

func (f *fakeCapturer) Capture(ctx context.Context, match string) (*browser.Page, error) {
	if f.onCapture != nil {
		f.onCapture()
	}
	return f.page, f.err
}

func newFixture(t *testing.T, capturer PageCapturer) *fixture {
	t.Helper()
	logger := arbor.NewLogger()

	fj := newFakeJira(t)
	client := jira.NewClient(fj.server.URL, "ann@example.com", "token", jira.WithRateLimit(0))

	sm, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })

	statusService := status.NewService(logger)
	fieldService := fields.NewService(client, sm.FieldStorage(), sm.FieldCacheStorage(), "ann@example.com", "OPS", time.Hour, logger)
	ticketService := ticket.NewService(client, sm.FieldStorage(), sm.KeyValueStorage(), ticket.Settings{
		DefaultProject:      "OPS",
		DescriptionTemplate: common.DefaultDescriptionTemplate,
	}, logger)

	return &fixture{
		jira:       fj,
		storage:    sm,
		status:     statusService,
		extract:    NewExtractHandler(extractor.NewService(logger), ticketService, capturer, statusService, logger),
		tickets:    NewTicketHandler(ticketService, logger),
		fields:     NewFieldHandler(fieldService, logger),
		connection: NewConnectionHandler(client, logger),
		settings:   NewSettingsHandler(sm.KeyValueStorage(), logger),
	}
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, target, &buf)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestExtractPage_ReturnsEmailAndDraft(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.extract.ExtractPageHandler(rec, jsonRequest(t, "POST", "/api/extract", ExtractRequest{URL: gmailURL, HTML: gmailPage}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ExtractResponse](t, rec)
	assert.True(t, resp.Email.Success)
	assert.Equal(t, "Server outage on prod", resp.Email.Subject)
	require.NotNil(t, resp.Draft)
	assert.Equal(t, "OPS", resp.Draft.ProjectKey)
	assert.Equal(t, "Server outage on prod", resp.Draft.Summary)
	assert.True(t, strings.HasPrefix(resp.Draft.Description, "From: Alice Smith <alice@example.com>\nTo: ops@example.com\n"))
	assert.Equal(t, status.StateIdle, f.status.GetState())
}

func TestExtractPage_Failure(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.extract.ExtractPageHandler(rec, jsonRequest(t, "POST", "/api/extract", ExtractRequest{URL: "https://example.com", HTML: gmailPage}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ExtractResponse](t, rec)
	assert.False(t, resp.Email.Success)
	assert.Equal(t, extractor.ErrMsgUnsupportedClient, resp.Email.Error)
	assert.Nil(t, resp.Draft)
}

func TestExtractPage_Busy(t *testing.T) {
	f := newFixture(t, nil)
	require.True(t, f.status.Begin(status.OpExtract))

	rec := httptest.NewRecorder()
	f.extract.ExtractPageHandler(rec, jsonRequest(t, "POST", "/api/extract", ExtractRequest{URL: gmailURL, HTML: gmailPage}))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExtractPage_MethodAndBody(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.extract.ExtractPageHandler(rec, httptest.NewRequest("GET", "/api/extract", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	f.extract.ExtractPageHandler(rec, httptest.NewRequest("POST", "/api/extract", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractMessage(t *testing.T) {
	f := newFixture(t, nil)
	raw := "From: Ann <ann@example.com>\r\nTo: ops@example.com\r\nSubject: Disk full\r\nDate: Mon, 3 Mar 2025 09:14:00 +0000\r\nContent-Type: text/plain\r\n\r\nThe disk is full.\r\n"

	rec := httptest.NewRecorder()
	f.extract.ExtractMessageHandler(rec, httptest.NewRequest("POST", "/api/extract/message", strings.NewReader(raw)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ExtractResponse](t, rec)
	assert.Equal(t, "Disk full", resp.Email.Subject)
	assert.Equal(t, models.EmailClientMessage, resp.Email.Client)
}

func TestExtractBrowser(t *testing.T) {
	f := newFixture(t, nil)
	rec := httptest.NewRecorder()
	f.extract.ExtractBrowserHandler(rec, httptest.NewRequest("POST", "/api/extract/browser", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f = newFixture(t, &fakeCapturer{page: &browser.Page{URL: gmailURL, HTML: gmailPage}})
	rec = httptest.NewRecorder()
	f.extract.ExtractBrowserHandler(rec, httptest.NewRequest("POST", "/api/extract/browser?match=mail.google.com", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Server outage on prod", decode[ExtractResponse](t, rec).Email.Subject)
}

func TestExtractBrowser_GuardSpansCaptureAndExtraction(t *testing.T) {
	capturer := &fakeCapturer{page: &browser.Page{URL: gmailURL, HTML: gmailPage}}
	f := newFixture(t, capturer)

	var duringCapture status.AppState
	capturer.onCapture = func() { duringCapture = f.status.GetState() }

	rec := httptest.NewRecorder()
	f.extract.ExtractBrowserHandler(rec, httptest.NewRequest("POST", "/api/extract/browser", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, status.StateBusy, duringCapture)
	assert.Equal(t, status.StateIdle, f.status.GetState())
}

func TestExtractBrowser_ConcurrentRequestRejected(t *testing.T) {
	capturer := &fakeCapturer{page: &browser.Page{URL: gmailURL, HTML: gmailPage}}
	f := newFixture(t, capturer)

	started := make(chan struct{})
	release := make(chan struct{})
	capturer.onCapture = func() {
		close(started)
		<-release
	}

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		f.extract.ExtractBrowserHandler(rec, httptest.NewRequest("POST", "/api/extract/browser", nil))
		done <- rec.Code
	}()
	<-started

	rec := httptest.NewRecorder()
	f.extract.ExtractPageHandler(rec, jsonRequest(t, "POST", "/api/extract", ExtractRequest{URL: gmailURL, HTML: gmailPage}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, status.StateIdle, f.status.GetState())
}

func TestExtractBrowser_CaptureFailure(t *testing.T) {
	f := newFixture(t, &fakeCapturer{err: errors.New("no open Gmail or Outlook tab found (2 tabs inspected)")})

	rec := httptest.NewRecorder()
	f.extract.ExtractBrowserHandler(rec, httptest.NewRequest("POST", "/api/extract/browser", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "no open Gmail or Outlook tab")
	assert.Equal(t, status.StateIdle, f.status.GetState())
}

func TestCreateTicket(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.storage.FieldStorage().Upsert(ctx, &models.FieldDescriptor{
		ID:            "customfield_10010",
		Name:          "Severity",
		AllowedValues: []models.AllowedValue{{ID: "1", Value: "High"}},
		Value:         "1",
	}))

	rec := httptest.NewRecorder()
	f.tickets.CreateHandler(rec, jsonRequest(t, "POST", "/api/tickets", models.TicketRequest{
		ProjectKey: "HELP",
		Summary:    "Server outage on prod",
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	issue := decode[models.CreatedIssue](t, rec)
	assert.Equal(t, "OPS-1", issue.Key)
	assert.Equal(t, f.jira.server.URL+"/browse/OPS-1", issue.URL)
	assert.Equal(t, "1", f.jira.payload()["customfield_10010"])

	last, err := f.storage.KeyValueStorage().Get(ctx, ticket.LastProjectKey)
	require.NoError(t, err)
	assert.Equal(t, "HELP", last)
}

func TestCreateTicket_Validation(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.tickets.CreateHandler(rec, jsonRequest(t, "POST", "/api/tickets", models.TicketRequest{Summary: "x"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, ticket.ValidationMessage, resp["error"])
	assert.Equal(t, []any{"projectKey"}, resp["missing"])
	assert.Zero(t, f.jira.issues.Load())
}

func TestCreateTicket_TrackerError(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.tickets.CreateHandler(rec, jsonRequest(t, "POST", "/api/tickets", models.TicketRequest{
		ProjectKey:   "OPS",
		Summary:      "x",
		CustomFields: map[string]string{"customfield_10010": "9"},
	}))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "Invalid custom field value. Please check the format of your custom fields.", resp["error"])
	assert.Equal(t, float64(400), resp["upstreamStatus"])
}

func TestDraft(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.storage.KeyValueStorage().Set(context.Background(), ticket.LastProjectKey, "HELP", ""))

	rec := httptest.NewRecorder()
	f.tickets.DraftHandler(rec, jsonRequest(t, "POST", "/api/tickets/draft", models.ExtractedEmail{Subject: "Hi", Body: "Body"}))

	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[models.TicketRequest](t, rec)
	assert.Equal(t, "HELP", draft.ProjectKey)
	assert.Equal(t, "Task", draft.IssueType)
	assert.Contains(t, draft.Description, "----- Email Content -----\n\nBody")
}

func TestFields_DiscoverAddList(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.fields.DiscoverHandler(rec, httptest.NewRequest("GET", "/api/fields/discover?q=custom", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[fields.DiscoveryResult](t, rec)
	require.Len(t, result.Fields, 2)
	assert.False(t, result.FromCache)

	rec = httptest.NewRecorder()
	f.fields.DiscoverHandler(rec, httptest.NewRequest("GET", "/api/fields/discover", nil))
	assert.True(t, decode[fields.DiscoveryResult](t, rec).FromCache)

	rec = httptest.NewRecorder()
	f.fields.AddDiscoveredHandler(rec, httptest.NewRequest("POST", "/api/fields/discover/customfield_10010", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	f.fields.AddDiscoveredHandler(rec, httptest.NewRequest("POST", "/api/fields/discover/customfield_10010", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["added"])

	rec = httptest.NewRecorder()
	f.fields.AddDiscoveredHandler(rec, httptest.NewRequest("POST", "/api/fields/discover/customfield_10020", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	f.fields.ListHandler(rec, httptest.NewRequest("GET", "/api/fields", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]fields.ConfiguredField](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, fields.WidgetSelectSingle, list[0].Widget.Kind)
	require.Len(t, list[0].Widget.Options, 2)
	assert.Equal(t, "1", list[0].Widget.Options[0].Value)
	assert.Equal(t, "High", list[0].Widget.Options[0].Label)
	assert.Equal(t, fields.WidgetDate, list[1].Widget.Kind)

	rec = httptest.NewRecorder()
	f.fields.AddDiscoveredHandler(rec, httptest.NewRequest("POST", "/api/fields/discover/customfield_99999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFields_SaveGetDelete(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.fields.SaveHandler(rec, jsonRequest(t, "POST", "/api/fields", models.FieldDescriptor{ID: "customfield_1", Name: "Points", SchemaType: "number"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	f.fields.SaveHandler(rec, jsonRequest(t, "PUT", "/api/fields/customfield_1", models.FieldDescriptor{Name: "Story points", SchemaType: "number", Value: "3"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	f.fields.GetHandler(rec, httptest.NewRequest("GET", "/api/fields/customfield_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[fields.ConfiguredField](t, rec)
	assert.Equal(t, "Story points", got.Name)
	assert.Equal(t, "3", got.Value)
	assert.Equal(t, fields.WidgetNumber, got.Widget.Kind)

	rec = httptest.NewRecorder()
	f.fields.DeleteHandler(rec, httptest.NewRequest("DELETE", "/api/fields/customfield_1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.fields.GetHandler(rec, httptest.NewRequest("GET", "/api/fields/customfield_1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	f.fields.SaveHandler(rec, jsonRequest(t, "POST", "/api/fields", models.FieldDescriptor{Name: "no id"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectionTest(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.connection.TestHandler(rec, httptest.NewRequest("POST", "/api/connection/test", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Ann Admin", resp["displayName"])

	f.jira.myselfCode.Store(http.StatusUnauthorized)
	rec = httptest.NewRecorder()
	f.connection.TestHandler(rec, httptest.NewRequest("POST", "/api/connection/test", nil))
	resp = decode[map[string]any](t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Authentication failed. Check your email and API token.", resp["error"])
}

func TestSettings(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.storage.KeyValueStorage().Set(context.Background(), ticket.LastProjectKey, "HELP", "Project of the last created ticket"))

	rec := httptest.NewRecorder()
	f.settings.ListHandler(rec, httptest.NewRequest("GET", "/api/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	pairs := decode[[]interfaces.KeyValuePair](t, rec)
	require.Len(t, pairs, 1)
	assert.Equal(t, "HELP", pairs[0].Value)

	rec = httptest.NewRecorder()
	f.settings.DeleteHandler(rec, httptest.NewRequest("DELETE", "/api/settings/projectKey", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.settings.DeleteHandler(rec, httptest.NewRequest("DELETE", "/api/settings/projectKey", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/fields/customfield_1/extra", nil)
	assert.Equal(t, "customfield_1", PathID(r, "/api/fields/"))
	assert.Equal(t, "", PathID(httptest.NewRequest("GET", "/api/fields/", nil), "/api/fields/"))
}
