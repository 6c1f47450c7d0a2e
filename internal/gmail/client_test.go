package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/vedhub/mailsync/internal/errors"
)

type staticTokens struct {
	err error
}

func (s staticTokens) TokenSource(ctx context.Context, userID string) oauth2.TokenSource {
	if s.err != nil {
		return failingSource{err: s.err}
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token-" + userID})
}

type failingSource struct{ err error }

func (f failingSource) Token() (*oauth2.Token, error) { return nil, f.err }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*APIClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewAPIClient(staticTokens{}, Options{
		RequestsPerSecond: 1000,
		Burst:             1000,
		Endpoint:          server.URL + "/",
		BreakerTimeout:    time.Minute,
	}, nil)
	return client, server
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": message},
	})
}

// ==================== List / Get ====================

func TestListMessageIDs_SendsQueryAndPageSize(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages", r.URL.Path)
		assert.Equal(t, "after:1700000000", r.URL.Query().Get("q"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "Bearer token-user-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"messages": []map[string]string{
				{"id": "m2", "threadId": "t2"},
				{"id": "m1", "threadId": "t1"},
			},
		})
	})

	refs, err := client.ListMessageIDs(context.Background(), "user-1", 50, "after:1700000000")

	require.NoError(t, err)
	assert.Equal(t, []MessageRef{{ID: "m2", ThreadID: "t2"}, {ID: "m1", ThreadID: "t1"}}, refs)
}

func TestListMessageIDs_OmitsEmptyQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["q"]
		assert.False(t, present)
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})

	refs, err := client.ListMessageIDs(context.Background(), "user-1", 25, "")

	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestListMessageIDs_UpstreamErrorCarriesProviderText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "Backend Error")
	})

	_, err := client.ListMessageIDs(context.Background(), "user-1", 50, "")

	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	upErr := apperrors.GetUpstreamError(err)
	require.NotNil(t, upErr)
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Contains(t, err.Error(), "Backend Error")
}

func TestGetMessage_ConvertsPayloadTree(t *testing.T) {
	text := base64.URLEncoding.EncodeToString([]byte("Hello"))
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/m1", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":           "m1",
			"threadId":     "t1",
			"labelIds":     []string{"UNREAD", "INBOX"},
			"snippet":      "Hello",
			"internalDate": "1700000000000",
			"payload": map[string]interface{}{
				"mimeType": "multipart/alternative",
				"headers":  []map[string]string{{"name": "Subject", "value": "Hi"}},
				"parts": []map[string]interface{}{
					{"mimeType": "text/plain", "body": map[string]string{"data": text}},
				},
			},
		})
	})

	msg, err := client.GetMessage(context.Background(), "user-1", "m1")

	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, []string{"UNREAD", "INBOX"}, msg.LabelIDs)
	assert.True(t, msg.InternalDate.Equal(time.Unix(1700000000, 0)))
	require.NotNil(t, msg.Payload)
	assert.Equal(t, "Subject", msg.Headers()[0].Name)
	require.Len(t, msg.Payload.Parts, 1)
	assert.Equal(t, text, msg.Payload.Parts[0].Data)
}

func TestGetMessage_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusNotFound, "Requested entity was not found.")
	})

	_, err := client.GetMessage(context.Background(), "user-1", "gone")

	assert.True(t, errors.Is(err, apperrors.ErrMessageNotFound))
	assert.True(t, apperrors.IsNotFound(err))
}

// ==================== Mutations ====================

func TestModifyLabels_SendsDelta(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/messages/m1/modify", r.URL.Path)
		var body struct {
			AddLabelIds    []string `json:"addLabelIds"`
			RemoveLabelIds []string `json:"removeLabelIds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"STARRED"}, body.AddLabelIds)
		assert.Empty(t, body.RemoveLabelIds)
		writeJSON(w, http.StatusOK, map[string]string{"id": "m1"})
	})

	err := client.ModifyLabels(context.Background(), "user-1", "m1", LabelDelta{Add: []string{"STARRED"}})

	assert.NoError(t, err)
}

func TestTrashAndDelete(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "m1"})
	})

	require.NoError(t, client.Trash(context.Background(), "user-1", "m1"))
	require.NoError(t, client.Delete(context.Background(), "user-1", "m2"))

	assert.Equal(t, []string{
		"POST /gmail/v1/users/me/messages/m1/trash",
		"DELETE /gmail/v1/users/me/messages/m2",
	}, paths)
}

func TestSend_ResolvesSenderAndEncodesEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gmail/v1/users/me/profile":
			writeJSON(w, http.StatusOK, map[string]string{"emailAddress": "student@campus.edu"})
		case "/gmail/v1/users/me/messages/send":
			var body struct {
				Raw string `json:"raw"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			raw, err := base64.URLEncoding.DecodeString(body.Raw)
			require.NoError(t, err)
			assert.Contains(t, string(raw), "student@campus.edu")
			assert.Contains(t, string(raw), "Subject: Lab report")
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"id": "s1", "threadId": "t9", "labelIds": []string{"SENT"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	res, err := client.Send(context.Background(), "user-1", Outgoing{
		To:      "prof@campus.edu",
		Subject: "Lab report",
		Text:    "Attached below.",
	})

	require.NoError(t, err)
	assert.Equal(t, &SendResult{ID: "s1", ThreadID: "t9", LabelIDs: []string{"SENT"}}, res)
}

func TestCreateDraft(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/drafts", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":      "d1",
			"message": map[string]interface{}{"id": "m5", "threadId": "t5", "labelIds": []string{"DRAFT"}},
		})
	})

	res, err := client.CreateDraft(context.Background(), "user-1", Outgoing{
		From: "student@campus.edu", To: "friend@campus.edu", Subject: "later",
	})

	require.NoError(t, err)
	assert.Equal(t, "d1", res.DraftID)
	assert.Equal(t, "m5", res.MessageID)
	assert.Equal(t, "t5", res.ThreadID)
}

func TestSend_InvalidRecipientIsInvalidInput(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})

	_, err := client.Send(context.Background(), "user-1", Outgoing{From: "a@campus.edu", To: "nobody"})

	assert.True(t, apperrors.IsInvalidInput(err))
}

// ==================== Auth and breaker ====================

func TestCall_PropagatesCredentialErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	}))
	defer server.Close()

	client := NewAPIClient(staticTokens{err: apperrors.ErrCredentialExpired}, Options{
		RequestsPerSecond: 1000,
		Endpoint:          server.URL + "/",
	}, nil)

	_, err := client.ListMessageIDs(context.Background(), "user-1", 50, "")

	assert.True(t, errors.Is(err, apperrors.ErrCredentialExpired))
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeAPIError(w, http.StatusNotFound, "not found")
	})

	for i := 0; i < 12; i++ {
		_, err := client.GetMessage(context.Background(), "user-1", "x")
		require.True(t, apperrors.IsNotFound(err))
	}

	assert.Equal(t, int32(12), atomic.LoadInt32(&hits))
}

func TestBreaker_ServerErrorsTrip(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeAPIError(w, http.StatusServiceUnavailable, "unavailable")
	})

	var lastErr error
	for i := 0; i < 10; i++ {
		_, lastErr = client.ListMessageIDs(context.Background(), "user-1", 50, "")
	}

	assert.Equal(t, int32(6), atomic.LoadInt32(&hits))
	assert.True(t, apperrors.IsUpstream(lastErr))
	assert.True(t, strings.Contains(lastErr.Error(), "circuit breaker is open"))
}
