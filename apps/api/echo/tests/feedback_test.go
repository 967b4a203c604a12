package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mergington/roster/apps/api/echo"
	"github.com/mergington/roster/core/activity"
)

func Test_feedbackApi(t *testing.T) {
	app := setup(t)

	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	activity.NowFunc = func() time.Time { return now }
	defer func() { activity.NowFunc = time.Now }()

	tests := []httpTest{
		{
			name: "empty dashboard", method: http.MethodGet, path: "/dashboard/nobody@x.edu",
			wantCode: http.StatusOK,
			wantData: []byte(`{"email": "nobody@x.edu", "signups": [], "feedback": [], "managed_activities": []}`),
		},
		{
			name: "invalid feedback type", method: http.MethodPost, path: "/activities/Chess%20Club/feedback",
			body:     []byte(`{"email": "michael@mergington.edu", "feedback_type": "praise", "message": "Great club"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Detail: map[string]string{"feedback_type": "feedback_type must be one of [complaint feedback]"}}),
		},
		{
			name: "blank message", method: http.MethodPost, path: "/activities/Chess%20Club/feedback",
			body:     []byte(`{"email": "michael@mergington.edu", "feedback_type": "feedback", "message": "  "}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Detail: map[string]string{"message": "message is required"}}),
		},
	}
	runHTTPTests(t, app, tests)

	// submit
	body := []byte(`{"email": "Michael@Mergington.edu", "feedback_type": "complaint", "message": "Not enough boards"}`)
	req, rec := newRequest(http.MethodPost, "/activities/Chess%20Club/feedback", body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FeedbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Feedback submitted successfully", resp.Message)
	assert.NotEmpty(t, resp.Feedback.ID)
	assert.Equal(t, activity.Feedback{
		ID:           resp.Feedback.ID,
		Email:        "michael@mergington.edu",
		ActivityName: "Chess Club",
		Type:         activity.FeedbackComplaint,
		Message:      "Not enough boards",
		SubmittedAt:  now,
		Status:       activity.StatusOpen,
	}, resp.Feedback)

	// dashboard
	req, rec = newRequest(http.MethodGet, "/dashboard/michael@mergington.edu")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash activity.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, "michael@mergington.edu", dash.Email)
	assert.Equal(t, []string{"Chess Club"}, dash.Signups)
	assert.Equal(t, []activity.Feedback{resp.Feedback}, dash.Feedback)
	assert.Empty(t, dash.ManagedActivities)
}
