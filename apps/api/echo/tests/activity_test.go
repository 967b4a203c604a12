package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/activity"
)

func Test_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/static/index.html", rec.Header().Get("Location"))
}

func Test_activityApi_query(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/activities")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var acts map[string]activity.Activity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acts))
	assert.Len(t, acts, 9)
	require.Contains(t, acts, "Chess Club")
	assert.Equal(t, "Fridays, 3:30 PM - 5:00 PM", acts["Chess Club"].Schedule)
	assert.Equal(t, 12, acts["Chess Club"].MaxParticipants)
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, acts["Chess Club"].Participants)
}

func Test_activityApi_signupAndUnregister(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name: "signup", method: http.MethodPost, path: "/activities/Chess%20Club/signup?email=new@x.edu",
			wantCode: http.StatusOK, wantData: message(t, "Signed up new@x.edu for Chess Club"),
		},
		{
			name: "signup again", method: http.MethodPost, path: "/activities/Chess%20Club/signup?email=new@x.edu",
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: "Student is already signed up"}),
		},
		{
			name: "signup (unknown activity)", method: http.MethodPost, path: "/activities/Robotics/signup?email=new@x.edu",
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Detail: "Activity not found"}),
		},
		{
			name: "signup (invalid email)", method: http.MethodPost, path: "/activities/Chess%20Club/signup?email=nope",
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: map[string]string{"email": "email must be a valid email address"}}),
		},
		{
			name: "signup (missing email)", method: http.MethodPost, path: "/activities/Chess%20Club/signup",
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: map[string]string{"email": "email is required"}}),
		},
		{
			name: "unregister", method: http.MethodDelete, path: "/activities/Chess%20Club/unregister?email=michael@mergington.edu",
			wantCode: http.StatusOK, wantData: message(t, "Unregistered michael@mergington.edu from Chess Club"),
		},
		{
			name: "unregister again", method: http.MethodDelete, path: "/activities/Chess%20Club/unregister?email=michael@mergington.edu",
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: "Student is not signed up for this activity"}),
		},
		{
			name: "unregister (unknown activity)", method: http.MethodDelete, path: "/activities/Robotics/unregister?email=michael@mergington.edu",
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Detail: "Activity not found"}),
		},
	}
	runHTTPTests(t, app, tests)

	assert.Equal(t, []string{"daniel@mergington.edu", "new@x.edu"}, app.getActivity(t, "Chess Club").Participants)
}

func Test_activityApi_protectedSignups(t *testing.T) {
	app := setup(t, func(conf *core.Config) { conf.Auth.ProtectSignups = true })
	token := app.login(t)

	tests := []httpTest{
		{
			name: "signup (no token)", method: http.MethodPost, path: "/activities/Chess%20Club/signup?email=new@x.edu",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errUnauthorized),
		},
		{
			name: "signup", method: http.MethodPost, path: "/activities/Chess%20Club/signup?email=new@x.edu", token: token,
			wantCode: http.StatusOK, wantData: message(t, "Signed up new@x.edu for Chess Club"),
		},
		{
			name: "unregister (no token)", method: http.MethodDelete, path: "/activities/Chess%20Club/unregister?email=new@x.edu",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errUnauthorized),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_activityApi_manage(t *testing.T) {
	app := setup(t)
	token := app.login(t)

	robotics := activity.NewActivity{
		Description:     "Build and program robots",
		Schedule:        "Saturdays, 10:00 AM - 12:00 PM",
		MaxParticipants: 8,
	}
	update := activity.UpdateActivity{
		Description:     "Strategy and tactics",
		Schedule:        "Mondays, 3:30 PM - 5:00 PM",
		MaxParticipants: 16,
	}

	tests := []httpTest{
		{
			name: "create (no token)", method: http.MethodPost, path: "/activities?name=Robotics", body: marshallObj(t, robotics),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errUnauthorized),
		},
		{
			name: "create (bad token)", method: http.MethodPost, path: "/activities?name=Robotics", body: marshallObj(t, robotics), token: "nope",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errUnauthorized),
		},
		{
			name: "create", method: http.MethodPost, path: "/activities?name=Robotics", body: marshallObj(t, robotics), token: token,
			wantCode: http.StatusOK, wantData: message(t, "Activity 'Robotics' created successfully"),
		},
		{
			name: "create (exists)", method: http.MethodPost, path: "/activities?name=Robotics", body: marshallObj(t, robotics), token: token,
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: "Activity already exists"}),
		},
		{
			name: "create (invalid)", method: http.MethodPost, path: "/activities?name=Robotics2", body: []byte(`{"description": "x", "schedule": "x", "max_participants": 0}`), token: token,
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: map[string]string{"max_participants": "max_participants is required"}}),
		},
		{
			name: "update", method: http.MethodPut, path: "/activities/Chess%20Club", body: marshallObj(t, update), token: token,
			wantCode: http.StatusOK, wantData: message(t, "Activity 'Chess Club' updated successfully"),
		},
		{
			name: "update (unknown)", method: http.MethodPut, path: "/activities/Knitting", body: marshallObj(t, update), token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Detail: "Activity not found"}),
		},
		{
			name: "assign admin", method: http.MethodPost, path: "/activities/Chess%20Club/assign-admin?email=teacher@mergington.edu", token: token,
			wantCode: http.StatusOK, wantData: message(t, "Assigned teacher@mergington.edu as admin for Chess Club"),
		},
		{
			name: "assign admin again", method: http.MethodPost, path: "/activities/Chess%20Club/assign-admin?email=teacher@mergington.edu", token: token,
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: "User is already an admin"}),
		},
		{
			name: "remove admin", method: http.MethodDelete, path: "/activities/Chess%20Club/remove-admin?email=teacher@mergington.edu", token: token,
			wantCode: http.StatusOK, wantData: message(t, "Removed teacher@mergington.edu as admin for Chess Club"),
		},
		{
			name: "remove admin again", method: http.MethodDelete, path: "/activities/Chess%20Club/remove-admin?email=teacher@mergington.edu", token: token,
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Detail: "User is not an admin"}),
		},
		{
			name: "delete (no token)", method: http.MethodDelete, path: "/activities/Robotics",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errUnauthorized),
		},
		{
			name: "delete", method: http.MethodDelete, path: "/activities/Robotics", token: token,
			wantCode: http.StatusOK, wantData: message(t, "Activity 'Robotics' deleted successfully"),
		},
		{
			name: "delete (unknown)", method: http.MethodDelete, path: "/activities/Robotics", token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Detail: "Activity not found"}),
		},
	}
	runHTTPTests(t, app, tests)

	chess := app.getActivity(t, "Chess Club")
	assert.Equal(t, "Strategy and tactics", chess.Description)
	assert.Equal(t, 16, chess.MaxParticipants)
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, chess.Participants)
	assert.Empty(t, chess.Admins)
}

func Test_activityApi_escapedNames(t *testing.T) {
	app := setup(t)
	for _, name := range []string{"A%20B", "Arts/Crafts"} {
		_, err := app.actSvc.Create(context.Background(), activity.NewActivity{
			Name: name, Description: "d", Schedule: "s", MaxParticipants: 5,
		})
		require.NoError(t, err)
	}

	tests := []httpTest{
		{
			name: "percent sign in name", method: http.MethodPost, path: "/activities/A%2520B/signup?email=new@x.edu",
			wantCode: http.StatusOK, wantData: message(t, "Signed up new@x.edu for A%20B"),
		},
		{
			name: "escaped slash in name", method: http.MethodPost, path: "/activities/Arts%2FCrafts/signup?email=new@x.edu",
			wantCode: http.StatusOK, wantData: message(t, "Signed up new@x.edu for Arts/Crafts"),
		},
		{
			name: "decoded only once", method: http.MethodPost, path: "/activities/A%2520B/signup?email=other@x.edu",
			wantCode: http.StatusOK,
		},
		{
			name: "escaped email in dashboard", method: http.MethodGet, path: "/dashboard/new%40x.edu",
			wantCode: http.StatusOK,
			wantData: []byte(`{"email": "new@x.edu", "signups": ["A%20B", "Arts/Crafts"], "feedback": [], "managed_activities": []}`),
		},
	}
	runHTTPTests(t, app, tests)

	assert.Equal(t, []string{"new@x.edu", "other@x.edu"}, app.getActivity(t, "A%20B").Participants)
	assert.Equal(t, []string{"new@x.edu"}, app.getActivity(t, "Arts/Crafts").Participants)
	_, err := app.actSvc.Get(context.Background(), "A B")
	assert.Equal(t, activity.ErrNotFound, errors.Cause(err))
}
