package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/user"
	emailsvc "github.com/aspirasi/relawan/services/email"
	"github.com/aspirasi/relawan/testutil"
)

func Test_complaintApi_workflow(t *testing.T) {
	app := setup(t)

	author := testutil.Applicant(10)
	author.LegislatorID = null.Int64From(7)
	siti := app.getToken(t, author)
	budi := app.getToken(t, testutil.Applicant(11))
	admin := app.getToken(t, testutil.SuperAdmin(1))
	aleg7 := app.getToken(t, testutil.LegislatorAdmin(2, 7))
	aleg8 := app.getToken(t, testutil.LegislatorAdmin(3, 8))
	volunteer := app.getToken(t, user.User{ID: 12, Name: "Relawan", Role: user.RoleVolunteer})

	rec := app.do(t, http.MethodPost, "/v1/complaints", siti, []byte(`{"title": "Jalan rusak", "category": "Teknis", "description": "Berlubang di RT 03"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var opened complaint.Complaint
	unmarshal(t, rec, &opened)
	assert.Equal(t, "TKT-202503-0001", opened.TicketNumber)
	assert.Equal(t, complaint.StatusNew, opened.Status)
	assert.Equal(t, complaint.PriorityMedium, opened.Priority)
	assert.Equal(t, null.Int64From(7), opened.LegislatorID)

	app.dispatcher.Wait()
	sent := emailsvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "teknis@relawan.test", sent[0].To[0].Address)
	assert.Equal(t, "[#TKT-202503-0001] Jalan rusak", sent[0].Subject)

	tests := []httpTest{
		{
			name: "invalid category", method: http.MethodPost, path: "/v1/complaints", token: siti,
			body:     []byte(`{"title": "x", "category": "Politik", "description": "y"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"category": "invalid complaint category"}),
		},
		{name: "mine", method: http.MethodGet, path: "/v1/complaints", token: siti, wantCode: http.StatusOK, wantData: marchallList(t, opened)},
		{name: "not mine", method: http.MethodGet, path: "/v1/complaints/1", token: budi, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "in scope", method: http.MethodGet, path: "/v1/complaints/1", token: aleg7, wantCode: http.StatusOK, wantData: marchallObj(t, opened)},
		{name: "out of scope", method: http.MethodGet, path: "/v1/complaints/1", token: aleg8, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "scoped listing", method: http.MethodGet, path: "/v1/admin/complaints", token: aleg7, wantCode: http.StatusOK, wantData: marchallList(t, opened)},
		{name: "scoped listing (other legislator)", method: http.MethodGet, path: "/v1/admin/complaints", token: aleg8, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{
			name: "filtered listing", method: http.MethodGet, path: "/v1/admin/complaints?category=Teknis&priority=Sedang&search=jalan", token: admin,
			wantCode: http.StatusOK, wantData: marchallList(t, opened),
		},
		{
			name: "listing requires admin", method: http.MethodGet, path: "/v1/admin/complaints", token: volunteer,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "feedback too early", method: http.MethodPost, path: "/v1/complaints/1/feedback", token: siti, body: []byte(`{"rating": 5}`),
			wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: "action not permitted in the current state"}),
		},
		{
			name: "out of scope status update", method: http.MethodPut, path: "/v1/admin/complaints/1/status", token: aleg8,
			body:     []byte(`{"status": "Diproses"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "skipping processing", method: http.MethodPut, path: "/v1/admin/complaints/1/status", token: aleg7,
			body:     []byte(`{"status": "Selesai"}`),
			wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: "action not permitted in the current state"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	steps := []struct {
		name     string
		method   string
		path     string
		body     string
		token    string
		wantCode int
	}{
		{"edit while new", http.MethodPut, "/v1/complaints/1", `{"priority": "Urgent"}`, siti, http.StatusOK},
		{"edit by someone else", http.MethodPut, "/v1/complaints/1", `{"priority": "Rendah"}`, budi, http.StatusNotFound},
		{"processing", http.MethodPut, "/v1/admin/complaints/1/status", `{"status": "Diproses", "admin_response": "Sedang dicek"}`, aleg7, http.StatusOK},
		{"edit once processing", http.MethodPut, "/v1/complaints/1", `{"title": "Jalan rusak parah"}`, siti, http.StatusUnprocessableEntity},
		{"done", http.MethodPut, "/v1/admin/complaints/1/status", `{"status": "Selesai"}`, admin, http.StatusOK},
		{"rating out of range", http.MethodPost, "/v1/complaints/1/feedback", `{"rating": 6}`, siti, http.StatusUnprocessableEntity},
		{"feedback by someone else", http.MethodPost, "/v1/complaints/1/feedback", `{"rating": 4}`, budi, http.StatusNotFound},
		{"feedback", http.MethodPost, "/v1/complaints/1/feedback", `{"rating": 4, "feedback": "Cepat"}`, siti, http.StatusOK},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			rec := app.do(t, st.method, st.path, st.token, []byte(st.body))
			assert.Equal(t, st.wantCode, rec.Code, rec.Body.String())
		})
	}

	rec = app.do(t, http.MethodGet, "/v1/complaints/1", siti)
	require.Equal(t, http.StatusOK, rec.Code)
	var final complaint.Complaint
	unmarshal(t, rec, &final)
	assert.Equal(t, complaint.StatusDone, final.Status)
	assert.Equal(t, complaint.PriorityUrgent, final.Priority)
	assert.Equal(t, "Jalan rusak", final.Title)
	assert.Equal(t, null.StringFrom("Sedang dicek"), final.AdminResponse)
	assert.True(t, final.AdminResponseAt.Valid)
	assert.Equal(t, null.IntFrom(4), final.Rating)
	assert.Equal(t, null.StringFrom("Cepat"), final.Feedback)
}
