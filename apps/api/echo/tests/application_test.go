package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspirasi/relawan/core/application"
	"github.com/aspirasi/relawan/testutil"
)

func Test_applicationApi_workflow(t *testing.T) {
	app := setup(t)
	testutil.CreateProgram(t, app.programs, "Sembako Maret", 2)

	siti := app.getToken(t, testutil.Applicant(10))
	budi := app.getToken(t, testutil.Applicant(11))
	admin := app.getToken(t, testutil.SuperAdmin(1))
	aleg := app.getToken(t, testutil.LegislatorAdmin(2, 7))

	submit := []byte(`{"program_id": 1, "justification": " keluarga prasejahtera ", "documents": ["ktp.jpg", " "]}`)

	// submission
	rec := app.do(t, http.MethodPost, "/v1/applications", siti, submit)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var submitted application.Application
	unmarshal(t, rec, &submitted)
	assert.Equal(t, "REG-202503-0001", submitted.RegistrationNumber)
	assert.Equal(t, application.StatusPending, submitted.Status)
	assert.Equal(t, "keluarga prasejahtera", submitted.Justification)
	assert.Equal(t, []string{"ktp.jpg"}, submitted.Documents)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/applications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "duplicate", method: http.MethodPost, path: "/v1/applications", body: submit, token: siti,
			wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: "an active application for this program already exists"}),
		},
		{
			name: "missing justification", method: http.MethodPost, path: "/v1/applications", body: []byte(`{"program_id": 1}`), token: budi,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"justification": "this field is required"}),
		},
		{
			name: "unknown program", method: http.MethodPost, path: "/v1/applications", body: []byte(`{"program_id": 9, "justification": "x"}`), token: budi,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{name: "mine", method: http.MethodGet, path: "/v1/applications", token: siti, wantCode: http.StatusOK, wantData: marchallList(t, submitted)},
		{name: "mine (none)", method: http.MethodGet, path: "/v1/applications", token: budi, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "someone else's", method: http.MethodGet, path: "/v1/applications/1", token: budi, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "admin sees it", method: http.MethodGet, path: "/v1/applications/1", token: aleg, wantCode: http.StatusOK, wantData: marchallObj(t, submitted)},
		{
			name: "admin listing requires admin", method: http.MethodGet, path: "/v1/admin/applications", token: siti,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin listing", method: http.MethodGet, path: "/v1/admin/applications?status=Pending&search=reg-202503", token: admin,
			wantCode: http.StatusOK, wantData: marchallList(t, submitted),
		},
		{
			name: "unknown status", method: http.MethodPut, path: "/v1/admin/applications/1/status", body: []byte(`{"status": "Dibatalkan"}`), token: admin,
			wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: "unrecognized status"}),
		},
		{
			name: "back to pending", method: http.MethodPut, path: "/v1/admin/applications/1/status", body: []byte(`{"status": "Pending"}`), token: admin,
			wantCode: http.StatusOK, wantData: marchallObj(t, submitted), // same status is a no-op
		},
		{
			name: "applicant cannot transition", method: http.MethodPut, path: "/v1/admin/applications/1/status", body: []byte(`{"status": "Disetujui"}`), token: siti,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "resubmit while pending", method: http.MethodPost, path: "/v1/applications/1/resubmit", body: []byte(`{"justification": "lagi"}`), token: siti,
			wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: "action not permitted in the current state"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	// review cycle: returned for completion, resubmitted, approved
	steps := []struct {
		name     string
		method   string
		path     string
		body     string
		token    string
		wantCode int
		want     application.Status
	}{
		{"needs revision", http.MethodPut, "/v1/admin/applications/1/status", `{"status": "Perlu Dilengkapi", "admin_note": "KK belum ada"}`, admin, http.StatusOK, application.StatusNeedsRevision},
		{"resubmit by someone else", http.MethodPost, "/v1/applications/1/resubmit", `{"justification": "x"}`, budi, http.StatusNotFound, ""},
		{"resubmit", http.MethodPost, "/v1/applications/1/resubmit", `{"justification": "lengkap", "documents": ["ktp.jpg", "kk.jpg"]}`, siti, http.StatusOK, application.StatusPending},
		{"approve", http.MethodPut, "/v1/admin/applications/1/status", `{"status": "Disetujui"}`, admin, http.StatusOK, application.StatusApproved},
		{"approved cannot go back to pending", http.MethodPut, "/v1/admin/applications/1/status", `{"status": "Pending"}`, admin, http.StatusUnprocessableEntity, ""},
		{"hand over", http.MethodPut, "/v1/admin/applications/1/status", `{"status": "Selesai"}`, aleg, http.StatusOK, application.StatusCompleted},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			rec := app.do(t, st.method, st.path, st.token, []byte(st.body))
			require.Equal(t, st.wantCode, rec.Code, rec.Body.String())
			if st.want != "" {
				var got application.Application
				unmarshal(t, rec, &got)
				assert.Equal(t, st.want, got.Status)
			}
		})
	}

	rec = app.do(t, http.MethodGet, "/v1/applications/1", siti)
	require.Equal(t, http.StatusOK, rec.Code)
	var final application.Application
	unmarshal(t, rec, &final)
	assert.True(t, final.IsResubmission)
	assert.Equal(t, 1, final.ResubmissionCount)
	assert.Equal(t, []string{"ktp.jpg", "kk.jpg"}, final.Documents)
	assert.True(t, final.ApprovalDate.Valid)
	assert.True(t, final.HandoverDate.Valid)

	rec = app.do(t, http.MethodGet, "/v1/applications/1/history", siti)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []application.HistoryView
	unmarshal(t, rec, &history)
	labels := make([]string, 0, len(history))
	for _, h := range history {
		labels = append(labels, h.LabelTo)
	}
	assert.Equal(t, []string{"Menunggu Review", "Perlu Dilengkapi", "Menunggu Review", "Disetujui", "Selesai"}, labels)
	assert.Equal(t, "", history[0].LabelFrom)
	assert.Equal(t, "🎉", history[4].Icon)

	rec = app.do(t, http.MethodGet, "/v1/applications/1/history", budi)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_applicationApi_quota(t *testing.T) {
	app := setup(t)
	testutil.CreateProgram(t, app.programs, "Sembako Maret", 1)
	admin := app.getToken(t, testutil.SuperAdmin(1))
	body := []byte(`{"program_id": 1, "justification": "butuh"}`)

	tests := []httpTest{
		{name: "first takes the last unit", method: http.MethodPost, path: "/v1/applications", body: body, token: app.getToken(t, testutil.Applicant(10)), wantCode: http.StatusCreated},
		{
			name: "program full", method: http.MethodPost, path: "/v1/applications", body: body, token: app.getToken(t, testutil.Applicant(11)),
			wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: "aid program is not available"}),
		},
		{name: "rejection releases", method: http.MethodPut, path: "/v1/admin/applications/1/status", body: []byte(`{"status": "Ditolak"}`), token: admin, wantCode: http.StatusOK},
		{name: "second now fits", method: http.MethodPost, path: "/v1/applications", body: body, token: app.getToken(t, testutil.Applicant(11)), wantCode: http.StatusCreated},
		{
			name: "reopening needs quota", method: http.MethodPut, path: "/v1/admin/applications/1/status", body: []byte(`{"status": "Diproses"}`), token: admin,
			wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: "aid program is not available"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	rec := app.do(t, http.MethodGet, "/v1/programs/1", admin)
	var view struct {
		QuotaConsumed int  `json:"quota_consumed"`
		Available     bool `json:"available"`
	}
	unmarshal(t, rec, &view)
	assert.Equal(t, 1, view.QuotaConsumed)
	assert.False(t, view.Available)
}
