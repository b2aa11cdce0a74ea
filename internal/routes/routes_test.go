package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"agentdesk/internal/activity"
	"agentdesk/internal/controllers"
	"agentdesk/internal/database"
	"agentdesk/internal/middleware"
	"agentdesk/internal/policy"
	"agentdesk/internal/store"
	"agentdesk/internal/testdb"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	router *gin.Engine
	store  *store.Store
}

// newHarness serves the full router over an in-memory database seeded with
// the default ADM001 > MGR001 > SLF001 > AGT001 chain.
func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, testdb.Open(t))
}

func newHarnessOn(t *testing.T, db *gorm.DB) *harness {
	t.Helper()
	st := store.New(db)
	log := logrus.New()
	log.SetOutput(io.Discard)

	if err := database.SeedDefaultUsers(context.Background(), st, log); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sess, err := middleware.Sessions(middleware.SessionOptions{Secret: "test-secret", MaxAge: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	deps := &controllers.Deps{
		Store:    st,
		Policy:   policy.New(st),
		Activity: activity.New(st, log),
		Auth:     middleware.NewAuthenticator(st, middleware.NewTokenIssuer("test-secret", time.Hour)),
		Log:      log,
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	}
	return &harness{t: t, router: SetupRouter(deps, Options{Sessions: sess}), store: st}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) expect(rec *httptest.ResponseRecorder, status int) {
	h.t.Helper()
	if rec.Code != status {
		h.t.Fatalf("status = %d, want %d; body: %s", rec.Code, status, rec.Body.String())
	}
}

func (h *harness) login(workID, email, password string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/login", "", gin.H{"workId": workID, "email": email, "password": password})
	h.expect(rec, http.StatusOK)
	token := rec.Header().Get(controllers.AuthTokenHeader)
	if token == "" {
		h.t.Fatal("login returned no token")
	}
	return token
}

func (h *harness) admin() string   { return h.login("ADM001", "admin@example.com", "admin123") }
func (h *harness) manager() string { return h.login("MGR001", "manager@example.com", "manager123") }
func (h *harness) sales() string   { return h.login("SLF001", "sales@example.com", "sales123") }
func (h *harness) agent() string   { return h.login("AGT001", "agent@example.com", "agent123") }

// createUser posts a new user through path and returns its id.
func (h *harness) createUser(path, token, workID, role string) uint {
	h.t.Helper()
	rec := h.do(http.MethodPost, path, token, gin.H{
		"firstName": "Test",
		"lastName":  workID,
		"email":     workID + "@example.com",
		"workId":    workID,
		"password":  "secret1",
		"role":      role,
	})
	h.expect(rec, http.StatusCreated)
	return uint(decode[map[string]any](h.t, rec)["id"].(float64))
}

func (h *harness) userID(workID string) uint {
	h.t.Helper()
	users, err := h.store.ListUsers(context.Background())
	if err != nil {
		h.t.Fatal(err)
	}
	for _, u := range users {
		if u.WorkID == workID {
			return u.ID
		}
	}
	h.t.Fatalf("no user %s", workID)
	return 0
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["message"].(string)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	h.expect(h.do(http.MethodGet, "/api/health", "", nil), http.StatusOK)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	token := h.agent()
	rec := h.do(http.MethodGet, "/api/user", token, nil)
	h.expect(rec, http.StatusOK)
	me := decode[map[string]any](t, rec)
	if me["workId"] != "AGT001" || me["role"] != "Agent" {
		t.Fatalf("me = %v", me)
	}
	if _, ok := me["password"]; ok {
		t.Fatal("password serialized")
	}

	cases := []struct {
		workID, email, password string
		want                    string
	}{
		{"AGT001", "agent@example.com", "wrong", "Invalid credentials"},
		{"AGT999", "agent@example.com", "agent123", "User not found"},
		{"AGT001", "sales@example.com", "agent123", "User not found"},
	}
	for _, tc := range cases {
		rec := h.do(http.MethodPost, "/api/login", "", gin.H{"workId": tc.workID, "email": tc.email, "password": tc.password})
		h.expect(rec, http.StatusUnauthorized)
		if got := message(t, rec); got != tc.want {
			t.Errorf("%s/%s: message = %q, want %q", tc.workID, tc.email, got, tc.want)
		}
	}

	rec = h.do(http.MethodPost, "/api/login", "", gin.H{"workId": "AGT001"})
	h.expect(rec, http.StatusBadRequest)
	if fields := decode[map[string]any](t, rec)["fields"].(map[string]any); fields["email"] == nil {
		t.Fatalf("fields = %v", fields)
	}

	h.expect(h.do(http.MethodGet, "/api/user", "", nil), http.StatusUnauthorized)
	h.expect(h.do(http.MethodGet, "/api/user", "garbage", nil), http.StatusUnauthorized)
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	h.login("AGT001", "Agent@Example.com", "agent123")
}

func TestSessionCookieAuthenticates(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/login", "", gin.H{"workId": "SLF001", "email": "sales@example.com", "password": "sales123"})
	h.expect(rec, http.StatusOK)
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != middleware.SessionCookieName {
		t.Fatalf("cookies = %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	h.router.ServeHTTP(me, req)
	h.expect(me, http.StatusOK)
	if decode[map[string]any](t, me)["workId"] != "SLF001" {
		t.Fatalf("me = %s", me.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookies[0])
	out := httptest.NewRecorder()
	h.router.ServeHTTP(out, req)
	h.expect(out, http.StatusOK)
}

func TestDeactivationTakesEffectImmediately(t *testing.T) {
	h := newHarness(t)
	admin := h.admin()
	manager := h.manager()
	managerID := h.userID("MGR001")

	rec := h.do(http.MethodPost, fmt.Sprintf("/api/admin/users/%d/deactivate", managerID), admin, nil)
	h.expect(rec, http.StatusOK)
	if decode[map[string]any](t, rec)["isActive"] != false {
		t.Fatalf("user = %s", rec.Body.String())
	}

	// the token issued before deactivation no longer works
	rec = h.do(http.MethodGet, "/api/user", manager, nil)
	h.expect(rec, http.StatusUnauthorized)
	if got := message(t, rec); got != "Account inactive. Please contact administrator." {
		t.Fatalf("message = %q", got)
	}

	rec = h.do(http.MethodPost, "/api/login", "", gin.H{"workId": "MGR001", "email": "manager@example.com", "password": "manager123"})
	h.expect(rec, http.StatusUnauthorized)
	if got := message(t, rec); got != "Account inactive. Please contact administrator." {
		t.Fatalf("message = %q", got)
	}

	h.expect(h.do(http.MethodPost, fmt.Sprintf("/api/admin/users/%d/activate", managerID), admin, nil), http.StatusOK)
	h.manager()
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	h := newHarness(t)
	admin := h.admin()
	rec := h.do(http.MethodPost, fmt.Sprintf("/api/admin/users/%d/deactivate", h.userID("ADM001")), admin, nil)
	h.expect(rec, http.StatusBadRequest)
}

func TestRoleCreationRules(t *testing.T) {
	h := newHarness(t)
	manager := h.manager()

	rec := h.do(http.MethodPost, "/api/manager/sales-staff", manager, gin.H{
		"firstName": "Mia", "lastName": "Manager", "email": "mia@example.com",
		"workId": "MGR777", "password": "secret1", "role": "Manager",
	})
	h.expect(rec, http.StatusBadRequest)

	id := h.createUser("/api/manager/sales-staff", manager, "SLF777", "")
	u, err := h.store.GetUser(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != "SalesStaff" || u.ManagerID == nil || *u.ManagerID != h.userID("MGR001") {
		t.Fatalf("created %+v", u)
	}

	// duplicate email or work id
	rec = h.do(http.MethodPost, "/api/manager/sales-staff", manager, gin.H{
		"firstName": "Dup", "lastName": "Dup", "email": "SLF777@example.com",
		"workId": "SLF778", "password": "secret1",
	})
	h.expect(rec, http.StatusConflict)

	admin := h.admin()
	h.createUser("/api/admin/managers", admin, "MGR002", "Manager")
	rec = h.do(http.MethodPost, "/api/admin/managers", admin, gin.H{
		"firstName": "Al", "lastName": "Agent", "email": "al@example.com",
		"workId": "AGT777", "password": "secret1", "role": "Agent",
	})
	h.expect(rec, http.StatusBadRequest)

	sales := h.sales()
	h.createUser("/api/sales-staff/agents", sales, "TL001", "TeamLeader")
	h.createUser("/api/sales-staff/agents", sales, "AGT002", "Agent")
	rec = h.do(http.MethodPost, "/api/sales-staff/agents", sales, gin.H{
		"firstName": "S", "lastName": "S", "email": "s2@example.com",
		"workId": "SLF002", "password": "secret1", "role": "SalesStaff",
	})
	h.expect(rec, http.StatusBadRequest)
}

func TestRoleGatesAndScopes(t *testing.T) {
	h := newHarness(t)
	admin := h.admin()
	agent := h.agent()

	rec := h.do(http.MethodGet, "/api/admin/users", agent, nil)
	h.expect(rec, http.StatusForbidden)
	if got := message(t, rec); got != "Insufficient permissions" {
		t.Fatalf("message = %q", got)
	}
	h.expect(h.do(http.MethodGet, "/api/manager/sales-staff", agent, nil), http.StatusForbidden)

	// a second branch: MGR002 > SLF002
	h.createUser("/api/admin/managers", admin, "MGR002", "Manager")
	m2 := h.login("MGR002", "MGR002@example.com", "secret1")
	s2ID := h.createUser("/api/manager/sales-staff", m2, "SLF002", "")

	manager := h.manager()
	rec = h.do(http.MethodPatch, fmt.Sprintf("/api/manager/sales-staff/%d", s2ID), manager, gin.H{"firstName": "Hijack"})
	h.expect(rec, http.StatusForbidden)
	h.expect(h.do(http.MethodDelete, fmt.Sprintf("/api/manager/sales-staff/%d", s2ID), manager, nil), http.StatusForbidden)

	rec = h.do(http.MethodGet, "/api/manager/sales-staff", manager, nil)
	h.expect(rec, http.StatusOK)
	if staff := decode[[]map[string]any](t, rec); len(staff) != 1 || staff[0]["workId"] != "SLF001" {
		t.Fatalf("staff = %v", staff)
	}

	// agents reachable transitively through the manager's sales staff
	rec = h.do(http.MethodGet, "/api/manager/agents", manager, nil)
	h.expect(rec, http.StatusOK)
	if agents := decode[[]map[string]any](t, rec); len(agents) != 1 || agents[0]["workId"] != "AGT001" {
		t.Fatalf("agents = %v", agents)
	}
	rec = h.do(http.MethodGet, "/api/manager/agents", m2, nil)
	h.expect(rec, http.StatusOK)
	if agents := decode[[]map[string]any](t, rec); len(agents) != 0 {
		t.Fatalf("agents = %v", agents)
	}

	rec = h.do(http.MethodPatch, fmt.Sprintf("/api/manager/sales-staff/%d", s2ID), m2, gin.H{"firstName": "Sam"})
	h.expect(rec, http.StatusOK)
	if decode[map[string]any](t, rec)["firstName"] != "Sam" {
		t.Fatalf("update = %s", rec.Body.String())
	}
	h.expect(h.do(http.MethodDelete, fmt.Sprintf("/api/manager/sales-staff/%d", s2ID), m2, nil), http.StatusNoContent)

	rec = h.do(http.MethodGet, "/api/admin/users", admin, nil)
	h.expect(rec, http.StatusOK)
	if users := decode[[]map[string]any](t, rec); len(users) != 6 {
		t.Fatalf("users = %d", len(users))
	}
}

func TestGroupMembersVisibleToLeaderNotOtherSalesStaff(t *testing.T) {
	h := newHarness(t)
	sales := h.sales()
	tlID := h.createUser("/api/sales-staff/agents", sales, "TL001", "TeamLeader")
	agentID := h.userID("AGT001")

	rec := h.do(http.MethodPost, "/api/sales-staff/agent-groups", sales, gin.H{"name": "North", "leaderId": tlID})
	h.expect(rec, http.StatusCreated)
	groupID := uint(decode[map[string]any](t, rec)["id"].(float64))

	membersPath := fmt.Sprintf("/api/sales-staff/agent-groups/%d/members", groupID)
	h.expect(h.do(http.MethodPost, membersPath, sales, gin.H{"agentId": agentID}), http.StatusCreated)
	h.expect(h.do(http.MethodPost, membersPath, sales, gin.H{"agentId": agentID}), http.StatusConflict)
	// a TeamLeader cannot be a member
	h.expect(h.do(http.MethodPost, membersPath, sales, gin.H{"agentId": tlID}), http.StatusBadRequest)

	leader := h.login("TL001", "TL001@example.com", "secret1")
	rec = h.do(http.MethodGet, membersPath, leader, nil)
	h.expect(rec, http.StatusOK)
	if members := decode[[]map[string]any](t, rec); len(members) != 1 || members[0]["workId"] != "AGT001" {
		t.Fatalf("members = %v", members)
	}

	rec = h.do(http.MethodGet, "/api/leader/group-members", leader, nil)
	h.expect(rec, http.StatusOK)
	if team := decode[[]map[string]any](t, rec); len(team) != 1 {
		t.Fatalf("team = %v", team)
	}
	rec = h.do(http.MethodGet, "/api/leader/groups", leader, nil)
	h.expect(rec, http.StatusOK)
	if groups := decode[[]map[string]any](t, rec); len(groups) != 1 || groups[0]["name"] != "North" {
		t.Fatalf("groups = %v", groups)
	}

	admin := h.admin()
	h.createUser("/api/admin/managers", admin, "MGR002", "Manager")
	m2 := h.login("MGR002", "MGR002@example.com", "secret1")
	h.createUser("/api/manager/sales-staff", m2, "SLF002", "")
	s2 := h.login("SLF002", "SLF002@example.com", "secret1")

	h.expect(h.do(http.MethodGet, membersPath, s2, nil), http.StatusForbidden)
	h.expect(h.do(http.MethodPost, membersPath, s2, gin.H{"agentId": agentID}), http.StatusForbidden)
	rec = h.do(http.MethodGet, "/api/sales-staff/agent-groups", s2, nil)
	h.expect(rec, http.StatusOK)
	if groups := decode[[]map[string]any](t, rec); len(groups) != 0 {
		t.Fatalf("groups = %v", groups)
	}

	// s2 cannot borrow someone else's team leader
	rec = h.do(http.MethodPost, "/api/sales-staff/agent-groups", s2, gin.H{"name": "South", "leaderId": tlID})
	h.expect(rec, http.StatusBadRequest)

	h.expect(h.do(http.MethodDelete, fmt.Sprintf("%s/%d", membersPath, agentID), sales, nil), http.StatusNoContent)
	h.expect(h.do(http.MethodDelete, fmt.Sprintf("%s/%d", membersPath, agentID), sales, nil), http.StatusNotFound)

	rec = h.do(http.MethodPatch, fmt.Sprintf("/api/sales-staff/agent-groups/%d", groupID), sales, gin.H{"removeLeader": true})
	h.expect(rec, http.StatusOK)
	if decode[map[string]any](t, rec)["leaderId"] != nil {
		t.Fatalf("group = %s", rec.Body.String())
	}
	h.expect(h.do(http.MethodGet, membersPath, leader, nil), http.StatusForbidden)

	h.expect(h.do(http.MethodDelete, fmt.Sprintf("/api/sales-staff/agent-groups/%d", groupID), sales, nil), http.StatusNoContent)
	h.expect(h.do(http.MethodGet, membersPath, sales, nil), http.StatusNotFound)
}

func TestAttendanceOncePerDay(t *testing.T) {
	h := newHarness(t)
	agent := h.agent()

	body := gin.H{"sector": "Retail", "location": "Nairobi CBD"}
	rec := h.do(http.MethodPost, "/api/agent/attendance", agent, body)
	h.expect(rec, http.StatusCreated)
	if decode[map[string]any](t, rec)["date"] == nil {
		t.Fatalf("attendance = %s", rec.Body.String())
	}
	rec = h.do(http.MethodPost, "/api/agent/attendance", agent, body)
	h.expect(rec, http.StatusConflict)
	if got := message(t, rec); got != "Attendance already recorded for today" {
		t.Fatalf("message = %q", got)
	}
	h.expect(h.do(http.MethodPost, "/api/agent/attendance", agent, gin.H{"sector": "Retail"}), http.StatusBadRequest)

	for name, token := range map[string]string{"agent": agent, "sales": h.sales(), "manager": h.manager()} {
		rec := h.do(http.MethodGet, "/api/agent/attendance", token, nil)
		h.expect(rec, http.StatusOK)
		if got := decode[[]map[string]any](t, rec); len(got) != 1 {
			t.Errorf("%s sees %d records", name, len(got))
		}
	}

	rec = h.do(http.MethodGet, "/api/agent/attendance?date=2026-03-01", agent, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 0 {
		t.Fatalf("yesterday = %v", got)
	}
	h.expect(h.do(http.MethodGet, "/api/agent/attendance?date=03/02/2026", agent, nil), http.StatusBadRequest)
	h.expect(h.do(http.MethodGet, "/api/agent/attendance", h.admin(), nil), http.StatusForbidden)
}

func TestDailyReports(t *testing.T) {
	h := newHarness(t)
	agent := h.agent()

	body := gin.H{"comment": "Good day", "clientsData": []gin.H{{"name": "Jane", "product": "Life"}}}
	h.expect(h.do(http.MethodPost, "/api/agent/daily-reports", agent, body), http.StatusCreated)
	rec := h.do(http.MethodPost, "/api/agent/daily-reports", agent, body)
	h.expect(rec, http.StatusConflict)
	if got := message(t, rec); got != "Daily report already submitted for today" {
		t.Fatalf("message = %q", got)
	}

	rec = h.do(http.MethodGet, "/api/agent/daily-reports", agent, nil)
	h.expect(rec, http.StatusOK)
	reports := decode[[]map[string]any](t, rec)
	if len(reports) != 1 || reports[0]["comment"] != "Good day" {
		t.Fatalf("reports = %v", reports)
	}
	if data, ok := reports[0]["clientsData"].([]any); !ok || len(data) != 1 {
		t.Fatalf("clientsData = %v", reports[0]["clientsData"])
	}
}

func TestLeaderSeesTeamAttendanceAndReports(t *testing.T) {
	h := newHarness(t)
	sales := h.sales()
	tlID := h.createUser("/api/sales-staff/agents", sales, "TL001", "TeamLeader")
	h.createUser("/api/sales-staff/agents", sales, "AGT002", "Agent")

	rec := h.do(http.MethodPost, "/api/sales-staff/agent-groups", sales, gin.H{"name": "North", "leaderId": tlID})
	h.expect(rec, http.StatusCreated)
	groupID := uint(decode[map[string]any](t, rec)["id"].(float64))
	h.expect(h.do(http.MethodPost, fmt.Sprintf("/api/sales-staff/agent-groups/%d/members", groupID), sales,
		gin.H{"agentId": h.userID("AGT001")}), http.StatusCreated)

	agent := h.agent()
	outsider := h.login("AGT002", "AGT002@example.com", "secret1")
	leader := h.login("TL001", "TL001@example.com", "secret1")
	for _, token := range []string{agent, outsider, leader} {
		h.expect(h.do(http.MethodPost, "/api/agent/attendance", token, gin.H{"sector": "S", "location": "L"}), http.StatusCreated)
		h.expect(h.do(http.MethodPost, "/api/agent/daily-reports", token, gin.H{"comment": "c"}), http.StatusCreated)
	}

	rec = h.do(http.MethodGet, "/api/leader/attendance?date=2026-03-02", leader, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 2 {
		t.Fatalf("leader attendance = %v", got)
	}
	rec = h.do(http.MethodGet, "/api/leader/daily-reports", leader, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 2 {
		t.Fatalf("leader reports = %v", got)
	}
	h.expect(h.do(http.MethodGet, "/api/leader/attendance", agent, nil), http.StatusForbidden)
}

func TestClientsScopedToOwner(t *testing.T) {
	h := newHarness(t)
	sales := h.sales()
	h.createUser("/api/sales-staff/agents", sales, "AGT002", "Agent")
	agent := h.agent()
	other := h.login("AGT002", "AGT002@example.com", "secret1")

	rec := h.do(http.MethodPost, "/api/agent/clients", agent, gin.H{
		"firstName": "Jane", "lastName": "Wanjiru", "insuranceProduct": "Life", "feePaid": "150.50",
	})
	h.expect(rec, http.StatusCreated)
	client := decode[map[string]any](t, rec)
	path := fmt.Sprintf("/api/agent/clients/%d", uint(client["id"].(float64)))
	if client["feePaid"] != "150.5" {
		t.Fatalf("feePaid = %v", client["feePaid"])
	}

	h.expect(h.do(http.MethodPost, "/api/agent/clients", agent, gin.H{"firstName": "A", "lastName": "B", "feePaid": -1}), http.StatusBadRequest)

	h.expect(h.do(http.MethodGet, path, other, nil), http.StatusForbidden)
	h.expect(h.do(http.MethodPatch, path, other, gin.H{"location": "Mombasa"}), http.StatusForbidden)
	h.expect(h.do(http.MethodDelete, path, other, nil), http.StatusForbidden)

	rec = h.do(http.MethodGet, "/api/agent/clients", other, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 0 {
		t.Fatalf("other sees %v", got)
	}
	rec = h.do(http.MethodGet, "/api/agent/clients", sales, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 1 {
		t.Fatalf("sales sees %v", got)
	}
	h.expect(h.do(http.MethodGet, "/api/agent/clients", h.manager(), nil), http.StatusForbidden)

	rec = h.do(http.MethodPatch, path, agent, gin.H{"location": "Mombasa"})
	h.expect(rec, http.StatusOK)
	if decode[map[string]any](t, rec)["location"] != "Mombasa" {
		t.Fatalf("update = %s", rec.Body.String())
	}
	h.expect(h.do(http.MethodDelete, path, agent, nil), http.StatusNoContent)
	h.expect(h.do(http.MethodGet, path, agent, nil), http.StatusNotFound)
}

func TestMessagingRules(t *testing.T) {
	h := newHarness(t)
	agent := h.agent()
	sales := h.sales()
	salesID := h.userID("SLF001")
	managerID := h.userID("MGR001")

	rec := h.do(http.MethodPost, "/api/messages", agent, gin.H{"receiverId": salesID, "content": "Need help"})
	h.expect(rec, http.StatusCreated)
	msgID := uint(decode[map[string]any](t, rec)["id"].(float64))

	rec = h.do(http.MethodPost, "/api/messages", agent, gin.H{"receiverId": managerID, "content": "Hi boss"})
	h.expect(rec, http.StatusForbidden)
	if got := message(t, rec); got != "You are not allowed to message this user" {
		t.Fatalf("message = %q", got)
	}
	rec = h.do(http.MethodPost, "/api/messages", agent, gin.H{"receiverId": 9999, "content": "?"})
	h.expect(rec, http.StatusNotFound)
	if got := message(t, rec); got != "Receiver not found" {
		t.Fatalf("message = %q", got)
	}

	// own manager only
	h.expect(h.do(http.MethodPost, "/api/messages", sales, gin.H{"receiverId": managerID, "content": "Report"}), http.StatusCreated)
	h.createUser("/api/admin/managers", h.admin(), "MGR002", "Manager")
	h.expect(h.do(http.MethodPost, "/api/messages", sales, gin.H{"receiverId": h.userID("MGR002"), "content": "Hi"}), http.StatusForbidden)

	rec = h.do(http.MethodGet, "/api/messages", sales, nil)
	h.expect(rec, http.StatusOK)
	msgs := decode[[]map[string]any](t, rec)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", msgs)
	}
	sender := msgs[0]["sender"].(map[string]any)
	if sender["firstName"] != "John" || sender["role"] != "Agent" {
		t.Fatalf("sender = %v", sender)
	}

	readPath := fmt.Sprintf("/api/messages/%d/read", msgID)
	rec = h.do(http.MethodPatch, readPath, agent, nil)
	h.expect(rec, http.StatusForbidden)
	if got := message(t, rec); got != "You can only mark messages sent to you as read" {
		t.Fatalf("message = %q", got)
	}
	rec = h.do(http.MethodPatch, readPath, sales, nil)
	h.expect(rec, http.StatusOK)
	if decode[map[string]any](t, rec)["read"] != true {
		t.Fatalf("read = %s", rec.Body.String())
	}

	h.expect(h.do(http.MethodPost, "/api/messages", sales, gin.H{"receiverId": h.userID("AGT001"), "content": "On my way"}), http.StatusCreated)
	rec = h.do(http.MethodGet, fmt.Sprintf("/api/messages/conversations/%d", salesID), agent, nil)
	h.expect(rec, http.StatusOK)
	convo := decode[[]map[string]any](t, rec)
	if len(convo) != 2 || convo[0]["content"] != "Need help" || convo[1]["content"] != "On my way" {
		t.Fatalf("conversation = %v", convo)
	}

	rec = h.do(http.MethodGet, "/api/users/available-receivers", agent, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 1 || got[0]["workId"] != "SLF001" {
		t.Fatalf("receivers = %v", got)
	}
}

func TestActivitiesPagination(t *testing.T) {
	h := newHarness(t)
	admin := h.admin()
	h.agent()
	h.sales()

	rec := h.do(http.MethodGet, "/api/admin/activities?page=1&limit=2", admin, nil)
	h.expect(rec, http.StatusOK)
	page := decode[struct {
		Activities []map[string]any `json:"activities"`
		Total      int              `json:"total"`
	}](t, rec)
	if page.Total != 3 || len(page.Activities) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Activities[0]["action"] != "login" {
		t.Fatalf("newest = %v", page.Activities[0])
	}

	rec = h.do(http.MethodGet, "/api/admin/activities?page=2&limit=2", admin, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[map[string]any](t, rec)["activities"].([]any); len(got) != 1 {
		t.Fatalf("page 2 = %v", got)
	}

	h.expect(h.do(http.MethodGet, "/api/admin/activities?page=abc", admin, nil), http.StatusBadRequest)
	h.expect(h.do(http.MethodPost, "/api/admin/activities", admin, gin.H{"action": "audit", "details": "manual"}), http.StatusCreated)
	h.expect(h.do(http.MethodGet, "/api/admin/activities", h.manager(), nil), http.StatusForbidden)
}

func TestHelpRequests(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/help-requests", "", gin.H{"name": "Locked Out", "email": "lo@example.com", "message": "Reset please"})
	h.expect(rec, http.StatusCreated)
	id := uint(decode[map[string]any](t, rec)["id"].(float64))

	admin := h.admin()
	rec = h.do(http.MethodGet, "/api/admin/help-requests", admin, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 1 {
		t.Fatalf("open = %v", got)
	}
	h.expect(h.do(http.MethodPatch, fmt.Sprintf("/api/admin/help-requests/%d/resolve", id), admin, nil), http.StatusOK)

	rec = h.do(http.MethodGet, "/api/admin/help-requests", admin, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 0 {
		t.Fatalf("open after resolve = %v", got)
	}
	rec = h.do(http.MethodGet, "/api/admin/help-requests?resolved=true", admin, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 1 {
		t.Fatalf("resolved = %v", got)
	}
}

func TestAttendanceTimeFrames(t *testing.T) {
	h := newHarness(t)
	manager := h.manager()

	h.expect(h.do(http.MethodPost, "/api/manager/attendance-time-frames", manager, gin.H{"startTime": "09:00", "endTime": "08:00"}), http.StatusBadRequest)
	h.expect(h.do(http.MethodPost, "/api/manager/attendance-time-frames", manager, gin.H{"startTime": "9am", "endTime": "10:00"}), http.StatusBadRequest)

	rec := h.do(http.MethodPost, "/api/manager/attendance-time-frames", manager, gin.H{"startTime": "08:00", "endTime": "09:30"})
	h.expect(rec, http.StatusCreated)
	id := uint(decode[map[string]any](t, rec)["id"].(float64))

	rec = h.do(http.MethodPatch, fmt.Sprintf("/api/manager/attendance-time-frames/%d", id), manager, gin.H{"endTime": "10:00"})
	h.expect(rec, http.StatusOK)
	if decode[map[string]any](t, rec)["endTime"] != "10:00" {
		t.Fatalf("frame = %s", rec.Body.String())
	}

	h.createUser("/api/admin/managers", h.admin(), "MGR002", "Manager")
	m2 := h.login("MGR002", "MGR002@example.com", "secret1")
	h.expect(h.do(http.MethodPatch, fmt.Sprintf("/api/manager/attendance-time-frames/%d", id), m2, gin.H{"endTime": "11:00"}), http.StatusForbidden)
	rec = h.do(http.MethodGet, "/api/manager/attendance-time-frames", m2, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 0 {
		t.Fatalf("m2 frames = %v", got)
	}
}

func TestLoginRateLimit(t *testing.T) {
	h := newHarness(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	sess, err := middleware.Sessions(middleware.SessionOptions{Secret: "test-secret"})
	if err != nil {
		t.Fatal(err)
	}
	deps := &controllers.Deps{
		Store:    h.store,
		Policy:   policy.New(h.store),
		Activity: activity.New(h.store, log),
		Auth:     middleware.NewAuthenticator(h.store, middleware.NewTokenIssuer("test-secret", time.Hour)),
		Log:      log,
	}
	h.router = SetupRouter(deps, Options{Sessions: sess, LoginLimiter: middleware.NewRateLimiter(1, 2)})

	bad := gin.H{"workId": "AGT001", "email": "agent@example.com", "password": "nope"}
	h.expect(h.do(http.MethodPost, "/api/login", "", bad), http.StatusUnauthorized)
	h.expect(h.do(http.MethodPost, "/api/login", "", bad), http.StatusUnauthorized)
	h.expect(h.do(http.MethodPost, "/api/login", "", bad), http.StatusTooManyRequests)
}

func TestBlankTextIsRejected(t *testing.T) {
	h := newHarness(t)
	manager := h.manager()
	staffPath := fmt.Sprintf("/api/manager/sales-staff/%d", h.userID("SLF001"))

	for _, body := range []gin.H{{"workId": ""}, {"workId": "   "}, {"firstName": "\t"}, {"lastName": ""}, {"password": ""}} {
		rec := h.do(http.MethodPatch, staffPath, manager, body)
		h.expect(rec, http.StatusBadRequest)
	}
	// the account is untouched and can still sign in
	rec := h.do(http.MethodGet, "/api/user", h.sales(), nil)
	h.expect(rec, http.StatusOK)
	if me := decode[map[string]any](t, rec); me["workId"] != "SLF001" || me["firstName"] == "" {
		t.Fatalf("me = %v", me)
	}

	rec = h.do(http.MethodPatch, staffPath, manager, gin.H{"firstName": "  Sam  "})
	h.expect(rec, http.StatusOK)
	if decode[map[string]any](t, rec)["firstName"] != "Sam" {
		t.Fatalf("update = %s", rec.Body.String())
	}

	rec = h.do(http.MethodPost, "/api/manager/sales-staff", manager, gin.H{
		"firstName": "  ", "lastName": "Blank", "email": "blank@example.com",
		"workId": " ", "password": "secret1",
	})
	h.expect(rec, http.StatusBadRequest)
	fields := decode[map[string]any](t, rec)["fields"].(map[string]any)
	if fields["firstName"] != "must not be blank" || fields["workId"] != "must not be blank" {
		t.Fatalf("fields = %v", fields)
	}

	agent := h.agent()
	rec = h.do(http.MethodPost, "/api/agent/clients", agent, gin.H{"firstName": "Jane", "lastName": "Wanjiru"})
	h.expect(rec, http.StatusCreated)
	clientPath := fmt.Sprintf("/api/agent/clients/%d", uint(decode[map[string]any](t, rec)["id"].(float64)))
	h.expect(h.do(http.MethodPatch, clientPath, agent, gin.H{"firstName": " "}), http.StatusBadRequest)
	h.expect(h.do(http.MethodPatch, clientPath, agent, gin.H{"lastName": ""}), http.StatusBadRequest)
	h.expect(h.do(http.MethodPost, "/api/agent/attendance", agent, gin.H{"sector": " ", "location": "CBD"}), http.StatusBadRequest)
	h.expect(h.do(http.MethodPost, "/api/messages", agent, gin.H{"receiverId": h.userID("SLF001"), "content": "  "}), http.StatusBadRequest)

	sales := h.sales()
	h.expect(h.do(http.MethodPost, "/api/sales-staff/agent-groups", sales, gin.H{"name": "   "}), http.StatusBadRequest)
	rec = h.do(http.MethodPost, "/api/sales-staff/agent-groups", sales, gin.H{"name": "North"})
	h.expect(rec, http.StatusCreated)
	groupPath := fmt.Sprintf("/api/sales-staff/agent-groups/%d", uint(decode[map[string]any](t, rec)["id"].(float64)))
	h.expect(h.do(http.MethodPatch, groupPath, sales, gin.H{"name": " "}), http.StatusBadRequest)
}

func TestGroupLeaderMustExist(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/sales-staff/agent-groups", h.sales(), gin.H{"name": "North", "leaderId": 9999})
	h.expect(rec, http.StatusBadRequest)
	if fields := decode[map[string]any](t, rec)["fields"].(map[string]any); fields["leaderId"] != "user does not exist" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestLoginRenewsSessionCookie(t *testing.T) {
	h := newHarness(t)
	loginWith := func(cookie *http.Cookie, workID, email, password string) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(gin.H{"workId": workID, "email": email, "password": password})
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		h.expect(rec, http.StatusOK)
		return rec
	}
	me := func(cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		return rec
	}

	before := loginWith(nil, "AGT001", "agent@example.com", "agent123").Result().Cookies()[0]
	var after *http.Cookie
	for _, ck := range loginWith(before, "SLF001", "sales@example.com", "sales123").Result().Cookies() {
		if ck.Name == middleware.SessionCookieName && ck.MaxAge >= 0 && ck.Value != "" {
			after = ck
		}
	}
	if after == nil || after.Value == before.Value {
		t.Fatal("login kept the previous session cookie")
	}

	h.expect(me(before), http.StatusUnauthorized)
	rec := me(after)
	h.expect(rec, http.StatusOK)
	if decode[map[string]any](t, rec)["workId"] != "SLF001" {
		t.Fatalf("me = %s", rec.Body.String())
	}
}

func TestConcurrentCheckInsRecordOnce(t *testing.T) {
	h := newHarnessOn(t, testdb.OpenFile(t))
	agent := h.agent()

	const n = 8
	codes := make(chan int, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/agent/attendance",
				bytes.NewReader([]byte(`{"sector":"Retail","location":"Nairobi CBD"}`)))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+agent)
			rec := httptest.NewRecorder()
			<-start
			h.router.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	close(start)
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	if counts[http.StatusCreated] != 1 || counts[http.StatusConflict] != n-1 {
		t.Fatalf("status counts = %v", counts)
	}

	rec := h.do(http.MethodGet, "/api/agent/attendance", agent, nil)
	h.expect(rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 1 {
		t.Fatalf("records = %d", len(got))
	}
}
