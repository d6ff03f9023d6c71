package wilma

import (
	"embed"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"wilma-backend/internal/components/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.html
var testdata embed.FS

func fixture(t testing.TB, name string) []byte {
	t.Helper()
	contents, err := testdata.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return contents
}

type fakeAccount struct {
	password  string
	sessionId string
}

// fakePortal imitates the endpoints of a wilma instance.
type fakePortal struct {
	t      testing.TB
	server *httptest.Server

	mutex    sync.Mutex
	token    string
	accounts map[string]fakeAccount
	// pages served to authenticated requests by path
	pages map[string][]byte
	// overrides for individual endpoints
	handlers map[string]http.HandlerFunc
	hits     map[string]int

	loginPage []byte
}

func newFakePortal(t testing.TB) *fakePortal {
	p := &fakePortal{
		t:     t,
		token: strings.Repeat("A", loginTokenLength),
		accounts: map[string]fakeAccount{
			"student": {password: "hunter2", sessionId: strings.Repeat("deadbeef", 4)},
		},
		pages: map[string][]byte{
			"/":         fixture(t, "home.html"),
			"/schedule": fixture(t, "schedule.html"),
			"/messages": fixture(t, "messages.html"),
		},
		handlers: map[string]http.HandlerFunc{},
		hits:     map[string]int{},

		loginPage: fixture(t, "login_page.html"),
	}
	p.server = httptest.NewServer(http.HandlerFunc(p.serveHTTP))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePortal) URL() string {
	return p.server.URL
}

func (p *fakePortal) Hits(path string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.hits[path]
}

func (p *fakePortal) Handle(path string, handler http.HandlerFunc) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.handlers[path] = handler
}

func (p *fakePortal) SetPage(path string, contents []byte) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.pages[path] = contents
}

func (p *fakePortal) serveHTTP(w http.ResponseWriter, r *http.Request) {
	p.mutex.Lock()
	p.hits[r.URL.Path]++
	handler := p.handlers[r.URL.Path]
	p.mutex.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}

	switch r.URL.Path {
	case "/token":
		w.Header().Set("content-type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"Wilma2LoginID": p.token})
	case "/login":
		p.serveLogin(w, r)
	default:
		p.servePage(w, r)
	}
}

func (p *fakePortal) serveLogin(w http.ResponseWriter, r *http.Request) {
	// handlers run outside of the test goroutine so assert is used
	assert.Equal(p.t, http.MethodPost, r.Method)
	assert.NoError(p.t, r.ParseForm())

	cookie, err := r.Cookie(cookieLoginID)
	if assert.NoError(p.t, err) {
		assert.Equal(p.t, p.token, cookie.Value)
	}
	assert.Equal(p.t, p.token, r.PostForm.Get("SESSIONID"))
	assert.Equal(p.t, loginSubmitValue, r.PostForm.Get("Submit"))

	account, ok := p.accounts[r.PostForm.Get("Login")]
	if !ok || account.password != r.PostForm.Get("Password") {
		w.Header().Set("Location", p.URL()+"/?loginfailed")
		w.WriteHeader(http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: cookieLoginID, Value: "", MaxAge: -1})
	w.Header().Add("Set-Cookie", cookieSessionID+"="+account.sessionId+"; path=/; HttpOnly")
	w.Header().Set("Location", p.URL()+"/?checkcookie")
	w.WriteHeader(http.StatusSeeOther)
}

func (p *fakePortal) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(cookieSessionID)
	if err != nil {
		return false
	}
	for _, account := range p.accounts {
		if account.sessionId == cookie.Value {
			return true
		}
	}
	return false
}

func (p *fakePortal) servePage(w http.ResponseWriter, r *http.Request) {
	if !p.authenticated(r) {
		if r.URL.Path != "/" {
			http.Redirect(w, r, "/?loginrequired", http.StatusFound)
			return
		}
		w.Write(p.loginPage)
		return
	}

	p.mutex.Lock()
	page, ok := p.pages[r.URL.Path]
	p.mutex.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Write(page)
}

func newTestClient(t testing.TB) (*Client, telemetry.RecorderAPI) {
	t.Helper()
	tel := telemetry.NewRecorderAPI()
	client, err := NewClient(tel, ClientOptions{})
	require.NoError(t, err)
	return client, tel
}

func newTestSession(t testing.TB, portal *fakePortal) *Session {
	t.Helper()
	s, err := NewSession(portal.URL())
	require.NoError(t, err)
	return s
}

func authenticatedSession(t testing.TB, portal *fakePortal) *Session {
	t.Helper()
	s, err := RestoreSession(portal.URL(), portal.accounts["student"].sessionId)
	require.NoError(t, err)
	return s
}
