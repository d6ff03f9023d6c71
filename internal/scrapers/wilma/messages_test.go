package wilma

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"wilma-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseFixture(t testing.TB, name string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(fixture(t, name)))
	require.NoError(t, err)
	return doc
}

func TestGetMessages(t *testing.T) {
	portal := newFakePortal(t)
	client, tel := newTestClient(t)
	s := authenticatedSession(t, portal)

	messages, err := client.GetMessages(context.Background(), s)
	require.NoError(t, err)

	expected := []Message{
		{
			Id:       "1001",
			Subject:  "Syysloman aikataulu",
			Sender:   "Virtanen Ville",
			SentAt:   "2.9.2024 12:15",
			IsUnread: true,
		},
		{
			Id:      "1000",
			Subject: "Tervetuloa lukuvuoteen",
			Sender:  "Rehtori",
			SentAt:  "1.9.2024 08:00",
		},
		{
			Id:       "msg-2",
			Subject:  "Tiedote ilman linkkiä",
			Sender:   "Kanslia",
			IsUnread: true,
		},
	}
	require.Empty(t, cmp.Diff(expected, messages))
	require.True(t, tel.HasReport(telemetry.REPORT_COUNT, report_client_get_messages))

	again, err := client.GetMessages(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(messages, again))
}

func TestGetMessagesEmpty(t *testing.T) {
	portal := newFakePortal(t)
	portal.SetPage("/messages", fixture(t, "messages_empty.html"))
	client, tel := newTestClient(t)
	s := authenticatedSession(t, portal)

	messages, err := client.GetMessages(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, messages)
	require.Empty(t, messages)
	require.Empty(t, tel.Reports(telemetry.REPORT_BROKEN))
}

func TestGetMessagesWithoutSession(t *testing.T) {
	portal := newFakePortal(t)
	client, _ := newTestClient(t)
	s := newTestSession(t, portal)

	_, err := client.GetMessages(context.Background(), s)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Equal(t, 0, portal.Hits("/messages"))
}

func TestGetMessagesServerError(t *testing.T) {
	portal := newFakePortal(t)
	portal.Handle("/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client, tel := newTestClient(t)
	s := authenticatedSession(t, portal)

	_, err := client.GetMessages(context.Background(), s)
	require.ErrorIs(t, err, ErrFetchFailed)
	require.True(t, tel.HasReport(telemetry.REPORT_BROKEN, report_client_fetch))
}

func TestParseMessagesFallbackStrategy(t *testing.T) {
	messages, strategy := parseMessages(parseFixture(t, "messages_dock.html"))
	require.Equal(t, `table.dock tbody tr`, strategy)
	require.Equal(t, []Message{
		{
			Id:       "2002",
			Subject:  "Retki",
			Sender:   "Korhonen Kaisa",
			SentAt:   "5.9.2024",
			IsUnread: true,
		},
		{
			Id:      "2001",
			Subject: "Koe",
			Sender:  "Nieminen Niko",
			SentAt:  "4.9.2024",
		},
	}, messages)
}

func TestParseMessagesRowBoundaries(t *testing.T) {
	messages, strategy := parseMessages(parseFixture(t, "messages_boundaries.html"))
	require.Equal(t, `#message-list-table tbody tr`, strategy)
	require.Equal(t, []Message{
		{
			Id:      "msg-0",
			Subject: "Kolme solua",
		},
		{
			Id:      "3003",
			Subject: "Rivin linkki",
			Sender:  "Kanslia",
		},
	}, messages)
}

func TestParseMessagesNoRows(t *testing.T) {
	messages, strategy := parseMessages(parseFixture(t, "messages_empty.html"))
	require.Empty(t, strategy)
	require.Equal(t, []Message{}, messages)
}

func TestMessageId(t *testing.T) {
	require.Equal(t, "42", messageId("/messages/42"))
	require.Equal(t, "42", messageId("https://school.example/!0123/messages/42?printable"))
	require.Equal(t, "", messageId("/messages/compose"))
	require.Equal(t, "", messageId(""))
}

func TestMessageKey(t *testing.T) {
	linked := Message{Id: "1001", Subject: "Retki", Sender: "Kanslia"}
	require.True(t, linked.HasPortalId())
	require.Equal(t, "1001", linked.Key())

	first := Message{Id: "msg-0", Subject: "Tiedote", Sender: "Kanslia", SentAt: "2.9.2024"}
	shifted := first
	shifted.Id = "msg-1"
	require.False(t, first.HasPortalId())
	require.Equal(t, first.Key(), shifted.Key())

	other := Message{Id: "msg-0", Subject: "Toinen tiedote", Sender: "Kanslia", SentAt: "2.9.2024"}
	require.NotEqual(t, first.Key(), other.Key())
}

func TestGetMessagesExpiredSession(t *testing.T) {
	portal := newFakePortal(t)
	client, tel := newTestClient(t)
	s, err := RestoreSession(portal.URL(), "00000000000000000000000000000000")
	require.NoError(t, err)

	messages, err := client.GetMessages(context.Background(), s)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Nil(t, messages)
	require.Equal(t, messageNotAuthenticated, UserMessage(err))

	// redirected to the login form
	require.Equal(t, 1, portal.Hits("/messages"))
	require.Equal(t, 1, portal.Hits("/"))
	require.True(t, tel.HasReport(telemetry.REPORT_WARNING, report_client_fetch))
	require.False(t, tel.HasReport(telemetry.REPORT_COUNT, report_client_get_messages))
}

func TestGetMessagesLoginFormServedInPlace(t *testing.T) {
	portal := newFakePortal(t)
	portal.SetPage("/messages", fixture(t, "login_page.html"))
	client, _ := newTestClient(t)
	s := authenticatedSession(t, portal)

	_, err := client.GetMessages(context.Background(), s)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
