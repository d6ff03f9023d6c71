package wilma

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"wilma-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type Message struct {
	Id      string
	Subject string
	Sender  string
	// SentAt is the timestamp exactly as displayed by the portal.
	SentAt   string
	IsUnread bool
}

const placeholderPrefix = "msg-"

// HasPortalId is false for placeholder ids, those depend on the position of
// the row in the listing.
func (m Message) HasPortalId() bool {
	return m.Id != "" && !strings.HasPrefix(m.Id, placeholderPrefix)
}

// Key identifies a message across listings, messages without a portal id
// are keyed by their visible fields.
func (m Message) Key() string {
	if m.HasPortalId() {
		return m.Id
	}
	return strings.Join([]string{m.Subject, m.Sender, m.SentAt}, "\x00")
}

// rowStrategy finds the candidate message rows of a listing page.
type rowStrategy struct {
	name string
	rows func(doc *goquery.Document) *goquery.Selection
}

func selectorStrategy(selector string) rowStrategy {
	return rowStrategy{
		name: selector,
		rows: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find(selector)
		},
	}
}

// the portal has shipped several listing layouts, the first strategy that
// finds any row wins
var rowStrategies = []rowStrategy{
	selectorStrategy(`#message-list-table tbody tr`),
	selectorStrategy(`#message-list-table tr[class*="message"]`),
	selectorStrategy(`table.dock tbody tr`),
	selectorStrategy(`tr[data-href]`),
	selectorStrategy(`.index-table tbody tr`),
}

var messageIdRegex = regexp.MustCompile(`/messages/(\d+)`)

func messageId(href string) string {
	groups := messageIdRegex.FindStringSubmatch(href)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

// parseMessageRow returns false for rows that are not messages. placeholder
// is used as the id when the row has no message link.
func parseMessageRow(row *goquery.Selection, placeholder string) (Message, bool) {
	cells := row.Find("td")
	if cells.Length() < 3 {
		return Message{}, false
	}

	msg := Message{}

	subjectCell := cells.Eq(2)
	link := subjectCell.Find("a").First()
	if link.Length() > 0 {
		msg.Subject = htmlutil.Text(link)
	} else {
		msg.Subject = htmlutil.Text(subjectCell)
	}
	href, _ := link.Attr("href")
	msg.Id = messageId(href)
	if msg.Id == "" {
		rowHref, _ := row.Attr("data-href")
		msg.Id = messageId(rowHref)
	}
	if msg.Id == "" {
		msg.Id = placeholder
	}

	if cells.Length() >= 5 {
		msg.Sender = htmlutil.Text(cells.Eq(4))
	}
	if cells.Length() >= 6 {
		msg.SentAt = htmlutil.Text(cells.Eq(5))
	}

	statusCell := cells.Eq(1)
	msg.IsUnread = row.HasClass("unread") ||
		row.HasClass("new") ||
		statusCell.Find(".vismaicon-envelope-closed").Length() > 0 ||
		statusCell.Find(`[class*="unread"]`).Length() > 0

	if msg.Subject == "" && msg.Sender == "" {
		return Message{}, false
	}
	return msg, true
}

// parseMessages returns the messages of a listing page in portal order and
// the name of the strategy that matched, empty if none did.
func parseMessages(doc *goquery.Document) ([]Message, string) {
	for _, strategy := range rowStrategies {
		rows := strategy.rows(doc)
		if rows.Length() == 0 {
			continue
		}

		messages := []Message{}
		rows.Each(func(_ int, row *goquery.Selection) {
			msg, ok := parseMessageRow(row, fmt.Sprintf("%s%d", placeholderPrefix, len(messages)))
			if ok {
				messages = append(messages, msg)
			}
		})
		return messages, strategy.name
	}
	return []Message{}, ""
}

// GetMessages lists the messages on the first page of the inbox, an empty
// list is not an error.
func (c *Client) GetMessages(ctx context.Context, s *Session) ([]Message, error) {
	inbox, err := c.fetch(ctx, s, "/messages")
	if err != nil {
		return nil, fmt.Errorf("wilma: get messages: %w", err)
	}

	messages, strategy := parseMessages(inbox.doc)
	if strategy == "" {
		c.tel.ReportDebug("no message rows found")
	} else {
		c.tel.ReportDebug("message rows found", "strategy", strategy, "count", len(messages))
	}
	c.tel.ReportCount(report_client_get_messages, int64(len(messages)))
	return messages, nil
}
