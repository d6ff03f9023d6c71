package wilma

import (
	"context"
	"fmt"
	"strings"
	"wilma-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const minStudentIdLength = 40

type Identity struct {
	StudentID   string
	DisplayName string
	SchoolName  string
}

// parseIdentity reads the identity out of the home page, the display and
// school names are optional.
func parseIdentity(doc *goquery.Document) (Identity, error) {
	formId, exists := doc.Find("#formid").First().Attr("value")
	if !exists {
		return Identity{}, ErrNotAuthenticated
	}
	formId = strings.TrimSpace(formId)
	if len(formId) < minStudentIdLength {
		return Identity{}, fmt.Errorf("%w: length %d", ErrIdentifierMissing, len(formId))
	}

	return Identity{
		StudentID:   formId,
		DisplayName: htmlutil.Text(doc.Find("span.teacher").First()),
		SchoolName:  htmlutil.Text(doc.Find("span.school").First()),
	}, nil
}

// ResolveIdentity reads the student identifier and names from the home page
// and stores them on the session.
func (c *Client) ResolveIdentity(ctx context.Context, s *Session) (Identity, error) {
	identityError := func(err error) error {
		return fmt.Errorf("wilma: resolve identity: %w", err)
	}

	home, err := c.fetch(ctx, s, "/")
	if err != nil {
		return Identity{}, identityError(err)
	}

	identity, err := parseIdentity(home.doc)
	if err != nil {
		c.tel.ReportWarning(report_client_resolve_identity, err)
		return Identity{}, identityError(err)
	}
	if identity.DisplayName == "" {
		c.tel.ReportDebug("home page has no display name")
	}

	s.StudentID = identity.StudentID
	s.DisplayName = identity.DisplayName
	s.SchoolName = identity.SchoolName
	return identity, nil
}
