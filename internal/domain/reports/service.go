package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hraccess/internal/domain/access"
)

type PermissionSource interface {
	User(ctx context.Context, userID string) (access.User, error)
	Resolve(ctx context.Context, userID string) (access.Permissions, error)
}

type Service struct {
	Source PermissionSource
	Now    func() time.Time
}

func NewService(source PermissionSource) *Service {
	return &Service{Source: source, Now: time.Now}
}

// PermissionReport renders a one-page PDF summary of a user's tier, overrides and
// effective features.
func (s *Service) PermissionReport(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.Source.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.Source.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return RenderPermissionReport(user, perms, now().UTC())
}

func RenderPermissionReport(user access.User, perms access.Permissions, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Permission Summary", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Permission Summary")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("User: %s <%s>", user.Name, user.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Level: %s", perms.Level.Label()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(10)

	overrides := access.NewSet(perms.Overrides...)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(90, 8, "Feature")
	pdf.Cell(40, 8, "Source")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, f := range perms.Effective.Features() {
		source := "level"
		if overrides.Has(f) {
			source = "override"
		}
		pdf.Cell(90, 7, f.Label())
		pdf.Cell(40, 7, source)
		pdf.Ln(7)
	}
	if perms.Effective.Empty() {
		pdf.Cell(0, 7, "No features granted")
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
