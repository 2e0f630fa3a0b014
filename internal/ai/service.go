package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/akarpov87/invoicehub/internal/errs"
	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/akarpov87/invoicehub/internal/repository"
)

// insightsFallback is returned whenever the provider's insights payload
// cannot be used; the dashboard never fails over this secondary feature.
var insightsFallback = []string{"Unable to generate insights. Try again."}

// ParsedItem is one extracted line item. Numeric fields are permissive
// because providers return quantities as strings often enough.
type ParsedItem struct {
	Name      string        `json:"name"`
	Quantity  model.Numeric `json:"quantity"`
	UnitPrice model.Numeric `json:"unitPrice"`
}

// ParsedInvoice is the payload extracted from free text.
type ParsedInvoice struct {
	ClientName string       `json:"clientName"`
	Email      string       `json:"email"`
	Address    string       `json:"address"`
	Items      []ParsedItem `json:"items"`
}

// RecentInvoice is a dashboard row for one of the latest invoices.
type RecentInvoice struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoiceNumber"`
	Total         float64   `json:"total"`
	Status        string    `json:"status"`
	Date          time.Time `json:"date"`
}

// DashboardSummary aggregates the caller's invoices plus generated insights.
type DashboardSummary struct {
	TotalInvoices    int             `json:"totalInvoices"`
	PaidInvoices     int             `json:"paidInvoices"`
	UnpaidInvoices   int             `json:"unpaidInvoices"`
	TotalRevenue     float64         `json:"totalRevenue"`
	TotalOutstanding float64         `json:"totalOutstanding"`
	RecentInvoices   []RecentInvoice `json:"recentInvoices"`
	Insights         []string        `json:"insights"`
	SummaryText      string          `json:"summaryText"`
}

// Service implements the AI-assisted operations. Provider clients are
// injected, keyed by provider name.
type Service struct {
	providers map[string]Completer
	invoices  repository.InvoiceRepository
	log       *zap.Logger
}

// NewService constructs the AI service with explicit dependencies.
func NewService(providers map[string]Completer, invoices repository.InvoiceRepository, log *zap.Logger) *Service {
	return &Service{providers: providers, invoices: invoices, log: log}
}

func (s *Service) completer(provider string) (string, Completer, error) {
	if provider == "" {
		provider = ProviderGemini
	}
	provider = strings.ToLower(provider)
	c, ok := s.providers[provider]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown provider %q", errs.ErrValidation, provider)
	}
	return provider, c, nil
}

// ParseInvoiceText extracts structured invoice data from free text.
func (s *Service) ParseInvoiceText(ctx context.Context, text, provider string) (string, *ParsedInvoice, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil, fmt.Errorf("%w: text is required", errs.ErrValidation)
	}
	provider, c, err := s.completer(provider)
	if err != nil {
		return "", nil, err
	}

	prompt := fmt.Sprintf(`You are an expert invoice data extraction AI. Analyze the following text and extract invoice details.

Return ONLY this JSON:
{
  "clientName": "string",
  "email": "string | null",
  "address": "string | null",
  "items": [
    { "name": "string", "quantity": number, "unitPrice": number }
  ]
}

--- TEXT START ---
%s
--- TEXT END ---`, text)

	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", nil, err
	}

	var parsed ParsedInvoice
	if err := json.Unmarshal([]byte(StripFences(raw)), &parsed); err != nil {
		s.log.Warn("unparseable extraction payload", zap.String("provider", provider), zap.Error(err))
		return "", nil, fmt.Errorf("%w: AI returned invalid JSON", errs.ErrUpstream)
	}
	return provider, &parsed, nil
}

// GenerateReminder drafts a payment-reminder email for one owned invoice.
func (s *Service) GenerateReminder(ctx context.Context, userID, invoiceID uuid.UUID, provider string) (string, string, error) {
	provider, c, err := s.completer(provider)
	if err != nil {
		return "", "", err
	}

	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return "", "", err
	}
	if inv.UserID != userID {
		return "", "", errs.ErrNotOwner
	}

	clientName := inv.BillTo.ClientName
	if clientName == "" {
		clientName = "Client"
	}
	dueDate := "N/A"
	if inv.DueDate != nil {
		dueDate = inv.DueDate.Format("January 2, 2006")
	}

	prompt := fmt.Sprintf(`Write a friendly, concise reminder email for an overdue invoice.

Details:
- Client Name: %s
- Invoice Number: %s
- Amount Due: %.2f
- Due Date: %s

Rules:
- MUST start with a subject line.
- Tone: Friendly, professional, short.`, clientName, inv.InvoiceNumber, inv.Total, dueDate)

	email, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", "", err
	}
	return provider, email, nil
}

// DashboardSummary aggregates the user's invoices and asks the provider for
// 2-3 short insights. An empty invoice set short-circuits without an AI call,
// and a malformed insights payload degrades to a static fallback.
func (s *Service) DashboardSummary(ctx context.Context, userID uuid.UUID, provider string) (string, *DashboardSummary, error) {
	provider, c, err := s.completer(provider)
	if err != nil {
		return "", nil, err
	}

	invoices, err := s.invoices.ListAll(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if len(invoices) == 0 {
		return provider, &DashboardSummary{
			RecentInvoices: []RecentInvoice{},
			Insights:       []string{"No invoice data available to generate insights."},
		}, nil
	}

	sum := &DashboardSummary{TotalInvoices: len(invoices), RecentInvoices: []RecentInvoice{}}
	for _, inv := range invoices {
		if strings.EqualFold(inv.Status, model.StatusPaid) {
			sum.PaidInvoices++
			sum.TotalRevenue += inv.Total
		} else {
			sum.UnpaidInvoices++
			sum.TotalOutstanding += inv.Total
		}
	}
	recent := invoices
	if len(recent) > 5 {
		recent = recent[:5]
	}
	var recentRefs []string
	for _, inv := range recent {
		sum.RecentInvoices = append(sum.RecentInvoices, RecentInvoice{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Total:         inv.Total,
			Status:        inv.Status,
			Date:          inv.CreatedAt,
		})
		recentRefs = append(recentRefs, fmt.Sprintf("#%s (%s)", inv.InvoiceNumber, inv.Status))
	}

	sum.SummaryText = strings.TrimSpace(fmt.Sprintf(`Dashboard Summary:
- Total invoices: %d
- Paid invoices: %d
- Unpaid invoices: %d
- Total revenue: %.2f
- Outstanding amount: %.2f
- Recent: %s`,
		sum.TotalInvoices, sum.PaidInvoices, sum.UnpaidInvoices,
		sum.TotalRevenue, sum.TotalOutstanding, strings.Join(recentRefs, ", ")))

	prompt := fmt.Sprintf(`You are a friendly small-business financial analyst.
Provide 2-3 short, helpful insights based on this summary:

%s

Rules:
- No repeating numbers.
- Insights must be actionable, supportive, encouraging.
- Return EXACT JSON:
{
  "insights": ["string", "string", "string"]
}`, sum.SummaryText)

	sum.Insights = s.requestInsights(ctx, c, provider, prompt)
	return provider, sum, nil
}

// requestInsights never fails: any provider or parse problem yields the
// static fallback so the dashboard still renders.
func (s *Service) requestInsights(ctx context.Context, c Completer, provider, prompt string) []string {
	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		s.log.Warn("insights call failed", zap.String("provider", provider), zap.Error(err))
		return insightsFallback
	}
	var payload struct {
		Insights []string `json:"insights"`
	}
	if err := json.Unmarshal([]byte(StripFences(raw)), &payload); err != nil || len(payload.Insights) == 0 {
		s.log.Warn("malformed insights payload", zap.String("provider", provider), zap.Error(err))
		return insightsFallback
	}
	return payload.Insights
}

var fenceOpen = regexp.MustCompile("(?i)```json")

// StripFences removes Markdown code-fence decoration providers wrap around
// JSON payloads.
func StripFences(s string) string {
	s = fenceOpen.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
