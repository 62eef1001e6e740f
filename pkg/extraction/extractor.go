package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/menta2k/viewfinder/pkg/client"
	"github.com/menta2k/viewfinder/pkg/types"
)

// DescribePrompt asks for a description of the outlined region
const DescribePrompt = `Describe what is contained inside the thick red line inside the image.
Give a short description, followed by a bullet point list with all important details.
Add web links with additional information for each bullet point items when available.
Choose Wikipedia if possible.
If there are details related to appointments, locations, addresses,
mention these explicitly`

// ContactCardQuestionPrompt asks whether a description looks like a business card
const ContactCardQuestionPrompt = `Does the following text contain information that looks like
a business card? Please answer only with yes or no.
Here is the text: %s`

// VCardPrompt asks for a VCARD rendering of a description
const VCardPrompt = `Please create a data structure in VCARD format.
Do not add any explanations. Instead, make sure that your answer only
contains the VCARD data structure, nothing else.
Use the information that follows after the colon: %s`

// TrackingMarker is the phrase tracking numbers follow on Deutsche Post labels
const TrackingMarker = "Sendungsinformationen"

// TrackingNumberPrompt asks for the 12 digit numbers after TrackingMarker
const TrackingNumberPrompt = `Does the following text contain the words Deutsche Post and does it also
include the word ` + TrackingMarker + `? if so, list all 12 digit numbers
that appear after ` + TrackingMarker + `. Answer only with the list of numbers.
If there is not at least one 12 digit number below the word ` + TrackingMarker + `
answer with: No 12 digit numbers found.
Add no additional information or explanations to your answer, just provide the list as
described or "No 12 digit numbers found" if not.
Use the information that follows after the colon: %s`

// trackingRE matches a run of exactly 12 digits, not 12 digits cut out
// of a longer number
var trackingRE = regexp.MustCompile(`(?:^|\D)(\d{12})(?:\D|$)`)

// Extractor describes annotated frames and pulls structured actions out of
// the descriptions
type Extractor struct {
	client client.VisionClient
	model  string
}

// NewExtractor creates an extractor that queries model through client
func NewExtractor(client client.VisionClient, model string) *Extractor {
	return &Extractor{client: client, model: model}
}

// Describe asks the model what lies inside the outlined region of the image
func (e *Extractor) Describe(ctx context.Context, imgB64 string) (string, error) {
	description, err := e.client.SimpleQuery(ctx, e.model, DescribePrompt, imgB64)
	if err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}
	return description, nil
}

// Extract runs the follow-up queries over a description. Actions come back
// in query order. Any failed query fails the whole extraction.
func (e *Extractor) Extract(ctx context.Context, description string) ([]types.Action, error) {
	actions := make([]types.Action, 0, 2)

	card, err := e.contactCard(ctx, description)
	if err != nil {
		return nil, err
	}
	if card != "" {
		actions = append(actions, types.Action{Kind: types.ContactCard, Payload: card})
	}

	number, err := e.trackingNumber(ctx, description)
	if err != nil {
		return nil, err
	}
	if number != "" {
		actions = append(actions, types.Action{Kind: types.TrackingNumber, Payload: number})
	}

	return actions, nil
}

// Run describes the image and extracts actions from the description
func (e *Extractor) Run(ctx context.Context, imgB64 string) (string, []types.Action, error) {
	description, err := e.Describe(ctx, imgB64)
	if err != nil {
		return "", nil, err
	}
	actions, err := e.Extract(ctx, description)
	if err != nil {
		return "", nil, err
	}
	return description, actions, nil
}

func (e *Extractor) contactCard(ctx context.Context, description string) (string, error) {
	answer, err := e.client.SimpleQuery(ctx, e.model, fmt.Sprintf(ContactCardQuestionPrompt, description), "")
	if err != nil {
		return "", fmt.Errorf("contact card check: %w", err)
	}
	if !IsYes(answer) {
		return "", nil
	}

	vcard, err := e.client.SimpleQuery(ctx, e.model, fmt.Sprintf(VCardPrompt, description), "")
	if err != nil {
		return "", fmt.Errorf("vcard extraction: %w", err)
	}
	return StripFences(vcard), nil
}

func (e *Extractor) trackingNumber(ctx context.Context, description string) (string, error) {
	answer, err := e.client.SimpleQuery(ctx, e.model, fmt.Sprintf(TrackingNumberPrompt, description), "")
	if err != nil {
		return "", fmt.Errorf("tracking number extraction: %w", err)
	}
	return FindTrackingNumber(answer), nil
}

// IsYes reports whether a yes/no answer contains "yes", ignoring case
func IsYes(answer string) bool {
	return strings.Contains(strings.ToLower(answer), "yes")
}

// StripFences removes ```vcard and ``` markers around a model answer
func StripFences(raw string) string {
	raw = strings.ReplaceAll(raw, "```vcard", "")
	raw = strings.ReplaceAll(raw, "```", "")
	return strings.TrimSpace(raw)
}

// FindTrackingNumber returns the first run of exactly 12 digits, or ""
func FindTrackingNumber(text string) string {
	m := trackingRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
