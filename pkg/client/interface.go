package client

import (
	"context"
)

// VisionClient is a remote multimodal model. An empty imgB64 sends the
// prompt as text only.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
