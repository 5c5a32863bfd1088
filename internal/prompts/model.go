package prompts

import (
	"time"

	"github.com/google/uuid"
)

// BuildRequest holds the structured form fields a prompt is assembled from.
type BuildRequest struct {
	Audience    string `json:"audience" validate:"required"`
	Tone        string `json:"tone" validate:"required"`
	Goal        string `json:"goal" validate:"required"`
	Platform    string `json:"platform"`
	Language    string `json:"language"`
	Constraints string `json:"constraints"`
	Brand       string `json:"brand"`
	Details     string `json:"details"`
}

// BuildResult carries both renderings of the assembled prompt.
type BuildResult struct {
	Detailed string `json:"prompt"`
	Concise  string `json:"concise"`
}

// Entry is one saved prompt in the history log.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveRequest is the body of a save call.
type SaveRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}
