// Package prompts assembles natural-language prompt strings from structured
// form fields and keeps a history of saved prompts. Building is pure string
// work: no model is called here.
package prompts

import (
	"fmt"
	"strings"
)

// Build renders the detailed and concise prompt for the given fields.
func Build(req BuildRequest) BuildResult {
	language := req.Language
	if language == "" {
		language = "English"
	}
	return BuildResult{
		Detailed: buildDetailed(req, language),
		Concise:  buildConcise(req, language),
	}
}

func buildDetailed(req BuildRequest, language string) string {
	lines := []string{
		fmt.Sprintf("You are an expert. Create a %s.", req.Goal),
		fmt.Sprintf("Target audience: %s.", req.Audience),
		fmt.Sprintf("Tone: %s.", req.Tone),
		fmt.Sprintf("Language: %s.", language),
	}
	if req.Platform != "" {
		lines = append(lines, fmt.Sprintf("Platform: %s.", req.Platform))
	}
	if req.Brand != "" {
		lines = append(lines, fmt.Sprintf("Brand voice: %s.", req.Brand))
	}
	if req.Details != "" {
		lines = append(lines, fmt.Sprintf("Details: %s.", req.Details))
	}
	if req.Constraints != "" {
		lines = append(lines, fmt.Sprintf("Constraints: %s.", req.Constraints))
	}
	lines = append(lines, "Provide 3 variants when possible.")
	return strings.Join(lines, "\n")
}

func buildConcise(req BuildRequest, language string) string {
	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		goal = "content"
	}
	brand := strings.TrimSpace(req.Brand)
	platform := strings.TrimSpace(req.Platform)
	details := strings.TrimSpace(req.Details)
	constraints := strings.TrimSpace(req.Constraints)

	tone := fmt.Sprintf("TONE/VOICE: %s", strings.TrimSpace(req.Tone))
	if brand != "" {
		tone += " | Brand: " + brand
	}

	lines := []string{
		fmt.Sprintf("TASK: Create 3 variants of %s.", goal),
		fmt.Sprintf("AUDIENCE: %s", strings.TrimSpace(req.Audience)),
		tone,
		fmt.Sprintf("LANGUAGE: %s", language),
	}
	if platform != "" {
		lines = append(lines, fmt.Sprintf("PLATFORM: %s", platform))
	}
	if details != "" {
		lines = append(lines, fmt.Sprintf("PRODUCT/DETAILS: %s", details))
	}

	lines = append(lines, "CONSTRAINTS:")
	if constraints != "" {
		lines = append(lines, "- "+constraints)
	} else {
		lines = append(lines, "- Keep it concise and scroll-stopping.")
		if isInstagramCaption(goal) {
			lines = append(lines, "- End each caption with exactly 2 relevant hashtags.")
		}
	}

	lines = append(lines,
		"",
		outputFormat(goal),
		"",
		"QUALITY CHECK:",
		"- If any variant violates constraints, rewrite it before returning.",
	)
	return strings.Join(lines, "\n")
}

func isInstagramCaption(goal string) bool {
	g := strings.ToLower(goal)
	return strings.Contains(g, "instagram") && strings.Contains(g, "caption")
}

// outputFormat picks a strict output block matched to the goal so the model
// returns something the UI can render without cleanup.
func outputFormat(goal string) string {
	g := strings.ToLower(goal)
	switch {
	case strings.Contains(g, "instagram") && strings.Contains(g, "caption"):
		return "OUTPUT FORMAT (STRICT):\n" +
			"1) Caption 1: <text> #<tag1> #<tag2>\n" +
			"2) Caption 2: <text> #<tag1> #<tag2>\n" +
			"3) Caption 3: <text> #<tag1> #<tag2>"
	case strings.Contains(g, "email"):
		return "OUTPUT FORMAT (STRICT):\n" +
			"1) <subject line> (chars: ###)\n" +
			"2) <subject line> (chars: ###)\n" +
			"3) <subject line> (chars: ###)"
	case strings.Contains(g, "tiktok") && strings.Contains(g, "script"):
		return "OUTPUT FORMAT (STRICT):\n" +
			"1) Hook (≤8 words)\n" +
			"2) Beat 1 (5–7s)\n" +
			"3) Beat 2 (5–7s)\n" +
			"4) Beat 3 (3–5s)\n" +
			"5) CTA (1 line)\n" +
			"6) 2 hashtags"
	case strings.Contains(g, "blog") && strings.Contains(g, "outline"):
		return "OUTPUT FORMAT (STRICT):\n" +
			"H1 Title\n" +
			"H2 Sections (4–6)\n" +
			"Bullet points per section (3–5)"
	default:
		return "OUTPUT FORMAT (STRICT):\n" +
			"Return a numbered list of 3 variants:\n" +
			"1) ...\n" +
			"2) ...\n" +
			"3) ..."
	}
}
