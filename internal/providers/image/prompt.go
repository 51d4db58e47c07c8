package image

import "strings"

const moodboardPromptPrefix = "Create a high-fashion editorial moodboard with these items on a clean white background: "

// BuildMoodboardPrompt renders the generation prompt for the given image URLs.
// Order is preserved and blank entries are skipped.
func BuildMoodboardPrompt(urls []string) string {
	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			kept = append(kept, u)
		}
	}
	return moodboardPromptPrefix + strings.Join(kept, "; ")
}
