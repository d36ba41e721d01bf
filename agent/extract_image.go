package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	imageVerbRe = regexp.MustCompile(`(?i)\b(create|generate|make|draw|paint|design|produce)\b`)
	imageNounRe = regexp.MustCompile(`(?i)\b(image|picture|photo|artwork|drawing|painting|illustration)\b`)

	imageWantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^i\s+want\s+to\s+(?:create|generate|make)\s+(?:a|an)?\s*(?:image|picture|photo)\b`),
		regexp.MustCompile(`(?i)^i(?:'d| would)\s+like\s+(?:an?\s+)?(?:image|picture|photo)\b`),
		regexp.MustCompile(`(?i)^can\s+you\s+(?:create|generate|make|draw)\b`),
	}

	// Leading creation-verb phrases stripped from the prompt, in order.
	imageLeadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:please\s+)?(?:can\s+you\s+|could\s+you\s+)?i?\s*(?:want\s+to\s+|would\s+like\s+to\s+|'d\s+like\s+to\s+)?(?:create|generate|make|draw|paint|design|produce)\s+(?:me\s+)?(?:(?:an|a|the)\s+)?(?:new\s+)?(?:image|picture|photo|artwork|drawing|painting|illustration)?\s*(?:of|showing|depicting|with|that\s+shows)?\s*`),
		regexp.MustCompile(`(?i)^(?:an?\s+)?(?:image|picture|photo)\s+(?:of|showing|depicting)\s+`),
	}

	// Trailing clauses dropped from the prompt: style, size, quality, count.
	imageTailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*,?\s+in\s+(?:a\s+)?\w+(?:\s+\w+)?\s+style\s*$`),
		regexp.MustCompile(`(?i)\s*,?\s+(?:with\s+)?(?:size\s+)?\d{2,4}\s*[xX]\s*\d{2,4}\s*$`),
		regexp.MustCompile(`(?i)\s*,?\s+(?:in\s+)?(?:high|low|best)\s+(?:quality|resolution)\s*$`),
		regexp.MustCompile(`(?i)\s*,?\s+\d+\s+(?:images|pictures|photos|versions)\s*$`),
	}

	imageCountRe = regexp.MustCompile(`(?i)\b(\d+)\s+(?:images|pictures|photos)\b`)
	imageSizeRe  = regexp.MustCompile(`\b(\d{2,4})\s*[xX]\s*(\d{2,4})\b`)
)

// styleKeywords maps first-match keywords to a canonical style. Order
// matters: more specific entries come first.
var styleKeywords = []struct {
	keyword string
	style   string
}{
	{"photorealistic", "realistic"},
	{"photographic", "realistic"},
	{"realistic", "realistic"},
	{"cartoon", "cartoon"},
	{"anime", "cartoon"},
	{"oil painting", "oil painting"},
	{"watercolor", "watercolor"},
	{"sketch", "sketch"},
	{"pencil", "sketch"},
	{"digital art", "digital art"},
	{"abstract", "abstract"},
	{"cyberpunk", "cyberpunk"},
	{"minimalist", "minimalist"},
}

const defaultImageStyle = "realistic"

// imageExtractor recognizes image-creation requests phrased with an
// explicit creation verb and image noun. It only claims the turn when a
// usable prompt survives stripping; otherwise the chain continues.
type imageExtractor struct{}

func (imageExtractor) Name() string { return "image_regex" }

func (imageExtractor) TryExtract(_ context.Context, text string, _ SessionEntry) (*IntentRecord, error) {
	if !imageIntentTriggered(text) {
		return nil, nil
	}
	prompt := ExtractImagePrompt(text)
	if len(prompt) <= 2 {
		return nil, nil
	}

	rec := IntentRecord{
		Category:   CategoryImageCreate,
		Confidence: 0.9,
		Parameters: Params{
			"prompt":     prompt,
			"style":      DetectImageStyle(text),
			"num_images": extractImageCount(text),
			"size":       extractImageSize(text),
		},
		ReplyText: fmt.Sprintf("I'll create an image of %s for you.", prompt),
	}
	return &rec, nil
}

func imageIntentTriggered(text string) bool {
	if imageVerbRe.MatchString(text) && imageNounRe.MatchString(text) {
		return true
	}
	for _, re := range imageWantPatterns {
		if re.MatchString(strings.TrimSpace(text)) {
			return true
		}
	}
	return false
}

// ExtractImagePrompt strips leading creation phrasing and trailing
// style/size/quality/count clauses, leaving the subject to render.
func ExtractImagePrompt(text string) string {
	prompt := strings.TrimSpace(text)
	for _, re := range imageLeadPatterns {
		prompt = strings.TrimSpace(re.ReplaceAllString(prompt, ""))
	}
	for changed := true; changed; {
		changed = false
		for _, re := range imageTailPatterns {
			next := strings.TrimSpace(re.ReplaceAllString(prompt, ""))
			if next != prompt {
				prompt = next
				changed = true
			}
		}
	}
	return strings.Trim(prompt, " .,!?")
}

// DetectImageStyle returns the first style keyword found in the text, or
// the realistic default.
func DetectImageStyle(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range styleKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.style
		}
	}
	return defaultImageStyle
}

// extractImageCount clamps the requested count to [1,4]. Generation and
// delivery handle one image per turn; the dispatcher surfaces the
// limitation when the count exceeds that.
func extractImageCount(text string) int {
	m := imageCountRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	if n < 1 {
		return 1
	}
	if n > 4 {
		return 4
	}
	return n
}

func extractImageSize(text string) string {
	m := imageSizeRe.FindStringSubmatch(text)
	if len(m) < 3 {
		return "1024x1024"
	}
	return m[1] + "x" + m[2]
}
