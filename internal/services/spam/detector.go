package spam

import (
	"fmt"
	"regexp"
	"strings"
)

// Detector scores transcription text plus track metadata against a set
// of fixed spam patterns. Scores accumulate per pattern and are capped
// at 1.0; anything at or above 0.5 counts as spam.
type Detector struct{}

type Metadata struct {
	Title       string
	Description string
	ArtistName  string
}

type Result struct {
	IsSpam  bool
	Score   float64
	Reasons []string
}

const spamThreshold = 0.5

var spamKeywords = []string{
	"click here", "buy now", "limited time", "act now", "call now",
	"free money", "make money fast", "get rich", "weight loss",
	"viagra", "cialis", "crypto", "bitcoin investment",
	"download here", "subscribe now", "follow for more",
	"link in bio", "check description", "promo code",
}

var (
	urlPattern   = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)
	capsPattern  = regexp.MustCompile(`[A-Z]`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	emojiPattern = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F700}-\x{1F77F}\x{1F780}-\x{1F7FF}\x{1F800}-\x{1F8FF}\x{1F900}-\x{1F9FF}\x{1FA00}-\x{1FA6F}\x{1FA70}-\x{1FAFF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}]`)
)

func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) Detect(text string, meta Metadata) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Reasons: []string{}}
	}

	reasons := []string{}
	score := 0.0

	lowerText := strings.ToLower(text)
	combined := strings.Join([]string{
		lowerText,
		strings.ToLower(meta.Title),
		strings.ToLower(meta.Description),
		strings.ToLower(meta.ArtistName),
	}, " ")

	// Pattern 1: excessive URLs across text and metadata.
	if urls := urlPattern.FindAllString(combined, -1); len(urls) > 5 {
		reasons = append(reasons, fmt.Sprintf("Excessive URLs detected (%d links)", len(urls)))
		score += 0.3
	}

	// Pattern 2: shouting. Only meaningful on longer text.
	if runes := []rune(text); len(runes) > 100 {
		caps := len(capsPattern.FindAllString(text, -1))
		if float64(caps)/float64(len(runes)) > 0.5 {
			reasons = append(reasons, "Excessive capitalization detected")
			score += 0.2
		}
	}

	// Pattern 3: a single word repeated over and over.
	if word, count := mostRepeatedWord(lowerText); count > 10 {
		reasons = append(reasons, fmt.Sprintf("Word %q repeated %d times", word, count))
		score += 0.25
	}

	// Pattern 4: known spam keywords in text or metadata.
	found := make([]string, 0, 4)
	for _, keyword := range spamKeywords {
		if strings.Contains(combined, keyword) {
			found = append(found, keyword)
		}
	}
	if len(found) > 3 {
		reasons = append(reasons, "Spam keywords found: "+strings.Join(found[:3], ", "))
		score += 0.3
	}

	// Pattern 5: emoji-heavy text.
	emojis := len(emojiPattern.FindAllString(text, -1))
	if float64(emojis)/float64(max(len([]rune(text)), 1)) > 0.2 {
		reasons = append(reasons, "Excessive emoji usage")
		score += 0.15
	}

	// Pattern 6: phone numbers sprinkled through the content.
	if phones := phonePattern.FindAllString(combined, -1); len(phones) > 2 {
		reasons = append(reasons, "Multiple phone numbers detected")
		score += 0.2
	}

	// Pattern 7: multiple email addresses.
	if emails := emailPattern.FindAllString(combined, -1); len(emails) > 3 {
		reasons = append(reasons, "Multiple email addresses detected")
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}

	return Result{
		IsSpam:  score >= spamThreshold,
		Score:   score,
		Reasons: reasons,
	}
}

// mostRepeatedWord counts words longer than three characters and
// returns the first word, in order of first appearance, that reaches
// the highest count.
func mostRepeatedWord(lowerText string) (string, int) {
	words := strings.Fields(lowerText)
	freq := make(map[string]int, len(words))
	order := make([]string, 0, len(words))

	for _, word := range words {
		if len([]rune(word)) <= 3 {
			continue
		}
		if _, seen := freq[word]; !seen {
			order = append(order, word)
		}
		freq[word]++
	}

	best := ""
	bestCount := 0
	for _, word := range order {
		if freq[word] > bestCount {
			best = word
			bestCount = freq[word]
		}
	}

	return best, bestCount
}
