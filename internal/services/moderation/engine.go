package moderation

import (
	"context"
	"fmt"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/classifier"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/spam"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReview  Action = "review"
	ActionReject  Action = "reject"
)

type Strictness string

const (
	StrictnessLow    Strictness = "low"
	StrictnessMedium Strictness = "medium"
	StrictnessHigh   Strictness = "high"
)

// Threshold returns the minimum confidence at which findings turn into
// a flag. Low strictness flags only near-certain violations; high
// strictness flags even weak ones.
func (s Strictness) Threshold() float64 {
	switch s {
	case StrictnessLow:
		return 0.8
	case StrictnessHigh:
		return 0.4
	default:
		return 0.6
	}
}

type Verdict struct {
	IsFlagged         bool
	Confidence        float64
	FlagReasons       []string
	Status            enums.ModerationStatus
	RecommendedAction Action
}

type HarmClassifier interface {
	Check(ctx context.Context, text string) (classifier.Result, error)
}

type SpamDetector interface {
	Detect(text string, meta spam.Metadata) spam.Result
}

type Engine struct {
	classifier HarmClassifier
	spam       SpamDetector
	strictness Strictness
}

func NewEngine(harm HarmClassifier, spamDetector SpamDetector, strictness Strictness) *Engine {
	if strictness != StrictnessLow && strictness != StrictnessMedium && strictness != StrictnessHigh {
		strictness = StrictnessMedium
	}

	return &Engine{
		classifier: harm,
		spam:       spamDetector,
		strictness: strictness,
	}
}

// Moderate combines the harmful-content classifier and the spam
// heuristics into a single verdict. Confidence is the highest score
// across both checks; the strictness threshold decides whether the
// findings flag the track at all.
func (e *Engine) Moderate(ctx context.Context, transcription string, meta spam.Metadata) (Verdict, error) {
	if e.classifier == nil || e.spam == nil {
		return Verdict{}, fmt.Errorf("moderation engine is not fully wired")
	}

	flagReasons := []string{}
	maxConfidence := 0.0

	harm, err := e.classifier.Check(ctx, transcription)
	if err != nil {
		return Verdict{}, fmt.Errorf("check harmful content: %w", err)
	}

	if harm.Flagged {
		for _, finding := range harmFindings(harm) {
			flagReasons = append(flagReasons, fmt.Sprintf(
				"%s content detected (confidence: %.1f%%)", finding.label, finding.score*100,
			))
			if finding.score > maxConfidence {
				maxConfidence = finding.score
			}
		}
	}

	spamResult := e.spam.Detect(transcription, meta)
	if spamResult.IsSpam {
		for _, reason := range spamResult.Reasons {
			flagReasons = append(flagReasons, "Spam: "+reason)
		}
		if spamResult.Score > maxConfidence {
			maxConfidence = spamResult.Score
		}
	}

	isFlagged := len(flagReasons) > 0 && maxConfidence >= e.strictness.Threshold()

	action := ActionApprove
	if isFlagged {
		if maxConfidence >= 0.9 || harm.Categories.SexualMinors {
			action = ActionReject
		} else {
			action = ActionReview
		}
	}

	status := enums.ModerationStatusClean
	if isFlagged {
		status = enums.ModerationStatusFlagged
	}

	return Verdict{
		IsFlagged:         isFlagged,
		Confidence:        maxConfidence,
		FlagReasons:       flagReasons,
		Status:            status,
		RecommendedAction: action,
	}, nil
}

type harmFinding struct {
	label string
	score float64
}

func harmFindings(res classifier.Result) []harmFinding {
	findings := make([]harmFinding, 0, 8)
	add := func(flagged bool, label string, score float64) {
		if flagged {
			findings = append(findings, harmFinding{label: label, score: score})
		}
	}

	add(res.Categories.Sexual, "Sexual", res.CategoryScores.Sexual)
	add(res.Categories.Hate, "Hate", res.CategoryScores.Hate)
	add(res.Categories.Harassment, "Harassment", res.CategoryScores.Harassment)
	add(res.Categories.SelfHarm, "Self harm", res.CategoryScores.SelfHarm)
	add(res.Categories.SexualMinors, "Sexual / minors", res.CategoryScores.SexualMinors)
	add(res.Categories.HateThreatening, "Hate / threatening", res.CategoryScores.HateThreatening)
	add(res.Categories.ViolenceGraphic, "Violence / graphic", res.CategoryScores.ViolenceGraphic)
	add(res.Categories.Violence, "Violence", res.CategoryScores.Violence)

	return findings
}
