package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/classifier"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/spam"
)

type fakeClassifier struct {
	result classifier.Result
	err    error
}

func (f *fakeClassifier) Check(_ context.Context, _ string) (classifier.Result, error) {
	return f.result, f.err
}

type fakeSpam struct {
	result spam.Result
}

func (f *fakeSpam) Detect(_ string, _ spam.Metadata) spam.Result {
	return f.result
}

func TestModerateCleanContent(t *testing.T) {
	engine := NewEngine(&fakeClassifier{}, &fakeSpam{}, StrictnessMedium)

	verdict, err := engine.Moderate(context.Background(), "a nice song", spam.Metadata{})
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if verdict.IsFlagged {
		t.Error("clean content flagged")
	}
	if verdict.Status != enums.ModerationStatusClean {
		t.Errorf("Status = %q, want clean", verdict.Status)
	}
	if verdict.RecommendedAction != ActionApprove {
		t.Errorf("RecommendedAction = %q, want approve", verdict.RecommendedAction)
	}
}

func TestModerateHarmfulContent(t *testing.T) {
	engine := NewEngine(&fakeClassifier{result: classifier.Result{
		Flagged: true,
		Categories: classifier.Categories{
			Hate: true,
		},
		CategoryScores: classifier.CategoryScores{
			Hate: 0.75,
		},
	}}, &fakeSpam{}, StrictnessMedium)

	verdict, err := engine.Moderate(context.Background(), "hateful rant", spam.Metadata{})
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if !verdict.IsFlagged {
		t.Fatal("expected flag")
	}
	if verdict.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75", verdict.Confidence)
	}
	if verdict.RecommendedAction != ActionReview {
		t.Errorf("RecommendedAction = %q, want review", verdict.RecommendedAction)
	}
	want := "Hate content detected (confidence: 75.0%)"
	if len(verdict.FlagReasons) != 1 || verdict.FlagReasons[0] != want {
		t.Errorf("FlagReasons = %v, want [%s]", verdict.FlagReasons, want)
	}
}

func TestModerateHighConfidenceRejects(t *testing.T) {
	engine := NewEngine(&fakeClassifier{result: classifier.Result{
		Flagged:        true,
		Categories:     classifier.Categories{Violence: true},
		CategoryScores: classifier.CategoryScores{Violence: 0.95},
	}}, &fakeSpam{}, StrictnessMedium)

	verdict, err := engine.Moderate(context.Background(), "violent content", spam.Metadata{})
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if verdict.RecommendedAction != ActionReject {
		t.Errorf("RecommendedAction = %q, want reject", verdict.RecommendedAction)
	}
}

func TestModerateSexualMinorsAlwaysRejects(t *testing.T) {
	// flagged below 0.9 but in the one category that always rejects
	engine := NewEngine(&fakeClassifier{result: classifier.Result{
		Flagged:        true,
		Categories:     classifier.Categories{SexualMinors: true},
		CategoryScores: classifier.CategoryScores{SexualMinors: 0.65},
	}}, &fakeSpam{}, StrictnessMedium)

	verdict, err := engine.Moderate(context.Background(), "bad", spam.Metadata{})
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if !verdict.IsFlagged {
		t.Fatal("expected flag")
	}
	if verdict.RecommendedAction != ActionReject {
		t.Errorf("RecommendedAction = %q, want reject", verdict.RecommendedAction)
	}
}

func TestModerateStrictnessThresholds(t *testing.T) {
	cases := []struct {
		strictness Strictness
		score      float64
		flagged    bool
	}{
		{StrictnessLow, 0.75, false},
		{StrictnessLow, 0.85, true},
		{StrictnessMedium, 0.55, false},
		{StrictnessMedium, 0.65, true},
		{StrictnessHigh, 0.35, false},
		{StrictnessHigh, 0.45, true},
	}

	for _, tc := range cases {
		engine := NewEngine(&fakeClassifier{result: classifier.Result{
			Flagged:        true,
			Categories:     classifier.Categories{Harassment: true},
			CategoryScores: classifier.CategoryScores{Harassment: tc.score},
		}}, &fakeSpam{}, tc.strictness)

		verdict, err := engine.Moderate(context.Background(), "text", spam.Metadata{})
		if err != nil {
			t.Fatalf("Moderate(%s, %v): %v", tc.strictness, tc.score, err)
		}
		if verdict.IsFlagged != tc.flagged {
			t.Errorf("strictness %s score %v: IsFlagged = %v, want %v",
				tc.strictness, tc.score, verdict.IsFlagged, tc.flagged)
		}
	}
}

func TestModerateSpamReasonsPrefixed(t *testing.T) {
	engine := NewEngine(&fakeClassifier{}, &fakeSpam{result: spam.Result{
		IsSpam:  true,
		Score:   0.7,
		Reasons: []string{"Excessive URLs detected (8 links)", "Excessive emoji usage"},
	}}, StrictnessMedium)

	verdict, err := engine.Moderate(context.Background(), "spammy", spam.Metadata{})
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if !verdict.IsFlagged {
		t.Fatal("expected flag")
	}
	for _, reason := range verdict.FlagReasons {
		if !strings.HasPrefix(reason, "Spam: ") {
			t.Errorf("reason %q missing Spam prefix", reason)
		}
	}
	if verdict.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", verdict.Confidence)
	}
}

func TestModerateClassifierError(t *testing.T) {
	wantErr := errors.New("api down")
	engine := NewEngine(&fakeClassifier{err: wantErr}, &fakeSpam{}, StrictnessMedium)

	_, err := engine.Moderate(context.Background(), "text", spam.Metadata{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want wrapped api error", err)
	}
}

func TestModerateFlaggingIsMonotonic(t *testing.T) {
	strictnesses := []Strictness{StrictnessLow, StrictnessMedium, StrictnessHigh}

	flaggedAt := func(strictness Strictness, score float64) bool {
		engine := NewEngine(&fakeClassifier{result: classifier.Result{
			Flagged:        true,
			Categories:     classifier.Categories{Harassment: true},
			CategoryScores: classifier.CategoryScores{Harassment: score},
		}}, &fakeSpam{}, strictness)

		verdict, err := engine.Moderate(context.Background(), "text", spam.Metadata{})
		if err != nil {
			t.Fatalf("Moderate(%s, %v): %v", strictness, score, err)
		}
		return verdict.IsFlagged
	}

	scores := make([]float64, 0, 20)
	for score := 0.05; score <= 1.0; score += 0.05 {
		scores = append(scores, score)
	}

	// Raising confidence never un-flags under a fixed strictness.
	for _, strictness := range strictnesses {
		prev := false
		for _, score := range scores {
			got := flaggedAt(strictness, score)
			if prev && !got {
				t.Errorf("strictness %s: flagged at lower confidence but not at %v", strictness, score)
			}
			prev = got
		}
	}

	// Tightening strictness never un-flags under a fixed confidence.
	for _, score := range scores {
		prev := false
		for _, strictness := range strictnesses {
			got := flaggedAt(strictness, score)
			if prev && !got {
				t.Errorf("confidence %v: flagged under looser strictness but not under %s", score, strictness)
			}
			prev = got
		}
	}
}
