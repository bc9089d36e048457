package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/moderation"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/notifications"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/spam"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/transcription"
)

type statusChange struct {
	trackID string
	from    enums.ModerationStatus
	to      enums.ModerationStatus
}

type fakeTracks struct {
	pending       []model.Track
	listErr       error
	statusErr     map[string]error
	verdictErr    map[string]error
	statusChanges []statusChange
	verdicts      map[string]enums.ModerationStatus
}

func (f *fakeTracks) ListPendingCheck(_ context.Context, _ int) ([]model.Track, error) {
	return f.pending, f.listErr
}

func (f *fakeTracks) SetStatus(_ context.Context, trackID string, from, to enums.ModerationStatus) error {
	if err := f.statusErr[trackID]; err != nil && to == enums.ModerationStatusChecking {
		return err
	}
	f.statusChanges = append(f.statusChanges, statusChange{trackID, from, to})
	return nil
}

func (f *fakeTracks) ApplyVerdict(_ context.Context, trackID string, status enums.ModerationStatus, _ float64, _ []string, _ string) error {
	if err := f.verdictErr[trackID]; err != nil {
		return err
	}
	if f.verdicts == nil {
		f.verdicts = map[string]enums.ModerationStatus{}
	}
	f.verdicts[trackID] = status
	return nil
}

type fakeQueue struct {
	entries []model.ReviewQueueEntry
	err     error
}

func (f *fakeQueue) Enqueue(_ context.Context, entry model.ReviewQueueEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeTranscriber struct {
	text    string
	failFor map[string]bool
	calls   []string
}

func (f *fakeTranscriber) TranscribeURL(_ context.Context, audioURL string) (transcription.Result, error) {
	f.calls = append(f.calls, audioURL)
	if f.failFor[audioURL] {
		return transcription.Result{}, transcription.ErrTranscription
	}
	return transcription.Result{Text: f.text}, nil
}

type fakeModerator struct {
	verdicts map[string]moderation.Verdict
	err      error
}

func (f *fakeModerator) Moderate(_ context.Context, transcript string, _ spam.Metadata) (moderation.Verdict, error) {
	if f.err != nil {
		return moderation.Verdict{}, f.err
	}
	if v, ok := f.verdicts[transcript]; ok {
		return v, nil
	}
	return moderation.Verdict{Status: enums.ModerationStatusClean, RecommendedAction: moderation.ActionApprove}, nil
}

type fakeNotifier struct {
	payloads []notifications.Payload
}

func (f *fakeNotifier) Dispatch(_ context.Context, p notifications.Payload) []notifications.ChannelResult {
	f.payloads = append(f.payloads, p)
	return nil
}

func track(id, url string) model.Track {
	return model.Track{
		ID:               id,
		UserID:           "user-" + id,
		Title:            "Track " + id,
		ArtistName:       "Artist",
		AudioURL:         url,
		ModerationStatus: enums.ModerationStatusPendingCheck,
	}
}

func newRunner(tracks *fakeTracks, queue *fakeQueue, tr *fakeTranscriber, mod *fakeModerator, notif *fakeNotifier, cfg Config) *Runner {
	r := NewRunner(Dependencies{
		Tracks:      tracks,
		ReviewQueue: queue,
		Transcriber: tr,
		Moderator:   mod,
		Notifier:    notif,
	}, cfg, zap.NewNop())
	r.sleep = func(context.Context, time.Duration) {}
	return r
}

func TestProcessBatchEmpty(t *testing.T) {
	r := newRunner(&fakeTracks{}, &fakeQueue{}, &fakeTranscriber{}, &fakeModerator{}, &fakeNotifier{},
		Config{TranscriptionEnabled: true})

	summary, err := r.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if summary != (Summary{}) {
		t.Errorf("summary = %+v, want zero", summary)
	}
}

func TestProcessBatchCleanTrack(t *testing.T) {
	tracks := &fakeTracks{pending: []model.Track{track("t1", "http://audio/t1")}}
	queue := &fakeQueue{}
	notif := &fakeNotifier{}
	r := newRunner(tracks, queue, &fakeTranscriber{text: "nice song"}, &fakeModerator{}, notif,
		Config{TranscriptionEnabled: true})

	summary, err := r.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if summary.Processed != 1 || summary.Flagged != 0 || summary.Errors != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if tracks.verdicts["t1"] != enums.ModerationStatusClean {
		t.Errorf("verdict = %q, want clean", tracks.verdicts["t1"])
	}
	if len(queue.entries) != 0 {
		t.Errorf("clean track was queued for review")
	}
	if len(notif.payloads) != 0 {
		t.Errorf("clean track triggered a notification")
	}
	// pending -> checking only; no revert
	if len(tracks.statusChanges) != 1 || tracks.statusChanges[0].to != enums.ModerationStatusChecking {
		t.Errorf("statusChanges = %+v", tracks.statusChanges)
	}
}

func TestProcessBatchFlaggedTrack(t *testing.T) {
	tracks := &fakeTracks{pending: []model.Track{track("t1", "http://audio/t1")}}
	queue := &fakeQueue{}
	notif := &fakeNotifier{}
	mod := &fakeModerator{verdicts: map[string]moderation.Verdict{
		"bad lyrics": {
			IsFlagged:         true,
			Confidence:        0.95,
			FlagReasons:       []string{"Hate content detected (confidence: 95.0%)"},
			Status:            enums.ModerationStatusFlagged,
			RecommendedAction: moderation.ActionReject,
		},
	}}
	r := newRunner(tracks, queue, &fakeTranscriber{text: "bad lyrics"}, mod, notif,
		Config{TranscriptionEnabled: true})

	summary, err := r.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if summary.Processed != 1 || summary.Flagged != 1 {
		t.Errorf("summary = %+v", summary)
	}

	if len(queue.entries) != 1 {
		t.Fatalf("queue entries = %d, want 1", len(queue.entries))
	}
	entry := queue.entries[0]
	if entry.Priority != enums.ReviewPriorityUrgent {
		t.Errorf("priority = %q, want urgent for 0.95 confidence", entry.Priority)
	}
	if entry.TrackID != "t1" {
		t.Errorf("entry.TrackID = %q", entry.TrackID)
	}

	if len(notif.payloads) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notif.payloads))
	}
	if notif.payloads[0].Type != enums.NotificationTrackFlagged {
		t.Errorf("notification type = %q", notif.payloads[0].Type)
	}
	if notif.payloads[0].UserID != "user-t1" {
		t.Errorf("notification user = %q", notif.payloads[0].UserID)
	}
}

func TestProcessBatchRevertsOnTranscriptionFailure(t *testing.T) {
	tracks := &fakeTracks{pending: []model.Track{
		track("t1", "http://audio/bad"),
		track("t2", "http://audio/good"),
	}}
	tr := &fakeTranscriber{text: "fine", failFor: map[string]bool{"http://audio/bad": true}}
	r := newRunner(tracks, &fakeQueue{}, tr, &fakeModerator{}, &fakeNotifier{},
		Config{TranscriptionEnabled: true})

	summary, err := r.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if summary.Processed != 1 || summary.Errors != 1 {
		t.Errorf("summary = %+v, want 1 processed 1 error", summary)
	}

	reverted := false
	for _, change := range tracks.statusChanges {
		if change.trackID == "t1" && change.from == enums.ModerationStatusChecking && change.to == enums.ModerationStatusPendingCheck {
			reverted = true
		}
	}
	if !reverted {
		t.Errorf("t1 was not reverted to pending_check: %+v", tracks.statusChanges)
	}
	if _, ok := tracks.verdicts["t1"]; ok {
		t.Error("failed track got a verdict")
	}
	if tracks.verdicts["t2"] != enums.ModerationStatusClean {
		t.Errorf("t2 verdict = %q, want clean", tracks.verdicts["t2"])
	}
}

func TestProcessBatchSkipsClaimedTracks(t *testing.T) {
	tracks := &fakeTracks{
		pending:   []model.Track{track("t1", "u1"), track("t2", "u2")},
		statusErr: map[string]error{"t1": postgres.ErrTrackStatusConflict},
	}
	r := newRunner(tracks, &fakeQueue{}, &fakeTranscriber{text: "ok"}, &fakeModerator{}, &fakeNotifier{},
		Config{TranscriptionEnabled: true})

	summary, err := r.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	// claimed track is neither processed nor an error
	if summary.Processed != 1 || summary.Errors != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestProcessBatchTranscriptionDisabled(t *testing.T) {
	tracks := &fakeTracks{pending: []model.Track{track("t1", "u1")}}
	tr := &fakeTranscriber{text: "should not be used"}
	r := newRunner(tracks, &fakeQueue{}, tr, &fakeModerator{}, &fakeNotifier{},
		Config{TranscriptionEnabled: false})

	summary, err := r.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if summary.Processed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(tr.calls) != 0 {
		t.Errorf("transcriber was called with transcription disabled")
	}
}

func TestProcessBatchEnqueueFailureDoesNotRevert(t *testing.T) {
	tracks := &fakeTracks{pending: []model.Track{track("t1", "u1")}}
	mod := &fakeModerator{verdicts: map[string]moderation.Verdict{
		"spam": {
			IsFlagged:   true,
			Confidence:  0.75,
			FlagReasons: []string{"Spam: Excessive URLs detected (8 links)"},
			Status:      enums.ModerationStatusFlagged,
		},
	}}
	r := newRunner(tracks, &fakeQueue{err: errors.New("db down")}, &fakeTranscriber{text: "spam"}, mod, &fakeNotifier{},
		Config{TranscriptionEnabled: true})

	summary, err := r.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if summary.Processed != 1 || summary.Flagged != 1 || summary.Errors != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if tracks.verdicts["t1"] != enums.ModerationStatusFlagged {
		t.Errorf("verdict = %q, want flagged", tracks.verdicts["t1"])
	}
}

func TestProcessBatchListError(t *testing.T) {
	tracks := &fakeTracks{listErr: errors.New("db down")}
	r := newRunner(tracks, &fakeQueue{}, &fakeTranscriber{}, &fakeModerator{}, &fakeNotifier{}, Config{})

	if _, err := r.ProcessBatch(context.Background()); err == nil {
		t.Fatal("expected error when listing fails")
	}
}

type fakeAudioResolver struct {
	refs []string
}

func (f *fakeAudioResolver) ResolveAudioURL(_ context.Context, ref string) (string, error) {
	f.refs = append(f.refs, ref)
	return "https://signed.example/" + ref, nil
}

func TestProcessBatchResolvesObjectKeyOverURL(t *testing.T) {
	keyed := track("t1", "https://cdn.example/t1.mp3")
	keyed.ObjectKey = "audio/t1.mp3"
	tracks := &fakeTracks{pending: []model.Track{keyed, track("t2", "https://cdn.example/t2.mp3")}}
	tr := &fakeTranscriber{text: "all fine"}
	resolver := &fakeAudioResolver{}
	r := newRunner(tracks, &fakeQueue{}, tr, &fakeModerator{}, &fakeNotifier{},
		Config{TranscriptionEnabled: true})
	r.resolver = resolver

	summary, err := r.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if summary.Processed != 2 {
		t.Fatalf("processed = %d, want 2", summary.Processed)
	}
	if len(resolver.refs) != 2 || resolver.refs[0] != "audio/t1.mp3" || resolver.refs[1] != "https://cdn.example/t2.mp3" {
		t.Errorf("resolved refs = %v", resolver.refs)
	}
	if len(tr.calls) != 2 || tr.calls[0] != "https://signed.example/audio/t1.mp3" {
		t.Errorf("transcriber calls = %v", tr.calls)
	}
}
