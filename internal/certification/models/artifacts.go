package models

// ArtifactKey identifies one training artifact (a video or session) within a
// tier. The set of keys per tier is closed: these identifiers, and nothing
// else, are accepted from callers for scheduling and completion. Anything
// outside the registry is rejected before storage is touched; this is the sole
// injection defense for dynamically-selected fields and must not be bypassed.
type ArtifactKey string

// Artifact pairs an artifact key with its fixed storage column identifiers.
// Caller-supplied names are mapped through this table; they are never
// concatenated into a query.
type Artifact struct {
	Key             ArtifactKey
	ScheduledColumn string
	CompletedColumn string
}

const (
	ArtifactOrientationSession ArtifactKey = "orientationSession"
	ArtifactSafetyVideo        ArtifactKey = "safetyVideo"
	ArtifactStandingVideo      ArtifactKey = "standingVideo"
	ArtifactSleepingVideo      ArtifactKey = "sleepingVideo"
	ArtifactFeedGradVideo      ArtifactKey = "feedGradVideo"
	ArtifactAdvancedSession    ArtifactKey = "advancedSession"
	ArtifactMentorReview       ArtifactKey = "mentorReview"
	ArtifactConsultCase        ArtifactKey = "consultCase"
	ArtifactCoachSeminar       ArtifactKey = "coachSeminar"
)

var tierArtifacts = map[Tier][]Artifact{
	Tier1: {
		{ArtifactOrientationSession, "orientation_session_scheduled", "orientation_session_completed"},
		{ArtifactSafetyVideo, "safety_video_scheduled", "safety_video_completed"},
	},
	Tier2: {
		{ArtifactStandingVideo, "standing_video_scheduled", "standing_video_completed"},
		{ArtifactSleepingVideo, "sleeping_video_scheduled", "sleeping_video_completed"},
		{ArtifactFeedGradVideo, "feed_grad_video_scheduled", "feed_grad_video_completed"},
	},
	Tier3: {
		{ArtifactAdvancedSession, "advanced_session_scheduled", "advanced_session_completed"},
		{ArtifactMentorReview, "mentor_review_scheduled", "mentor_review_completed"},
	},
	Tier4: {
		{ArtifactConsultCase, "consult_case_scheduled", "consult_case_completed"},
	},
	Tier5: {
		{ArtifactCoachSeminar, "coach_seminar_scheduled", "coach_seminar_completed"},
	},
}

// ArtifactsFor returns the closed artifact set for a tier, in registry order.
// Registry order is significant: the resolver's activity timestamp compares
// completed-artifact dates in this order.
func ArtifactsFor(t Tier) []Artifact {
	return tierArtifacts[t]
}

// LookupArtifact resolves a caller-supplied artifact identifier against the
// tier's registry. ok is false for anything outside the closed set.
func LookupArtifact(t Tier, key string) (Artifact, bool) {
	for _, a := range tierArtifacts[t] {
		if string(a.Key) == key {
			return a, true
		}
	}
	return Artifact{}, false
}

// AllArtifacts returns the registry for every tier; the relational schema has
// one nullable column pair per artifact regardless of tier.
func AllArtifacts() []Artifact {
	out := make([]Artifact, 0, 9)
	for _, t := range AllTiers {
		out = append(out, tierArtifacts[t]...)
	}
	return out
}
