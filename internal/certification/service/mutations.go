package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"tierboard/internal/audit"
	"tierboard/internal/certification/models"
	"tierboard/internal/certification/resolve"
	dErrors "tierboard/pkg/domainerrors"
	"tierboard/pkg/requestcontext"
)

// resolveByTier collapses one employee's full history to the canonical record
// per tier, the shape the evaluator's chain check consumes.
func resolveByTier(history []models.Record) map[models.Tier]models.Record {
	byTier := make(map[models.Tier]models.Record, len(models.AllTiers))
	for _, r := range resolve.Resolve(history, resolve.KeyByEmployeeTier) {
		byTier[r.Tier] = r
	}
	return byTier
}

const dateLayout = "2006-01-02"

// AssignParams carries the employee profile for a new tier assignment.
type AssignParams struct {
	EmployeeNumber string
	Tier           models.Tier
	Name           string
	Facility       string
	Area           string
	JobTitle       string
	AssignedDate   time.Time // zero = now
}

// AssignTier creates the tier row that every later mutation operates on.
func (s *Service) AssignTier(ctx context.Context, p AssignParams) (models.Record, error) {
	switch {
	case p.EmployeeNumber == "":
		return models.Record{}, dErrors.New(dErrors.CodeBadRequest, "employee number is required")
	case p.Name == "":
		return models.Record{}, dErrors.New(dErrors.CodeBadRequest, "employee name is required")
	case !p.Tier.Valid():
		return models.Record{}, dErrors.Newf(dErrors.CodeBadRequest, "unknown tier %d", int(p.Tier))
	}
	if p.AssignedDate.IsZero() {
		p.AssignedDate = requestcontext.Now(ctx).UTC()
	}

	rec, err := s.records.Insert(ctx, models.Record{
		EmployeeNumber: p.EmployeeNumber,
		Tier:           p.Tier,
		Name:           p.Name,
		Facility:       p.Facility,
		Area:           p.Area,
		JobTitle:       p.JobTitle,
		AssignedDate:   p.AssignedDate,
		Approval:       models.ApprovalAwaiting,
	})
	if err != nil {
		return models.Record{}, storageErr(err)
	}

	s.metrics.IncrementMutation("assign")
	s.audit(ctx, rec, audit.ActionAssign, audit.Event{
		NewValue: rec.Tier.String(),
		Details:  "assigned to " + rec.Tier.String(),
	})
	return rec, nil
}

// ScheduleArtifact sets the scheduled date of one tier artifact. The key is
// checked against the fixed registry before any store access; per-tier
// membership is checked against the loaded record before the write.
func (s *Service) ScheduleArtifact(ctx context.Context, id int64, artifactKey string, date time.Time) error {
	if err := validArtifactKey(artifactKey); err != nil {
		return err
	}
	if date.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "schedule date is required")
	}

	rec, err := s.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}
	a, ok := models.LookupArtifact(rec.Tier, artifactKey)
	if !ok {
		return dErrors.Newf(dErrors.CodeBadRequest, "artifact %q does not belong to %s", artifactKey, rec.Tier)
	}

	if err := s.mutate(ctx, rec.ID, models.FieldSet{models.ScheduledField(a): date}); err != nil {
		return err
	}
	s.metrics.IncrementMutation("schedule")
	s.audit(ctx, rec, audit.ActionSchedule, audit.Event{
		Field:    a.ScheduledColumn,
		OldValue: formatDate(rec.ScheduledDate(a.Key)),
		NewValue: formatDate(date),
	})
	return nil
}

// CompleteArtifact stamps one artifact as completed. A zero date completes it
// at the request clock.
func (s *Service) CompleteArtifact(ctx context.Context, id int64, artifactKey string, date time.Time) error {
	if err := validArtifactKey(artifactKey); err != nil {
		return err
	}
	if date.IsZero() {
		date = requestcontext.Now(ctx).UTC()
	}

	rec, err := s.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}
	a, ok := models.LookupArtifact(rec.Tier, artifactKey)
	if !ok {
		return dErrors.Newf(dErrors.CodeBadRequest, "artifact %q does not belong to %s", artifactKey, rec.Tier)
	}

	if err := s.mutate(ctx, rec.ID, models.FieldSet{models.CompletedField(a): date}); err != nil {
		return err
	}
	s.metrics.IncrementMutation("complete")
	s.audit(ctx, rec, audit.ActionComplete, audit.Event{
		Field:    a.CompletedColumn,
		OldValue: formatDate(rec.CompletedDate(a.Key)),
		NewValue: formatDate(date),
	})
	return nil
}

// EditCompletedDate reopens a completed artifact: the new date lands in the
// scheduled column and the completed column is cleared, so the item shows as
// pending again rather than silently rewriting history.
func (s *Service) EditCompletedDate(ctx context.Context, id int64, artifactKey string, newDate time.Time) error {
	if err := validArtifactKey(artifactKey); err != nil {
		return err
	}
	if newDate.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "new date is required")
	}

	rec, err := s.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}
	a, ok := models.LookupArtifact(rec.Tier, artifactKey)
	if !ok {
		return dErrors.Newf(dErrors.CodeBadRequest, "artifact %q does not belong to %s", artifactKey, rec.Tier)
	}

	err = s.mutate(ctx, rec.ID, models.FieldSet{
		models.ScheduledField(a): newDate,
		models.CompletedField(a): nil,
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementMutation("edit_date")
	s.audit(ctx, rec, audit.ActionEditDate, audit.Event{
		Field:    a.CompletedColumn,
		OldValue: formatDate(rec.CompletedDate(a.Key)),
		NewValue: formatDate(newDate),
		Details:  "completion reopened",
	})
	return nil
}

// ApproveConference marks the conference outcome approved.
func (s *Service) ApproveConference(ctx context.Context, id int64) error {
	return s.setApproval(ctx, id, models.ApprovalApproved, audit.ActionApprove, "approve")
}

// RejectConference marks the conference outcome rejected. The row survives;
// rejection is a state, not a deletion.
func (s *Service) RejectConference(ctx context.Context, id int64) error {
	return s.setApproval(ctx, id, models.ApprovalRejected, audit.ActionReject, "reject")
}

func (s *Service) setApproval(ctx context.Context, id int64, state models.ApprovalState, action audit.Action, op string) error {
	rec, err := s.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.ConferenceCompletedDate.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "conference has not been completed")
	}

	if err := s.mutate(ctx, rec.ID, models.FieldSet{models.FieldAwaitingApproval: state}); err != nil {
		return err
	}
	s.metrics.IncrementMutation(op)
	s.audit(ctx, rec, action, audit.Event{
		Field:    string(models.FieldAwaitingApproval),
		OldValue: rec.Approval.String(),
		NewValue: state.String(),
	})
	return nil
}

// CompleteConference stamps the tier conference as held; approval stays
// awaiting until an explicit approve or reject.
func (s *Service) CompleteConference(ctx context.Context, id int64, date time.Time) error {
	if date.IsZero() {
		date = requestcontext.Now(ctx).UTC()
	}
	rec, err := s.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, rec.ID, models.FieldSet{
		models.FieldConferenceCompleted: date,
		models.FieldAwaitingApproval:    models.ApprovalAwaiting,
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementMutation("conference")
	s.audit(ctx, rec, audit.ActionComplete, audit.Event{
		Field:    string(models.FieldConferenceCompleted),
		OldValue: formatDate(rec.ConferenceCompletedDate),
		NewValue: formatDate(date),
		Details:  "conference completed",
	})
	return nil
}

// AwardTier awards the record's tier once the evaluator agrees it is ready.
func (s *Service) AwardTier(ctx context.Context, id int64) error {
	rec, err := s.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}

	history, err := s.records.TierHistory(ctx, rec.EmployeeNumber)
	if err != nil {
		return storageErr(err)
	}
	canonical := resolveByTier(history)
	if _, ok := s.eval.ReadyToAward(rec.Tier, canonical); !ok {
		return dErrors.Newf(dErrors.CodeBadRequest, "record is not ready for %s award", rec.Tier)
	}

	now := requestcontext.Now(ctx).UTC()
	err = s.mutate(ctx, rec.ID, models.FieldSet{
		models.FieldAwarded:     true,
		models.FieldAwardedDate: now,
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementMutation("award")
	s.metrics.IncrementAward(rec.Tier.String())
	s.audit(ctx, rec, audit.ActionAward, audit.Event{
		Field:    string(models.FieldAwardedDate),
		NewValue: formatDate(now),
	})
	return nil
}

// UpdateNotes replaces the record's free-text notes.
func (s *Service) UpdateNotes(ctx context.Context, id int64, text string) error {
	rec, err := s.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.mutate(ctx, rec.ID, models.FieldSet{models.FieldNotes: text}); err != nil {
		return err
	}
	s.metrics.IncrementMutation("notes")
	s.audit(ctx, rec, audit.ActionNotes, audit.Event{
		Field:    string(models.FieldNotes),
		OldValue: truncate(rec.Notes, 120),
		NewValue: truncate(text, 120),
	})
	return nil
}

// UpdateAdvisor points the record at an existing advisor.
func (s *Service) UpdateAdvisor(ctx context.Context, id int64, advisorID int64) error {
	rec, err := s.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}
	adv, err := s.advisors.GetAdvisor(ctx, advisorID)
	if err != nil {
		return notFoundOr(err, "advisor not found")
	}

	if err := s.mutate(ctx, rec.ID, models.FieldSet{models.FieldAdvisorID: adv.ID}); err != nil {
		return err
	}
	s.metrics.IncrementMutation("advisor")
	s.audit(ctx, rec, audit.ActionAdvisorAssigned, audit.Event{
		Field:    string(models.FieldAdvisorID),
		OldValue: formatAdvisorID(rec.AdvisorID),
		NewValue: strconv.FormatInt(adv.ID, 10),
		Details:  adv.FirstName + " " + adv.LastName,
	})
	return nil
}

// AddAdvisor creates an advisor for later assignment.
func (s *Service) AddAdvisor(ctx context.Context, firstName, lastName string) (models.Advisor, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return models.Advisor{}, dErrors.New(dErrors.CodeBadRequest, "advisor first and last name are required")
	}

	adv, err := s.advisors.AddAdvisor(ctx, models.Advisor{FirstName: firstName, LastName: lastName})
	if err != nil {
		return models.Advisor{}, storageErr(err)
	}
	s.metrics.IncrementMutation("advisor_added")
	s.recorder.Record(ctx, audit.Event{
		Action:   audit.ActionAdvisorAdded,
		NewValue: strconv.FormatInt(adv.ID, 10),
		Details:  adv.FirstName + " " + adv.LastName,
	})
	return adv, nil
}

// mutate runs a validated single-row write, translating store errors.
func (s *Service) mutate(ctx context.Context, id int64, fields models.FieldSet) error {
	if err := s.records.Mutate(ctx, id, fields); err != nil {
		return notFoundOr(err, "record not found")
	}
	return nil
}

// audit fills record identity into the event and appends it best-effort.
func (s *Service) audit(ctx context.Context, rec models.Record, action audit.Action, e audit.Event) {
	e.Action = action
	e.RecordID = rec.ID
	e.EmployeeNumber = rec.EmployeeNumber
	e.EmployeeName = rec.Name
	e.Tier = rec.Tier.String()
	s.recorder.Record(ctx, e)
}

// validArtifactKey rejects identifiers outside the global registry before any
// store access.
func validArtifactKey(key string) error {
	for _, a := range models.AllArtifacts() {
		if string(a.Key) == key {
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeBadRequest, "unknown artifact %q", key)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatAdvisorID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// truncate shortens audit values to at most n runes without splitting a
// multi-byte character.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
