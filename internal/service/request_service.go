package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"opsportal/internal/advisory"
	"opsportal/internal/metrics"
	"opsportal/internal/model"
	"opsportal/internal/notify"
	"opsportal/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Lifecycle events published to the realtime feed.
const (
	EventRequestSubmitted = "request.submitted"
	EventRequestDecided   = "request.decided"
	EventRequestDeleted   = "request.deleted"
)

// --- Collaborators ---

// Advisor is the advisory classifier. A false result means unavailable.
type Advisor interface {
	SuggestUrgency(ctx context.Context, text string) (advisory.UrgencyEstimate, bool)
	DraftApprovalNotes(ctx context.Context, nc advisory.NotesContext) (string, bool)
}

// Notifier delivers text messages. It never returns an error.
type Notifier interface {
	Notify(ctx context.Context, to, body string) notify.Result
	NotifyAll(ctx context.Context, recipients []string, body string) []notify.Result
}

// EventPublisher fans lifecycle events out to live subscribers. Publish must not block.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

// --- Interface ---

// RequestService drives a request from submission to decision.
type RequestService interface {
	// Submit persists a new Pending request. requester is nil for public forms.
	Submit(ctx context.Context, req model.Request, requester *model.User) (model.Request, error)
	// Decide moves a Pending request to Approved or Rejected. Deciding an
	// already decided request returns its current state unchanged.
	Decide(ctx context.Context, kind model.Kind, id uuid.UUID, decision model.Status, notes string, decidedBy uuid.UUID) (model.Request, error)
	Get(ctx context.Context, kind model.Kind, id uuid.UUID) (model.Request, error)
	List(ctx context.Context, kind model.Kind, filter repository.RequestFilter) ([]model.Request, int64, error)
	Delete(ctx context.Context, kind model.Kind, id uuid.UUID, deletedBy uuid.UUID) error
}

type RequestServiceDeps struct {
	Requests repository.RequestRepository
	Users    repository.UserRepository
	Audit    repository.AuditRepository
	Tx       repository.TransactionManager

	Advisor   Advisor
	Notifier  Notifier
	Publisher EventPublisher // optional
	Logger    logrus.FieldLogger

	// AdminPhones receive submission alerts in addition to admin users.
	AdminPhones []string
	Now         func() time.Time
}

type requestService struct {
	requests    repository.RequestRepository
	users       repository.UserRepository
	audit       repository.AuditRepository
	tx          repository.TransactionManager
	advisor     Advisor
	notifier    Notifier
	publisher   EventPublisher
	log         logrus.FieldLogger
	adminPhones []string
	now         func() time.Time
}

func NewRequestService(d RequestServiceDeps) RequestService {
	s := &requestService{
		requests:    d.Requests,
		users:       d.Users,
		audit:       d.Audit,
		tx:          d.Tx,
		advisor:     d.Advisor,
		notifier:    d.Notifier,
		publisher:   d.Publisher,
		log:         d.Logger,
		adminPhones: d.AdminPhones,
		now:         d.Now,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.advisor == nil {
		s.advisor = advisory.Disabled(s.log)
	}
	if s.notifier == nil {
		s.notifier = notify.Disabled(s.log)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// --- Implementation ---

func (s *requestService) Submit(ctx context.Context, req model.Request, requester *model.User) (model.Request, error) {
	h := req.Base()
	h.ID = uuid.New()
	h.SubmittedAt = s.timestamp()
	h.Status = model.StatusPending
	h.ReviewedAt = nil
	h.ReviewedBy = nil
	h.AdminNotes = ""
	h.RequesterID = nil
	if requester != nil {
		id := requester.ID
		h.RequesterID = &id
	}
	urgency, err := model.ParseUrgency(string(h.Urgency))
	if err != nil {
		return nil, err
	}
	h.Urgency = urgency

	if err := req.Prepare(); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"kind": req.Kind(), "request_id": h.ID})

	if text := req.ClassificationText(); text != "" {
		if est, ok := s.advisor.SuggestUrgency(ctx, text); ok {
			log.WithFields(logrus.Fields{
				"requested_urgency": h.Urgency,
				"urgency":           est.Urgency,
				"confidence":        est.Confidence,
			}).Info("urgency set by classifier")
			h.Urgency = est.Urgency
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, req); err != nil {
			return err
		}
		return s.audit.Log(txCtx, auditEntry(h.RequesterID, model.ActionSubmitRequest, req, map[string]interface{}{
			"urgency": h.Urgency,
			"summary": req.Summary().Subject,
		}))
	})
	if err != nil {
		err = storeError("persist request", err)
		log.WithError(err).Error("submission failed")
		return nil, err
	}

	metrics.RecordSubmission(string(req.Kind()))
	log.WithField("urgency", h.Urgency).Info("request submitted")

	s.alertAdmins(ctx, req, requester)
	s.publish(EventRequestSubmitted, req)
	return req, nil
}

func (s *requestService) Decide(ctx context.Context, kind model.Kind, id uuid.UUID, decision model.Status, notes string, decidedBy uuid.UUID) (model.Request, error) {
	if !decision.IsTerminal() {
		return nil, &model.ValidationError{Field: "decision", Reason: "must be Approved or Rejected"}
	}

	req, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"kind": kind, "request_id": id, "decision": decision})

	if req.Base().Status != model.StatusPending {
		metrics.RecordDecision(string(kind), string(decision), metrics.ResultNoop)
		log.WithField("status", req.Base().Status).Info("request already decided")
		return req, nil
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		sum := req.Summary()
		if drafted, ok := s.advisor.DraftApprovalNotes(ctx, advisory.NotesContext{
			Kind:       kind.Label(),
			Subject:    sum.Subject,
			Amount:     sum.Amount,
			Department: sum.Department,
		}); ok {
			notes = drafted
		}
	}

	var won bool
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		won, err = s.requests.TransitionFromPending(txCtx, kind, id, repository.Transition{
			Status:     decision,
			ReviewedAt: s.timestamp(),
			ReviewedBy: decidedBy,
			AdminNotes: notes,
		})
		if err != nil || !won {
			return err
		}
		reviewer := decidedBy
		return s.audit.Log(txCtx, auditEntry(&reviewer, model.DecisionAction(decision), req, map[string]interface{}{
			"status": decision,
			"notes":  notes,
		}))
	})
	if err != nil {
		err = storeError("record decision", err)
		log.WithError(err).Error("decision failed")
		return nil, err
	}

	fresh, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if !won {
		metrics.RecordDecision(string(kind), string(decision), metrics.ResultNoop)
		log.WithField("status", fresh.Base().Status).Info("lost decision race; returning current state")
		return fresh, nil
	}

	metrics.RecordDecision(string(kind), string(decision), metrics.ResultTransitioned)
	log.Info("request decided")

	s.notifyRequester(ctx, fresh)
	s.publish(EventRequestDecided, fresh)
	return fresh, nil
}

func (s *requestService) Get(ctx context.Context, kind model.Kind, id uuid.UUID) (model.Request, error) {
	req, err := s.requests.FindByID(ctx, kind, id)
	if err != nil {
		return nil, storeError("load request", err)
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, kind model.Kind, filter repository.RequestFilter) ([]model.Request, int64, error) {
	if filter.Status != "" && filter.Status != model.StatusPending && !filter.Status.IsTerminal() {
		return nil, 0, &model.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", filter.Status)}
	}
	rows, total, err := s.requests.List(ctx, kind, filter)
	if err != nil {
		return nil, 0, storeError("list requests", err)
	}
	return rows, total, nil
}

func (s *requestService) Delete(ctx context.Context, kind model.Kind, id uuid.UUID, deletedBy uuid.UUID) error {
	var deleted model.Request
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.requests.FindByID(txCtx, kind, id)
		if err != nil {
			return err
		}
		if err := s.requests.Delete(txCtx, kind, id); err != nil {
			return err
		}
		deleted = req
		actor := deletedBy
		return s.audit.Log(txCtx, auditEntry(&actor, model.ActionDeleteRequest, req, map[string]interface{}{
			"status": req.Base().Status,
		}))
	})
	if err != nil {
		return storeError("delete request", err)
	}
	s.log.WithFields(logrus.Fields{"kind": kind, "request_id": id}).Info("request deleted")
	s.publish(EventRequestDeleted, deleted)
	return nil
}

// --- Side effects ---

func (s *requestService) alertAdmins(ctx context.Context, req model.Request, requester *model.User) {
	recipients := append([]string(nil), s.adminPhones...)
	if s.users != nil {
		admins, err := s.users.ListAdmins(ctx)
		if err != nil {
			s.log.WithError(err).Warn("failed to load admin recipients")
		}
		for _, a := range admins {
			recipients = append(recipients, a.Phone)
		}
	}

	submitter := req.Contact().Name
	if requester != nil {
		submitter = requester.Username
	}
	s.notifier.NotifyAll(ctx, recipients, notify.SubmissionAlert(req.Kind(), submitter))
}

func (s *requestService) notifyRequester(ctx context.Context, req model.Request) {
	h := req.Base()
	phone := req.Contact().Phone
	if h.RequesterID != nil && s.users != nil {
		user, err := s.users.GetByID(ctx, *h.RequesterID)
		if err != nil {
			s.log.WithError(err).WithField("request_id", h.ID).Warn("failed to load requester for notification")
		} else {
			phone = user.Phone
		}
	}
	s.notifier.Notify(ctx, phone, notify.DecisionNotice(req.Kind(), h.Status))
}

func (s *requestService) publish(event string, req model.Request) {
	if s.publisher == nil || req == nil {
		return
	}
	h := req.Base()
	s.publisher.Publish(event, map[string]interface{}{
		"kind":    req.Kind(),
		"id":      h.ID,
		"status":  h.Status,
		"urgency": h.Urgency,
		"subject": req.Summary().Subject,
	})
}

// timestamp is truncated to the precision the store keeps.
func (s *requestService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func auditEntry(userID *uuid.UUID, action string, req model.Request, details map[string]interface{}) *model.AuditLog {
	raw, _ := json.Marshal(details)
	return &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityKind: string(req.Kind()),
		EntityID:   req.Base().ID.String(),
		Details:    string(raw),
	}
}
