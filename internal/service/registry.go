package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/beta-access-portal/internal/locale"
	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/queue"
)

// RequestStore is the request repository surface used by the registry.
type RequestStore interface {
	Create(ctx context.Context, req *model.AccessRequest) (uint64, error)
	GetByID(ctx context.Context, v model.Variant, id uint64) (model.AccessRequest, error)
	List(ctx context.Context, v model.Variant) ([]model.AccessRequest, error)
	ListByStatus(ctx context.Context, v model.Variant, s model.Status) ([]model.AccessRequest, error)
	ListByAccount(ctx context.Context, v model.Variant, accountID uint64) ([]model.AccessRequest, error)
	Latest(ctx context.Context, v model.Variant, accountID uint64) (model.AccessRequest, error)
	UpdateDecision(ctx context.Context, req *model.AccessRequest) error
	Delete(ctx context.Context, v model.Variant, id uint64) error
}

// EventPublisher sends relay events. Failures are logged by the
// implementation and ignored here: the relay never gates the workflow.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.RequestEvent) error
}

// Registry owns the access-request workflow: submission with the
// per-variant cooldown, the single status-transition entry point, and
// the notices and relay events both produce.
type Registry struct {
	requests     RequestStore
	notices      NoticeStore
	pub          EventPublisher
	fmtr         locale.Formatter
	cooldownDays int
	now          func() time.Time
}

func NewRegistry(requests RequestStore, notices NoticeStore, pub EventPublisher, fmtr locale.Formatter, cooldownDays int) *Registry {
	return &Registry{
		requests:     requests,
		notices:      notices,
		pub:          pub,
		fmtr:         fmtr,
		cooldownDays: cooldownDays,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SubmitInput carries the request form. Which fields are required
// depends on the variant.
type SubmitInput struct {
	Reason string `json:"reason"` // beta

	Role            string `json:"role"` // team
	YearsExperience int    `json:"years_experience"`
	Skills          string `json:"skills"`
	Motivation      string `json:"motivation"`
	Portfolio       string `json:"portfolio"`
}

func (r *Registry) validateSubmit(v model.Variant, in *SubmitInput) error {
	switch v {
	case model.VariantBeta:
		in.Reason = strings.TrimSpace(in.Reason)
		if in.Reason == "" {
			return &ValidationError{Msg: "reason is required"}
		}
	case model.VariantTeam:
		in.Role = strings.TrimSpace(in.Role)
		in.Skills = strings.TrimSpace(in.Skills)
		in.Motivation = strings.TrimSpace(in.Motivation)
		in.Portfolio = strings.TrimSpace(in.Portfolio)
		if in.Role == "" || in.Skills == "" || in.Motivation == "" {
			return &ValidationError{Msg: "role, skills and motivation are required"}
		}
		if in.YearsExperience < 0 {
			return &ValidationError{Msg: "years of experience must not be negative"}
		}
	}
	return nil
}

// remainingDays applies the cooldown rule: the most recent prior
// request of the same variant blocks a new one for cooldownDays after
// its creation, regardless of how it was decided.
func (r *Registry) remainingDays(ctx context.Context, v model.Variant, accountID uint64) (int, error) {
	last, err := r.requests.Latest(ctx, v, accountID)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	elapsedDays := int(r.now().Sub(last.CreatedAt).Hours() / 24)
	if elapsedDays >= r.cooldownDays {
		return 0, nil
	}
	return r.cooldownDays - elapsedDays, nil
}

// Cooldown is the read-only projection of the submission rule.
type Cooldown struct {
	CanSubmit     bool `json:"can_submit"`
	DaysRemaining int  `json:"days_remaining"`
}

// CooldownStatus reports whether an account may submit a request of
// the given variant right now. It shares remainingDays with Submit so
// the check and the enforcement cannot drift.
func (r *Registry) CooldownStatus(ctx context.Context, v model.Variant, accountID uint64) (Cooldown, error) {
	days, err := r.remainingDays(ctx, v, accountID)
	if err != nil {
		return Cooldown{}, err
	}
	return Cooldown{CanSubmit: days == 0, DaysRemaining: days}, nil
}

// Submit creates a pending request for the account, appends the
// confirmation notice and mirrors the submission to the relay queue.
// Inside the cooldown window it fails with *CooldownError.
func (r *Registry) Submit(ctx context.Context, v model.Variant, acct model.Account, in SubmitInput) (model.AccessRequest, error) {
	if err := r.validateSubmit(v, &in); err != nil {
		return model.AccessRequest{}, err
	}
	days, err := r.remainingDays(ctx, v, acct.ID)
	if err != nil {
		return model.AccessRequest{}, err
	}
	if days > 0 {
		return model.AccessRequest{}, &CooldownError{
			DaysRemaining: days,
			Message:       r.fmtr.RetryAfterDays(days),
		}
	}

	now := r.now()
	req := model.AccessRequest{
		AccountID: acct.ID,
		Variant:   v,
		Email:     acct.Email,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Status:    model.StatusPending,
		CreatedAt: now,

		Reason: in.Reason,

		Role:            in.Role,
		YearsExperience: in.YearsExperience,
		Skills:          in.Skills,
		Motivation:      in.Motivation,
		Portfolio:       in.Portfolio,
	}
	id, err := r.requests.Create(ctx, &req)
	if err != nil {
		return model.AccessRequest{}, err
	}
	req.ID = id

	r.appendNotice(ctx, &req, submittedNotice(v, id, now))
	_ = r.pub.Publish(ctx, r.event(queue.KindRequestSubmitted, &req))
	return req, nil
}

// SetStatus is the single transition entry point: approve, reject and
// comment-only annotation (newStatus=pending) all pass through here.
// It re-stamps processedAt on every call. Status changes out of a
// terminal state are refused; attaching a comment to a decided request
// is allowed.
func (r *Registry) SetStatus(ctx context.Context, v model.Variant, id uint64, newStatus model.Status, comment *string) (model.AccessRequest, error) {
	req, err := r.requests.GetByID(ctx, v, id)
	if err != nil {
		return model.AccessRequest{}, err
	}
	if req.Status.Terminal() && newStatus != req.Status {
		return model.AccessRequest{}, &ValidationError{
			Msg: fmt.Sprintf("request %d is already %s", id, req.Status),
		}
	}

	now := r.now()
	req.Status = newStatus
	if comment != nil {
		req.OperatorComment = comment
	}
	req.ProcessedAt = &now
	if err := r.requests.UpdateDecision(ctx, &req); err != nil {
		return model.AccessRequest{}, err
	}

	r.appendNotice(ctx, &req, decisionNotice(&req, now))
	_ = r.pub.Publish(ctx, r.event(queue.KindRequestDecided, &req))
	return req, nil
}

// Comment annotates a request without changing its status. Decided
// requests keep their decision; pending ones stay pending.
func (r *Registry) Comment(ctx context.Context, v model.Variant, id uint64, text string) (model.AccessRequest, error) {
	req, err := r.requests.GetByID(ctx, v, id)
	if err != nil {
		return model.AccessRequest{}, err
	}
	return r.SetStatus(ctx, v, id, req.Status, &text)
}

// Remove hard-deletes a request. Notices referencing it stay.
func (r *Registry) Remove(ctx context.Context, v model.Variant, id uint64) error {
	return r.requests.Delete(ctx, v, id)
}

// ListAll returns every request of a variant.
func (r *Registry) ListAll(ctx context.Context, v model.Variant) ([]model.AccessRequest, error) {
	return r.requests.List(ctx, v)
}

// ListPending returns the open requests of a variant.
func (r *Registry) ListPending(ctx context.Context, v model.Variant) ([]model.AccessRequest, error) {
	return r.requests.ListByStatus(ctx, v, model.StatusPending)
}

// ListByStatus filters a variant's requests by workflow status.
func (r *Registry) ListByStatus(ctx context.Context, v model.Variant, s model.Status) ([]model.AccessRequest, error) {
	return r.requests.ListByStatus(ctx, v, s)
}

// ListForAccount returns both variants' requests for one account.
func (r *Registry) ListForAccount(ctx context.Context, accountID uint64) (map[model.Variant][]model.AccessRequest, error) {
	out := make(map[model.Variant][]model.AccessRequest, 2)
	for _, v := range []model.Variant{model.VariantBeta, model.VariantTeam} {
		reqs, err := r.requests.ListByAccount(ctx, v, accountID)
		if err != nil {
			return nil, err
		}
		out[v] = reqs
	}
	return out, nil
}

// appendNotice stores a workflow notice. The notice and the request
// update are separate operations with no shared transaction, so a
// failed notice is logged and swallowed rather than undoing the write.
func (r *Registry) appendNotice(ctx context.Context, req *model.AccessRequest, n model.Notice) {
	n.AccountID = req.AccountID
	n.LinkedRequestID = &req.ID
	n.OperatorComment = req.OperatorComment
	if _, err := r.notices.Create(ctx, &n); err != nil {
		log.Printf("registry: notice for request %d failed: %v", req.ID, err)
	}
}

func (r *Registry) event(kind string, req *model.AccessRequest) queue.RequestEvent {
	summary := req.Reason
	if req.Variant == model.VariantTeam {
		summary = fmt.Sprintf("%s, опыт %d лет", req.Role, req.YearsExperience)
	}
	ev := queue.RequestEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		Variant:    string(req.Variant),
		RequestID:  req.ID,
		AccountID:  req.AccountID,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Summary:    summary,
		OccurredAt: r.now().Format(time.RFC3339),
	}
	if kind == queue.KindRequestDecided {
		ev.Status = string(req.Status)
		ev.Comment = req.OperatorComment
	}
	return ev
}

func variantTitle(v model.Variant) string {
	if v == model.VariantTeam {
		return "Заявка в команду разработки"
	}
	return "Заявка на бета-тестирование"
}

func submittedNotice(v model.Variant, id uint64, now time.Time) model.Notice {
	return model.Notice{
		Title:     variantTitle(v) + " отправлена",
		Body:      "Ваша заявка успешно отправлена и находится на рассмотрении.",
		Kind:      model.NoticeSuccess,
		CreatedAt: now,
	}
}

func decisionNotice(req *model.AccessRequest, now time.Time) model.Notice {
	n := model.Notice{CreatedAt: now}
	switch req.Status {
	case model.StatusApproved:
		n.Title = variantTitle(req.Variant) + " одобрена"
		n.Body = "Поздравляем! Ваша заявка одобрена."
		n.Kind = model.NoticeSuccess
	case model.StatusRejected:
		n.Title = variantTitle(req.Variant) + " отклонена"
		n.Body = "К сожалению, ваша заявка отклонена."
		n.Kind = model.NoticeError
	default:
		n.Title = "Комментарий к вашей заявке"
		n.Body = "Оператор оставил комментарий к вашей заявке."
		n.Kind = model.NoticeInfo
	}
	return n
}
