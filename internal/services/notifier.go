package services

import (
	"context"
	"fmt"
	"strings"

	userrepo "github.com/yungbote/coursecraft-backend/internal/data/repos/user"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/sendgrid"
)

// ReviewNotifier tells a tutor about an admin decision on their course.
type ReviewNotifier interface {
	NotifyDecision(ctx context.Context, course *types.Course, review *types.CourseReview) error
}

type emailReviewNotifier struct {
	log     *logger.Logger
	users   userrepo.UserRepo
	mail    sendgrid.Client
	metrics *observability.Metrics
}

func NewEmailReviewNotifier(log *logger.Logger, users userrepo.UserRepo, mail sendgrid.Client, metrics *observability.Metrics) ReviewNotifier {
	return &emailReviewNotifier{
		log:     log.With("service", "ReviewNotifier"),
		users:   users,
		mail:    mail,
		metrics: metrics,
	}
}

func (n *emailReviewNotifier) NotifyDecision(ctx context.Context, course *types.Course, review *types.CourseReview) error {
	if course == nil || review == nil {
		return fmt.Errorf("course and review required")
	}
	tutor, err := n.users.GetByID(ctx, nil, course.TutorID)
	if err != nil {
		n.metrics.IncNotification("course_decision", "error")
		return fmt.Errorf("load tutor: %w", err)
	}
	if tutor == nil || strings.TrimSpace(tutor.Email) == "" {
		n.metrics.IncNotification("course_decision", "skipped")
		n.log.Debug("tutor has no email; skipping decision notification", "course_id", course.ID)
		return nil
	}

	subject, body := decisionEmail(course, review, tutor.FullName)
	res, err := n.mail.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: tutor.Email, Name: tutor.FullName}},
		Subject:    subject,
		Text:       body,
		Categories: []string{"course-review"},
		CustomArgs: map[string]string{
			"course_id": course.ID.String(),
			"review_id": review.ID.String(),
		},
	})
	if err != nil {
		n.metrics.IncNotification("course_decision", "error")
		return err
	}
	n.metrics.IncNotification("course_decision", "sent")
	n.log.Info("decision notification sent", "course_id", course.ID, "decision", review.Decision, "message_id", res.MessageID)
	return nil
}

func decisionEmail(course *types.Course, review *types.CourseReview, tutorName string) (string, string) {
	title := strings.TrimSpace(course.Title)
	greeting := "Hello"
	if name := strings.TrimSpace(tutorName); name != "" {
		greeting = "Hello " + name
	}

	var subject, verdict string
	switch review.Decision {
	case types.CourseStatusApproved:
		subject = fmt.Sprintf("Your course %q was approved", title)
		verdict = "has been approved and is now visible in the public catalogue."
	default:
		subject = fmt.Sprintf("Your course %q was not approved", title)
		verdict = "was not approved. You can edit it and submit it again."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s,\n\nYour course %q %s\n", greeting, title, verdict)
	if reason := strings.TrimSpace(review.Reason); reason != "" {
		fmt.Fprintf(&b, "\nReviewer notes:\n%s\n", reason)
	}
	return subject, b.String()
}
