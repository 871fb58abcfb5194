package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/internal/config"
	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
)

const noticeSubject = "Your course enrollment"

// EmailSender sends a plain-text email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Notice is one student's enrollment email
type Notice struct {
	StudentID int
	To        string
	Subject   string
	Body      string
}

// NotifyResult reports what happened to each notice
type NotifyResult struct {
	Sent []Notice

	// Pending holds the notices that would have been sent in a dry run
	Pending []Notice

	// SkippedStudents have no email address
	SkippedStudents []int

	// Failures maps student id to the send error
	Failures map[int]error
}

// NotifyStudents emails every student with an address their enrolled sections and waitlist
// positions from the latest run. A failed send is recorded and the remaining students are
// still notified. With dryRun nothing is sent and the notices are returned as pending.
func NotifyStudents(ctx context.Context, store EnrollmentResultsStore, sender EmailSender, cfg *config.Config, logger *zap.Logger, dryRun bool) (*NotifyResult, error) {
	results, err := LoadEnrollmentResults(ctx, store, logger, cfg.MaxCredits)
	if err != nil {
		return nil, err
	}

	result := &NotifyResult{Failures: make(map[int]error)}

	for _, student := range results.Courses.Students() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if student.Email == "" {
			result.SkippedStudents = append(result.SkippedStudents, student.ID)
			logger.Debug("Student has no email, skipping", zap.Int("student_id", student.ID))
			continue
		}

		notice := composeNotice(results.Courses, student)

		if dryRun {
			result.Pending = append(result.Pending, notice)
			continue
		}

		if err := sender.SendEmail(ctx, notice.To, notice.Subject, notice.Body); err != nil {
			result.Failures[student.ID] = err
			logger.Warn("Failed to send enrollment notice",
				zap.Int("student_id", student.ID),
				zap.String("email", notice.To),
				zap.Error(err))
			continue
		}

		result.Sent = append(result.Sent, notice)
		logger.Debug("Sent enrollment notice", zap.Int("student_id", student.ID))
	}

	logger.Info("Notification complete",
		zap.Bool("dry_run", dryRun),
		zap.Int("sent", len(result.Sent)),
		zap.Int("pending", len(result.Pending)),
		zap.Int("skipped", len(result.SkippedStudents)),
		zap.Int("failed", len(result.Failures)))

	return result, nil
}

// composeNotice lists the student's enrolled sections and waitlist positions (1-based)
func composeNotice(cs *coursesystem.CourseSystem, student *model.Student) Notice {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear %s,\n\n", student.Name)
	b.WriteString("Below are the sections you have been enrolled in and the waitlists you are on.\n\n")

	b.WriteString("Enrolled:\n")
	enrolled := cs.EnrolledSections(student)
	if len(enrolled) == 0 {
		b.WriteString("  none\n")
	}
	for _, section := range enrolled {
		fmt.Fprintf(&b, "  %d: %s\n", section.ID, section.Title)
	}

	b.WriteString("\nWaitlisted:\n")
	waitlisted := cs.WaitlistedSections(student)
	if len(waitlisted) == 0 {
		b.WriteString("  none\n")
	}
	for _, section := range waitlisted {
		fmt.Fprintf(&b, "  %d: %s (position %d)\n", section.ID, section.Title, section.WaitlistPosition(student)+1)
	}

	fmt.Fprintf(&b, "\nTotal credits: %.2f\n", cs.EnrolledCredits(student))
	b.WriteString("\nThe Registrar's Office\n")

	return Notice{
		StudentID: student.ID,
		To:        student.Email,
		Subject:   noticeSubject,
		Body:      b.String(),
	}
}
