package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kgadmissions/enquiry-api/internal/dto"
	"github.com/kgadmissions/enquiry-api/internal/models"
	appErrors "github.com/kgadmissions/enquiry-api/pkg/errors"
)

var (
	appNumberPattern = regexp.MustCompile(`(?i)APP-\d{4}-\d{4}`)
	digitsPattern    = regexp.MustCompile(`\d+`)
)

type commentStore interface {
	Append(ctx context.Context, comment *models.Comment) error
	ListByRecordKey(ctx context.Context, recordKey string) ([]models.Comment, error)
}

// assistantSession remembers which student a counselor last looked up, so
// a bare follow-up message can be filed as a comment against that student.
type assistantSession struct {
	recordKey   string
	studentName string
}

// AssistantService is the rule-based counselor lookup assistant. It matches
// free-text messages against the enquiry collection and appends comments to
// the selected student's thread.
type AssistantService struct {
	enquiries enquiryLister
	comments  commentStore
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*assistantSession
}

// NewAssistantService constructs an AssistantService.
func NewAssistantService(enquiries enquiryLister, comments commentStore, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		enquiries: enquiries,
		comments:  comments,
		logger:    logger,
		sessions:  make(map[string]*assistantSession),
	}
}

// Handle processes one counselor message: a lookup attempt first, then the
// comment branch when a student is already selected, then the no-match
// fallback. author is the authenticated counselor filing any comment.
func (s *AssistantService) Handle(ctx context.Context, sessionID, author, message string) (*dto.AssistantReply, error) {
	query := strings.TrimSpace(message)
	lowerQuery := strings.ToLower(query)

	records, err := s.enquiries.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "assistant lookup failed")
	}

	if student := matchStudent(records, query, lowerQuery); student != nil {
		return s.describeStudent(ctx, sessionID, student)
	}

	selected := s.selected(sessionID)
	if strings.HasPrefix(lowerQuery, "comment:") || (selected != nil && !strings.Contains(lowerQuery, "lookup")) {
		return s.saveComment(ctx, selected, author, query, lowerQuery)
	}

	return &dto.AssistantReply{
		Kind: "no_match",
		Text: fmt.Sprintf("Sorry, I couldn't find any student matching %q. Try entering the full application number or student name.", query),
	}, nil
}

// Reset drops the session's selected student.
func (s *AssistantService) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *AssistantService) selected(sessionID string) *assistantSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sessionID]
}

func (s *AssistantService) describeStudent(ctx context.Context, sessionID string, student *models.Enquiry) (*dto.AssistantReply, error) {
	recordKey := student.RecordKey()
	s.mu.Lock()
	s.sessions[sessionID] = &assistantSession{recordKey: recordKey, studentName: student.StudentName}
	s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "I found student details for %s:\n\n- Course: %s\n- Institution: %s\n- Status: %s",
		student.StudentName, student.Course, student.Institution, student.Status)

	comments, err := s.comments.ListByRecordKey(ctx, recordKey)
	if err != nil {
		s.logger.Warn("assistant comment lookup failed", zap.String("record_key", recordKey), zap.Error(err))
	}
	if len(comments) > 0 {
		b.WriteString("\n\nPrevious Comments found:")
		for _, comment := range comments {
			fmt.Fprintf(&b, "\n• %s (by %s on %s)", comment.Text, comment.Author, comment.CreatedAt.Format("02 Jan 2006"))
		}
	} else {
		b.WriteString("\n\nNo previous comments found. You can add a comment by typing 'comment: your message'.")
	}

	return &dto.AssistantReply{Kind: "details", Text: b.String(), RecordKey: recordKey}, nil
}

func (s *AssistantService) saveComment(ctx context.Context, selected *assistantSession, author, query, lowerQuery string) (*dto.AssistantReply, error) {
	if selected == nil {
		return &dto.AssistantReply{
			Kind: "needs_selection",
			Text: "Please look up a student first before adding a comment.",
		}, nil
	}

	text := query
	if strings.HasPrefix(lowerQuery, "comment:") {
		text = strings.TrimSpace(query[len("comment:"):])
	}
	comment := &models.Comment{RecordKey: selected.recordKey, Text: text, Author: author}
	if err := s.comments.Append(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save comment")
	}

	return &dto.AssistantReply{
		Kind:      "comment_saved",
		Text:      fmt.Sprintf("Comment saved for %s: %q", selected.studentName, text),
		RecordKey: selected.recordKey,
	}, nil
}

// matchStudent applies the two-stage matcher: exact equality on application
// number, id or name first, then substring on a pattern extracted from the
// query (an APP-format token, any run of digits, or the whole query).
func matchStudent(records []models.Enquiry, query, lowerQuery string) *models.Enquiry {
	if lowerQuery == "" {
		return nil
	}

	for i := range records {
		record := &records[i]
		if strings.EqualFold(record.AppNumber, query) ||
			strconv.FormatInt(record.ID, 10) == query ||
			strings.EqualFold(record.StudentName, query) {
			return record
		}
	}

	searchVal := lowerQuery
	if token := appNumberPattern.FindString(query); token != "" {
		searchVal = strings.ToLower(token)
	} else if digits := digitsPattern.FindString(query); digits != "" {
		searchVal = digits
	}

	for i := range records {
		record := &records[i]
		if (record.AppNumber != "" && strings.Contains(strings.ToLower(record.AppNumber), searchVal)) ||
			(record.StudentName != "" && strings.Contains(strings.ToLower(record.StudentName), searchVal)) {
			return record
		}
	}
	return nil
}
