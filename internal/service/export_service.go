package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/repository"
	"github.com/noah-isme/school-academic-api/pkg/export"
	"github.com/noah-isme/school-academic-api/pkg/storage"
)

type periodRosterLister interface {
	List(ctx context.Context, filter repository.EnrollmentFilter) ([]models.Enrollment, error)
}

type studentDirectory interface {
	ListByIDs(ctx context.Context, ids []string) (map[string]models.Student, error)
}

type reportCardBuilder interface {
	BuildReportCard(ctx context.Context, studentID, periodID string) (*models.ReportCard, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportDeps groups the collaborators of ExportService.
type ExportDeps struct {
	Roster      periodRosterLister
	Students    studentDirectory
	ReportCards reportCardBuilder
	Progression progressionEvaluator
	Storage     fileStorage
	Signer      *storage.SignedURLSigner
	Config      ExportConfig
	Logger      *zap.Logger
}

// ExportService builds report tables, renders them and stores the resulting files.
type ExportService struct {
	roster      periodRosterLister
	students    studentDirectory
	reportCards reportCardBuilder
	progression progressionEvaluator
	storage     fileStorage
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(deps ExportDeps) *ExportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		roster:      deps.Roster,
		students:    deps.Students,
		reportCards: deps.ReportCards,
		progression: deps.Progression,
		storage:     deps.Storage,
		signer:      deps.Signer,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Generate builds the table for the job, renders it and stores the signed result.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, err := export.ForFormat(export.Format(job.Params.Format))
	if err != nil {
		return nil, err
	}
	table, err := s.BuildTable(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(table)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("export stored",
		zap.String("job_id", job.ID),
		zap.String("path", relPath),
		zap.Int("rows", len(table.Rows)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// BuildTable assembles the rows of the report described by the job.
func (s *ExportService) BuildTable(ctx context.Context, job *models.ReportJob) (export.Table, error) {
	students, err := s.periodStudents(ctx, job.Params)
	if err != nil {
		return export.Table{}, err
	}
	switch job.Type {
	case models.ReportTypeReportCards:
		return s.reportCardTable(ctx, job.Params, students)
	case models.ReportTypeProgression:
		return s.progressionTable(ctx, job.Params, students)
	default:
		return export.Table{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

// Verify validates a download token.
func (s *ExportService) Verify(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Verify(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ResultTTL is how long rendered files remain downloadable.
func (s *ExportService) ResultTTL() time.Duration {
	return s.cfg.ResultTTL
}

func (s *ExportService) periodStudents(ctx context.Context, params models.ReportJobParams) ([]models.Student, error) {
	enrollments, err := s.roster.List(ctx, repository.EnrollmentFilter{
		AcademicPeriodID: params.PeriodID,
		SectionID:        deref(params.SectionID),
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(enrollments))
	for _, enrollment := range enrollments {
		ids = append(ids, enrollment.StudentID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	byID, err := s.students.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		student, ok := byID[id]
		if !ok {
			student = models.Student{ID: id}
		}
		students = append(students, student)
	}
	sort.SliceStable(students, func(i, j int) bool {
		if students[i].FullName == students[j].FullName {
			return students[i].ID < students[j].ID
		}
		return students[i].FullName < students[j].FullName
	})
	return students, nil
}

func (s *ExportService) reportCardTable(ctx context.Context, params models.ReportJobParams, students []models.Student) (export.Table, error) {
	table := export.Table{
		Title:   fmt.Sprintf("Report Cards %s", params.PeriodID),
		Headers: []string{"Student ID", "Student", "Study Year", "Course", "Lapse Scores", "Final Score", "Approved"},
	}
	for _, student := range students {
		card, err := s.reportCards.BuildReportCard(ctx, student.ID, params.PeriodID)
		if err != nil {
			return export.Table{}, fmt.Errorf("report card for student %s: %w", student.ID, err)
		}
		for _, course := range card.Courses {
			lapses := make([]string, 0, len(course.Lapses))
			for _, lapse := range course.Lapses {
				lapses = append(lapses, strconv.FormatFloat(lapse.Score, 'f', 2, 64))
			}
			table.Rows = append(table.Rows, []string{
				student.ID,
				student.FullName,
				card.StudyYear.Name,
				course.CourseName,
				strings.Join(lapses, " / "),
				strconv.Itoa(course.FinalScore),
				yesNo(course.Approved),
			})
		}
	}
	return table, nil
}

func (s *ExportService) progressionTable(ctx context.Context, params models.ReportJobParams, students []models.Student) (export.Table, error) {
	table := export.Table{
		Title:   fmt.Sprintf("Progression %s", params.PeriodID),
		Headers: []string{"Student ID", "Student", "Reference Year", "Approved", "Reason", "Next Study Year"},
	}
	for _, student := range students {
		decision, err := s.progression.Evaluate(ctx, student.ID)
		if err != nil {
			return export.Table{}, fmt.Errorf("progression for student %s: %w", student.ID, err)
		}
		reference := "-"
		if decision.Reference != nil {
			reference = strconv.Itoa(decision.Reference.StudyYearOrdinal)
		}
		next := "-"
		if decision.StudyYear != nil {
			next = decision.StudyYear.Name
		}
		table.Rows = append(table.Rows, []string{
			student.ID,
			student.FullName,
			reference,
			yesNo(decision.Approved),
			string(decision.Reason),
			next,
		})
	}
	return table, nil
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), sanitizeFilename(job.Params.PeriodID), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
