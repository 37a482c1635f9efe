package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/repository"
	"github.com/noah-isme/school-academic-api/internal/service"
	"github.com/noah-isme/school-academic-api/pkg/config"
	"github.com/noah-isme/school-academic-api/pkg/database"
	"github.com/noah-isme/school-academic-api/pkg/logger"
)

type evaluator interface {
	Evaluate(ctx context.Context, studentID string) (*models.ProgressionDecision, error)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code: 0 on success, 1 when a student or the setup failed and
// 2 on bad arguments. Deferred cleanup runs before main exits.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("progression_preview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		studentsFlag string
		strict       bool
		asOf         string
		timeout      time.Duration
	)
	fs.StringVar(&studentsFlag, "students", "", "Comma separated student IDs (positional arguments are accepted too)")
	fs.BoolVar(&strict, "strict", false, "Resolve approved students to a strictly greater study year")
	fs.StringVar(&asOf, "as-of", "", "Reference date (YYYY-MM-DD) for the closed period lookup. Defaults to today")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	studentIDs := collectStudentIDs(studentsFlag, fs.Args())
	if len(studentIDs) == 0 {
		fmt.Fprintln(stderr, "no student ids given; use -students or positional arguments")
		return 2
	}

	now := time.Now
	if asOf != "" {
		reference, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			fmt.Fprintf(stderr, "invalid -as-of: %v\n", err)
			return 2
		}
		now = func() time.Time { return reference }
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Error("failed to connect database", zap.Error(err))
		return 1
	}
	defer db.Close()

	grades := repository.NewGradeRepository(db)
	lapses := repository.NewLapseRepository(db)
	resolver := service.NewProgressionResolver(
		repository.NewStudyYearRepository(db),
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewAcademicPeriodRepository(db),
		service.NewGradeAggregator(grades, lapses),
		service.ProgressionOptions{StrictNextYear: strict || cfg.Progression.StrictNextYear, Now: now},
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if failures := preview(ctx, resolver, studentIDs, stdout, logr); failures > 0 {
		logr.Warn("some students could not be evaluated", zap.Int("failures", failures))
		return 1
	}
	return 0
}

func collectStudentIDs(flagValue string, args []string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, raw := range append(strings.Split(flagValue, ","), args...) {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// preview writes one JSON decision per line and returns the number of students that failed.
func preview(ctx context.Context, resolver evaluator, studentIDs []string, out io.Writer, logr *zap.Logger) int {
	enc := json.NewEncoder(out)
	failures := 0
	for _, id := range studentIDs {
		decision, err := resolver.Evaluate(ctx, id)
		if err != nil {
			failures++
			logr.Error("evaluate progression", zap.String("student_id", id), zap.Error(err))
			continue
		}
		if err := enc.Encode(decision); err != nil {
			failures++
			logr.Error("encode decision", zap.String("student_id", id), zap.Error(err))
		}
	}
	return failures
}
