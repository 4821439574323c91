package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// CatalogRepository reads course offerings for a term from Postgres.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

type courseRow struct {
	ID      string  `db:"id"`
	Title   string  `db:"title"`
	Credits float64 `db:"credits"`
}

type sectionRow struct {
	ID             string  `db:"id"`
	CourseID       string  `db:"course_id"`
	Capacity       *int    `db:"capacity"`
	Enrolled       *int    `db:"enrolled"`
	FinalExamDate  *string `db:"final_exam_date"`
	FinalExamStart *int    `db:"final_exam_start"`
	FinalExamEnd   *int    `db:"final_exam_end"`
}

type meetingRow struct {
	SectionID string `db:"section_id"`
	models.Meeting
}

type instructorRow struct {
	SectionID string `db:"section_id"`
	models.Instructor
}

const (
	catalogCoursesQuery = `SELECT id, title, credits FROM courses WHERE term_id = $1 AND id = ANY($2)`

	catalogSectionsQuery = `SELECT id, course_id, capacity, enrolled, final_exam_date, final_exam_start, final_exam_end
FROM sections WHERE term_id = $1 AND course_id = ANY($2) ORDER BY course_id, id`

	catalogMeetingsQuery = `SELECT m.section_id, m.days, m.start_minute, m.end_minute, m.location
FROM section_meetings m JOIN sections s ON s.id = m.section_id
WHERE s.term_id = $1 AND s.course_id = ANY($2) ORDER BY m.section_id, m.start_minute`

	catalogInstructorsQuery = `SELECT i.section_id, i.name, i.rating, i.workload
FROM section_instructors i JOIN sections s ON s.id = i.section_id
WHERE s.term_id = $1 AND s.course_id = ANY($2) ORDER BY i.section_id, i.name`
)

// FindCourses loads the requested courses of a term with their sections, meetings and
// instructors. Courses come back in the order requested; unknown ids are skipped.
func (r *CatalogRepository) FindCourses(ctx context.Context, termID string, courseIDs []string) ([]models.Course, error) {
	if len(courseIDs) == 0 {
		return []models.Course{}, nil
	}
	ids := pq.Array(courseIDs)

	var courses []courseRow
	if err := r.db.SelectContext(ctx, &courses, catalogCoursesQuery, termID, ids); err != nil {
		return nil, fmt.Errorf("list catalog courses: %w", err)
	}
	if len(courses) == 0 {
		return []models.Course{}, nil
	}

	var sections []sectionRow
	if err := r.db.SelectContext(ctx, &sections, catalogSectionsQuery, termID, ids); err != nil {
		return nil, fmt.Errorf("list catalog sections: %w", err)
	}
	var meetings []meetingRow
	if err := r.db.SelectContext(ctx, &meetings, catalogMeetingsQuery, termID, ids); err != nil {
		return nil, fmt.Errorf("list section meetings: %w", err)
	}
	var instructors []instructorRow
	if err := r.db.SelectContext(ctx, &instructors, catalogInstructorsQuery, termID, ids); err != nil {
		return nil, fmt.Errorf("list section instructors: %w", err)
	}

	return assembleCourses(courseIDs, courses, sections, meetings, instructors), nil
}

func assembleCourses(order []string, courses []courseRow, sections []sectionRow, meetings []meetingRow, instructors []instructorRow) []models.Course {
	meetingsBySection := make(map[string][]models.Meeting)
	for _, m := range meetings {
		meetingsBySection[m.SectionID] = append(meetingsBySection[m.SectionID], m.Meeting)
	}
	instructorsBySection := make(map[string][]models.Instructor)
	for _, i := range instructors {
		instructorsBySection[i.SectionID] = append(instructorsBySection[i.SectionID], i.Instructor)
	}

	sectionsByCourse := make(map[string][]models.Section)
	for _, row := range sections {
		sec := models.Section{
			ID:          row.ID,
			CourseID:    row.CourseID,
			Capacity:    row.Capacity,
			Enrolled:    row.Enrolled,
			Meetings:    meetingsBySection[row.ID],
			Instructors: instructorsBySection[row.ID],
		}
		if row.FinalExamDate != nil && *row.FinalExamDate != "" {
			sec.FinalExam = &models.FinalExam{
				Date:        *row.FinalExamDate,
				StartMinute: row.FinalExamStart,
				EndMinute:   row.FinalExamEnd,
			}
		}
		sectionsByCourse[row.CourseID] = append(sectionsByCourse[row.CourseID], sec)
	}

	byID := make(map[string]courseRow, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	result := make([]models.Course, 0, len(courses))
	for _, id := range order {
		c, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)
		result = append(result, models.Course{
			ID:       c.ID,
			Title:    c.Title,
			Credits:  c.Credits,
			Sections: sectionsByCourse[c.ID],
		})
	}
	return result
}
