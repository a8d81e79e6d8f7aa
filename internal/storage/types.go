package storage

import (
	"context"
	"errors"
)

var (
	ErrValidation   = errors.New("storage: validation failed")
	ErrNotFound     = errors.New("storage: not found")
	ErrSchemaTooNew = errors.New("storage: schema version newer than code")
)

// Assessment is the six-field rubric shared by students and work titles.
// Work titles reuse the same columns under different presentation labels.
type Assessment struct {
	SocialCompetence    string `json:"social_competence"`
	ActiveParticipation string `json:"active_participation"`
	Cleanliness         string `json:"cleanliness"`
	Material            string `json:"material"`
	Punctuality         string `json:"punctuality"`
	Comment             string `json:"comment"`
}

// IsZero reports whether every field is empty.
func (a Assessment) IsZero() bool {
	return a == Assessment{}
}

type Student struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Class     string `json:"class"`
}

type NewStudent struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Class     string
}

type WorkTitle struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	Title     string `json:"title"`
	Note      string `json:"note"`
	Assessment
}

// WorkTitleInput carries every mutable field of a work title.
type WorkTitleInput struct {
	Title string
	Note  string
	Assessment
}

type StudentFilter struct {
	Keyword string
	Class   string
}

type Stats struct {
	Students   int `json:"students"`
	WorkTitles int `json:"work_titles"`
	Classes    int `json:"classes"`
}

type StudentRepository interface {
	Add(ctx context.Context, student NewStudent) (int64, error)
	Get(ctx context.Context, id int64) (*Student, error)
	List(ctx context.Context) ([]Student, error)
	Search(ctx context.Context, keyword string) ([]Student, error)
	Filter(ctx context.Context, filter StudentFilter) ([]Student, error)
	Details(ctx context.Context, id int64) (*Assessment, error)
	UpdateDetails(ctx context.Context, id int64, details Assessment) error
	Delete(ctx context.Context, id int64) error
	Classes(ctx context.Context) ([]string, error)
}

type WorkTitleRepository interface {
	Add(ctx context.Context, studentID int64, input WorkTitleInput) (int64, error)
	Get(ctx context.Context, id int64) (*WorkTitle, error)
	Update(ctx context.Context, id int64, input WorkTitleInput) error
	Delete(ctx context.Context, id int64) error
	ListByStudent(ctx context.Context, studentID int64) ([]WorkTitle, error)
}
