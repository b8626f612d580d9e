package users

import "time"

type MeResponse struct {
	User     UserDTO     `json:"user"`
	Learning LearningDTO `json:"learning"`
}

type UserDTO struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ImageURL     *string   `json:"image_url"`
	Role         string    `json:"role"`
	AuthProvider string    `json:"auth_provider"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

type LearningDTO struct {
	EnrolledCourses   int `json:"enrolled_courses"`
	CompletedCourses  int `json:"completed_courses"`
	CompletedLectures int `json:"completed_lectures"`
}

type EnrolledCourseDTO struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Slug         string            `json:"slug"`
	ThumbnailURL *string           `json:"thumbnail_url"`
	Educator     string            `json:"educator"`
	Progress     ProgressDTO       `json:"progress"`
	Chapters     []EnrolledChapter `json:"chapters"`
}

type EnrolledChapter struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Lectures []EnrolledLecture `json:"lectures"`
}

type EnrolledLecture struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	URL             string `json:"url"`
	Completed       bool   `json:"completed"`
}

type ProgressDTO struct {
	CourseID          string   `json:"course_id"`
	CompletedLectures []string `json:"completed_lectures"`
	TotalLectures     int      `json:"total_lectures"`
	Percent           int      `json:"percent"`
}
