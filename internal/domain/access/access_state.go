package access

import "github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"

// LectureState: enrolled|preview|locked
func LectureState(enrolled bool, l courses.Lecture) AccessState {
	if enrolled {
		return AccessEnrolled
	}
	if l.IsPreviewFree {
		return AccessPreview
	}
	return AccessLocked
}

func LectureAccessible(enrolled bool, l courses.Lecture) bool {
	return LectureState(enrolled, l) != AccessLocked
}

// RedactLectures returns a copy of the course in which every lecture the
// viewer cannot play has its URL removed. The input is not modified.
func RedactLectures(c courses.Course, enrolled bool) courses.Course {
	out := c
	out.Chapters = make([]courses.Chapter, len(c.Chapters))
	for i, ch := range c.Chapters {
		cp := ch
		cp.Lectures = make([]courses.Lecture, len(ch.Lectures))
		for j, l := range ch.Lectures {
			if !LectureAccessible(enrolled, l) {
				l.URL = ""
			}
			cp.Lectures[j] = l
		}
		out.Chapters[i] = cp
	}
	return out
}

// StripAllURLs is used for catalogue listings where nobody gets playable links.
func StripAllURLs(c courses.Course) courses.Course {
	out := RedactLectures(c, false)
	for i := range out.Chapters {
		for j := range out.Chapters[i].Lectures {
			out.Chapters[i].Lectures[j].URL = ""
		}
	}
	return out
}
