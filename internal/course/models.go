package course

// Course levels form a fixed enumeration.
const (
	LevelBeginner = "Beginner"
	LevelMedium   = "Medium"
	LevelAdvance  = "Advance"
)

func ValidLevel(l string) bool {
	switch l {
	case LevelBeginner, LevelMedium, LevelAdvance:
		return true
	}
	return false
}

// Lecture content kinds. Exactly one of the content fields is populated at a
// time, consistent with ContentType.
const (
	ContentVideo = "video"
	ContentPDF   = "pdf"
	ContentText  = "text"
)

func ValidContentType(t string) bool {
	switch t {
	case ContentVideo, ContentPDF, ContentText:
		return true
	}
	return false
}

type Course struct {
	ID           string  `json:"id"`
	Title        string  `json:"courseTitle"`
	Subtitle     string  `json:"subTitle,omitempty"`
	Description  string  `json:"description,omitempty"`
	Category     string  `json:"category"`
	Level        string  `json:"courseLevel,omitempty"`
	Price        float64 `json:"coursePrice"`
	ThumbnailURL string  `json:"courseThumbnail,omitempty"`
	ThumbnailKey string  `json:"-"`
	CreatorID    string  `json:"creator"`
	IsPublished  bool    `json:"isPublished"`

	// populated on detail lookups
	Lectures         []Lecture `json:"lectures,omitempty"`
	EnrolledStudents []string  `json:"enrolledStudents,omitempty"`

	// derived
	TotalLectures int `json:"totalLectures"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

type Lecture struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	Title       string `json:"lectureTitle"`
	Description string `json:"description"`
	ContentType string `json:"contentType"`

	VideoURL    string `json:"videoUrl,omitempty"`
	VideoKey    string `json:"-"`
	PDFURL      string `json:"pdfUrl,omitempty"`
	PDFKey      string `json:"-"`
	TextContent string `json:"textContent,omitempty"`

	IsPreviewFree bool `json:"isPreviewFree"`
	Position      int  `json:"position"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// CourseInput carries course fields from the API boundary. Empty strings and
// a nil Price mean "leave unchanged" on edits.
type CourseInput struct {
	Title       string
	Subtitle    string
	Description string
	Category    string
	Level       string
	Price       *float64
}

// LectureInput carries lecture fields; TextContent is the inline body for
// text lectures.
type LectureInput struct {
	Title         string
	Description   string
	ContentType   string
	TextContent   string
	IsPreviewFree *bool
}

// LectureFiles are staged upload paths, at most one per content kind.
type LectureFiles struct {
	VideoPath string
	PDFPath   string
}
