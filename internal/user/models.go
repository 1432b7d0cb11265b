package user

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	PhotoURL string `json:"photoUrl"`

	// media-store delete key for the profile photo
	PhotoKey string `json:"-"`

	PasswordHash string `json:"-"`
	GoogleID     string `json:"-"`

	EnrolledCourses []string `json:"enrolledCourses"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"-"`
}
