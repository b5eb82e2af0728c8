package dto

// RegisterRequest is the multipart form posted by the mobile client on
// sign-up. The profile image travels as a separate file part.
type RegisterRequest struct {
	RegNo        string `form:"reg_no" validate:"required,max=32"`
	Password     string `form:"password" validate:"required,min=6,max=72"`
	Email        string `form:"email" validate:"required,email"`
	Phone        string `form:"phone" validate:"required,min=6,max=20"`
	ClassName    string `form:"class_name" validate:"required"`
	Department   string `form:"department" validate:"required"`
	HodName      string `form:"hod_name"`
	InchargeName string `form:"incharge_name"`
	ValidUntil   string `form:"valid_until" validate:"required"`
}

// LoginRequest is the multipart login form.
type LoginRequest struct {
	RegNo    string `form:"reg_no" validate:"required"`
	Password string `form:"password" validate:"required"`

	IP        string `form:"-"`
	UserAgent string `form:"-"`
}

// UserInfo is the profile summary returned on login.
type UserInfo struct {
	RegNo      string `json:"reg_no"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	ClassName  string `json:"class"`
	Image      string `json:"image,omitempty"`
}

// LoginResult bundles the profile with the issued access token.
type LoginResult struct {
	User        UserInfo `json:"user"`
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
}
