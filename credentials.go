package oneblog

// SignupRequest carries the fields accepted by the signup flow
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest accepts the code as either "otp" or "code"
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// missingField returns the name of the first empty value, or "" if all are set
func missingField(fields ...[2]string) string {
	for _, f := range fields {
		if f[1] == "" {
			return f[0]
		}
	}
	return ""
}

func (r *SignupRequest) Validate() error {
	if f := missingField([2]string{"name", r.Name}, [2]string{"email", r.Email}, [2]string{"password", r.Password}); f != "" {
		return validationError(MsgAllFieldsRequired, f)
	}
	if len(r.Password) > MaxPasswordBytes {
		return validationError(MsgPasswordTooLong, "password")
	}
	return nil
}

// Login skips the length check so an over-long guess is just a wrong password
func (r *LoginRequest) Validate() error {
	if f := missingField([2]string{"email", r.Email}, [2]string{"password", r.Password}); f != "" {
		return validationError(MsgEmailPasswordRequired, f)
	}
	return nil
}

func (r *ForgotPasswordRequest) Validate() error {
	if missingField([2]string{"email", r.Email}) != "" {
		return validationError(MsgEmailRequired, "email")
	}
	return nil
}

func (r *ResetPasswordRequest) Validate() error {
	if f := missingField([2]string{"email", r.Email}, [2]string{"otp", r.Code}, [2]string{"newPassword", r.NewPassword}); f != "" {
		return validationError(MsgAllFieldsRequired, f)
	}
	if len(r.NewPassword) > MaxPasswordBytes {
		return validationError(MsgPasswordTooLong, "newPassword")
	}
	return nil
}
