package auth

// Claims representa la información extraída del token.
// UserID es el uid del doctor: define el path /doctors/{uid}.
type Claims struct {
	UserID string
	Email  string
	Name   string
}
