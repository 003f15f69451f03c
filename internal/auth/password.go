package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash of plain, compatible with the user file
// format streamlit-authenticator wrote (auth_service.py's pwd_context).
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword reports whether plain matches hash.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
