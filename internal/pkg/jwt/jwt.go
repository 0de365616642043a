package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Roles carried in the access token. Managers may correct records and read
// team-wide reports; workers only operate on their own day.
const (
	RoleWorker  = "worker"
	RoleManager = "manager"
)

type Service interface {
	GenerateAccessToken(workerID string, email string, role string) (token string, expiresAt int64, err error)
	ValidateAccessToken(tokenString string) (workerID string, role string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(workerID string, email string, role string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"worker_id": workerID,
		"email":     email,
		"role":      role,
		"type":      "access",
		"exp":       expiresAt,
	})
	return tokenString, expiresAt, err
}

func (j *JWTService) ValidateAccessToken(tokenString string) (workerID string, role string, err error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != "access" {
		return "", "", jwt.ErrInvalidJWT()
	}

	workerIDVal, ok := token.Get("worker_id")
	if !ok {
		return "", "", jwt.ErrInvalidJWT()
	}
	workerID, ok = workerIDVal.(string)
	if !ok {
		return "", "", jwt.ErrInvalidJWT()
	}

	if roleVal, ok := token.Get("role"); ok {
		role, _ = roleVal.(string)
	}

	return workerID, role, nil
}
