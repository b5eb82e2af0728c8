package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/face"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
)

// dummyHash keeps bcrypt work roughly constant when the registration
// number is unknown, so login failures do not leak account existence.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type identityRepository interface {
	Create(ctx context.Context, identity *models.Identity) (err error)
	FindByRegNo(ctx context.Context, regNo string) (*models.Identity, error)
	UpdateProfileImage(ctx context.Context, regNo, filename string, faceCount int) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type imageStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

type uniqueViolationChecker func(error) bool

// IdentityConfig defines configuration for identity flows.
type IdentityConfig struct {
	JWTSecret     string
	JWTExpiration time.Duration
	Issuer        string
	FaceEnabled   bool
}

// IdentityService handles registration, authentication and profiles.
type IdentityService struct {
	repo      identityRepository
	images    imageStore
	detector  face.Detector
	validator *validator.Validate
	logger    *zap.Logger
	config    IdentityConfig
	isDup     uniqueViolationChecker
}

// NewIdentityService constructs an IdentityService instance.
func NewIdentityService(repo identityRepository, images imageStore, detector face.Detector, validate *validator.Validate, logger *zap.Logger, config IdentityConfig, isDup uniqueViolationChecker) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if isDup == nil {
		isDup = func(error) bool { return false }
	}
	return &IdentityService{
		repo:      repo,
		images:    images,
		detector:  detector,
		validator: validate,
		logger:    logger,
		config:    config,
		isDup:     isDup,
	}
}

// Register creates an account from the sign-up form and profile photo.
// The photo must decode as an image and contain exactly one face before
// anything is persisted; a failed insert removes the stored file.
func (s *IdentityService) Register(ctx context.Context, req dto.RegisterRequest, photo []byte) (*dto.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	format, err := decodeImageFormat(photo)
	if err != nil {
		return nil, err
	}

	faceCount := 1
	if s.config.FaceEnabled && s.detector != nil {
		faceCount, err = s.detector.DetectFaces(ctx, bytes.NewReader(photo))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "face detection failed")
		}
		switch {
		case faceCount == 0:
			return nil, appErrors.ErrNoFaceDetected
		case faceCount > 1:
			return nil, appErrors.ErrMultipleFaces
		}
	}

	validUntil, err := parseDate(req.ValidUntil)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "valid_until must be a date (YYYY-MM-DD)")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	filename := fmt.Sprintf("%s.%s", req.RegNo, format)
	if _, err := s.images.Save(filename, photo); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store profile image")
	}

	identity := &models.Identity{
		RegNo:         req.RegNo,
		PasswordHash:  string(hash),
		Email:         req.Email,
		Phone:         req.Phone,
		Department:    req.Department,
		ClassName:     req.ClassName,
		HodName:       req.HodName,
		InchargeName:  req.InchargeName,
		ImageFilename: filename,
		FaceCount:     faceCount,
		Role:          models.RoleStudent,
		ValidUntil:    validUntil,
	}

	if err := s.repo.Create(ctx, identity); err != nil {
		if cleanupErr := s.images.Delete(filename); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned profile image", zap.String("filename", filename), zap.Error(cleanupErr))
		}
		if s.isDup(err) {
			return nil, appErrors.ErrDuplicateRegistration
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create identity")
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		RegNo:      &identity.RegNo,
		Action:     models.AuditActionRegister,
		Resource:   "identity",
		ResourceID: &identity.RegNo,
		NewValues:  []byte(`{"status":"registered"}`),
	}); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(err))
	}

	return &dto.UserInfo{
		RegNo:      identity.RegNo,
		Name:       identity.Email,
		Email:      identity.Email,
		Department: identity.Department,
		ClassName:  identity.ClassName,
		Image:      identity.ImageFilename,
	}, nil
}

// Authenticate verifies credentials and issues an access token.
func (s *IdentityService) Authenticate(ctx context.Context, req dto.LoginRequest) (*dto.LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	identity, err := s.repo.FindByRegNo(ctx, req.RegNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch identity")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	if identity.Expired(time.Now().UTC()) {
		return nil, appErrors.ErrAccountExpired
	}

	accessToken, err := s.generateAccessToken(identity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		RegNo:      &identity.RegNo,
		Action:     models.AuditActionLogin,
		Resource:   "identity",
		ResourceID: &identity.RegNo,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record login audit log", zap.Error(err))
	}

	return &dto.LoginResult{
		User: dto.UserInfo{
			RegNo:      identity.RegNo,
			Name:       identity.Email,
			Email:      identity.Email,
			Department: identity.Department,
			ClassName:  identity.ClassName,
			Image:      identity.ImageFilename,
		},
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.JWTExpiration.Seconds()),
	}, nil
}

// Profile returns the stored identity for the given registration number.
func (s *IdentityService) Profile(ctx context.Context, regNo string) (*models.Identity, error) {
	identity, err := s.repo.FindByRegNo(ctx, regNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "identity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch identity")
	}
	return identity, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *IdentityService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *IdentityService) generateAccessToken(identity *models.Identity) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		RegNo:      identity.RegNo,
		Email:      identity.Email,
		Department: identity.Department,
		ClassName:  identity.ClassName,
		Role:       identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   identity.RegNo,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.JWTExpiration)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// decodeImageFormat confirms the payload is a decodable JPEG or PNG and
// returns the format name for the stored filename extension.
func decodeImageFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", appErrors.ErrInvalidImage
	}
	switch format {
	case "jpeg":
		return "jpg", nil
	case "png":
		return "png", nil
	default:
		return "", appErrors.Clone(appErrors.ErrInvalidImage, "only JPEG and PNG images are accepted")
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
