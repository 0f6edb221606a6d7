package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "dealflow-test-jwt-secret"

// SetupTestDB opens an isolated in-memory database and migrates all tables.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 独立命名的共享内存库：连接池里的每个连接都要看到同一份数据
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email, role string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"role":  role,
		"iss":   "dealflow",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// TokenFor returns a token for an existing test user
func TokenFor(user *entity.User) string {
	return GenerateTestToken(user.ID, user.FullName(), user.Email, user.Role)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedUser creates a test user with the given role
func SeedUser(t *testing.T, db *gorm.DB, email, role string) *entity.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password12345"), bcrypt.MinCost)
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     role,
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return user
}

// SeedCompany creates a test company
func SeedCompany(t *testing.T, db *gorm.DB, name, legalID string) *entity.Company {
	t.Helper()
	company := &entity.Company{
		ID:        uuid.New().String(),
		Name:      name,
		LegalID:   legalID,
		Country:   "DE",
		Sector:    "Technology",
		Size:      entity.CompanySizeMedium,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("Failed to seed test company: %v", err)
	}
	return company
}

// SeedStage creates a test pipeline stage
func SeedStage(t *testing.T, db *gorm.DB, name string, order int, probability float64) *entity.Stage {
	t.Helper()
	stage := &entity.Stage{
		ID:                 uuid.New().String(),
		Name:               name,
		Order:              order,
		DefaultProbability: probability,
		CreatedAt:          time.Now(),
	}
	if err := db.Create(stage).Error; err != nil {
		t.Fatalf("Failed to seed test stage: %v", err)
	}
	return stage
}

// SeedDeal creates a test deal
func SeedDeal(t *testing.T, db *gorm.DB, title string, company *entity.Company, owner *entity.User, stage *entity.Stage) *entity.Deal {
	t.Helper()
	deal := &entity.Deal{
		ID:          uuid.New().String(),
		Title:       title,
		CompanyID:   company.ID,
		OwnerID:     owner.ID,
		StageID:     stage.ID,
		Probability: stage.DefaultProbability,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := db.Create(deal).Error; err != nil {
		t.Fatalf("Failed to seed test deal: %v", err)
	}
	return deal
}
