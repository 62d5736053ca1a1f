package auth

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/models"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *Service
}

func (suite *AuthServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.AutoMigrate(&models.User{}))

	suite.db = db
	suite.service = NewService(db, []byte("test_jwt_secret_key"), time.Hour)
}

func (suite *AuthServiceTestSuite) register() *AuthResponse {
	resp, err := suite.service.Register(RegisterRequest{
		Email:             "alice@example.com",
		Username:          "alice",
		Password:          "correct-horse",
		PreferredLanguage: "es",
	})
	require.NoError(suite.T(), err)
	return resp
}

func (suite *AuthServiceTestSuite) TestRegister() {
	resp := suite.register()

	assert.NotEmpty(suite.T(), resp.Token)
	assert.NotEmpty(suite.T(), resp.User.ID)
	assert.Equal(suite.T(), "alice", resp.User.Username)
	assert.Equal(suite.T(), "es", resp.User.PreferredLanguage)
	assert.NotEqual(suite.T(), "correct-horse", resp.User.PasswordHash, "password must be stored hashed")
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	suite.register()

	_, err := suite.service.Register(RegisterRequest{
		Email:    "ALICE@example.com", // case-insensitive match
		Username: "alice2",
		Password: "correct-horse",
	})
	assert.ErrorIs(suite.T(), err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateUsername() {
	suite.register()

	_, err := suite.service.Register(RegisterRequest{
		Email:    "other@example.com",
		Username: "Alice",
		Password: "correct-horse",
	})
	assert.ErrorIs(suite.T(), err, ErrUsernameExists)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	suite.register()

	resp, err := suite.service.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.Token)
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	suite.register()

	_, err := suite.service.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLoginUnknownUser() {
	_, err := suite.service.Login(LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

func (suite *AuthServiceTestSuite) TestValidateToken() {
	resp := suite.register()

	user, err := suite.service.ValidateToken(resp.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, user.ID)
	assert.Equal(suite.T(), "es", user.PreferredLanguage)
}

func (suite *AuthServiceTestSuite) TestValidateTokenRejectsGarbage() {
	_, err := suite.service.ValidateToken("not.a.token")
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestValidateTokenRejectsWrongSecret() {
	other := NewService(suite.db, []byte("different_secret"), time.Hour)
	resp := suite.register()

	_, err := other.ValidateToken(resp.Token)
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestValidateTokenExpired() {
	expired := NewService(suite.db, []byte("test_jwt_secret_key"), time.Nanosecond)
	resp, err := expired.Register(RegisterRequest{
		Email:    "late@example.com",
		Username: "latecomer",
		Password: "correct-horse",
	})
	require.NoError(suite.T(), err)

	time.Sleep(10 * time.Millisecond)
	_, err = expired.ValidateToken(resp.Token)
	assert.Error(suite.T(), err)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
