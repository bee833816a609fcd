package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veilboard/veilboard/models"
	"github.com/veilboard/veilboard/services"
	"github.com/veilboard/veilboard/utils"
)

func TestMain(m *testing.M) {
	// Config is loaded lazily on first use; the secret must exist before any
	// route setup or token work happens.
	os.Setenv("JWT_SECRET", "router-test-secret")
	os.Setenv("GIN_MODE", "test")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CheckIn{},
		&models.Post{},
		&models.Comment{},
		&models.Message{},
	))

	bus := services.NewEventBus()
	counter := services.NewNotificationCounter(utils.GetRedis())
	subID := counter.Attach(bus)
	t.Cleanup(func() { bus.Unsubscribe(subID) })

	return SetupRouter(db, bus, counter), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func registerAndLogin(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	creds := gin.H{"username": username, "password": "hunter2hunter2"}

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w, body := doJSON(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["code"])
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	r, _ := newTestRouter(t)
	w, body := doJSON(t, r, http.MethodGet, "/api/v1/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.EqualValues(t, 40400, body["code"])
}

func TestRegister_DuplicateUsernameConflicts(t *testing.T) {
	r, _ := newTestRouter(t)
	creds := gin.H{"username": "dupe_user", "password": "hunter2hunter2"}

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, 40910, body["code"])
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	r, _ := newTestRouter(t)
	registerAndLogin(t, r, "login_user")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"username": "login_user", "password": "not-the-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/checkin", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckInFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "checkin_user")

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/checkin", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["accepted"])
	assert.EqualValues(t, 1, data["streak_days"])

	// Same-day repeat is a normal response, not an error.
	w, body = doJSON(t, r, http.MethodPost, "/api/v1/checkin", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = body["data"].(map[string]any)
	assert.Equal(t, false, data["accepted"])
	assert.EqualValues(t, 1, data["streak_days"])

	w, body = doJSON(t, r, http.MethodGet, "/api/v1/privilege/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := body["data"].(map[string]any)
	assert.Equal(t, false, status["is_vip"])
	assert.EqualValues(t, 1, status["streak_days"])
	assert.Equal(t, false, status["has_posted"])
	assert.NotNil(t, status["last_checkin_at"])
}

func TestNearbyAuthorize_DeniedWithoutGrant(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "nearby_user")

	w, body := doJSON(t, r, http.MethodGet, "/api/v1/nearby/authorize", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, 40330, body["code"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "PrivilegeInsufficient", data["reason"])
	assert.NotEmpty(t, data["hint"])
}

func TestPostFlowFlipsHasPosted(t *testing.T) {
	r, db := newTestRouter(t)
	token := registerAndLogin(t, r, "post_user")

	w, body := doJSON(t, r, http.MethodPost, "/api/v1/posts", token,
		gin.H{"title": "first post", "content": "hello world"})
	require.Equal(t, http.StatusOK, w.Code)
	post := body["data"].(map[string]any)["post"].(map[string]any)
	assert.NotEmpty(t, post["pseudonym"])
	assert.NotEmpty(t, post["avatar_seed"])
	// The author's account id never leaves the server.
	assert.NotContains(t, post, "author_id")

	var user models.User
	require.NoError(t, db.Where("username = ?", "post_user").First(&user).Error)
	assert.True(t, user.HasPosted)

	postID := uint(post["id"].(float64))
	w, body = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", postID), token,
		gin.H{"content": "my own reply"})
	require.Equal(t, http.StatusOK, w.Code)
	comment := body["data"].(map[string]any)["comment"].(map[string]any)
	// The author replies under the post's identity.
	assert.Equal(t, post["pseudonym"], comment["pseudonym"])
	assert.Equal(t, post["avatar_seed"], comment["avatar_seed"])
}

func TestListPostsIsPublic(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "lister")
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/posts", token,
		gin.H{"title": "visible", "content": "to everyone"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := body["data"].(map[string]any)["items"].([]any)
	assert.Len(t, items, 1)
}

func TestMessageGateOverHTTP(t *testing.T) {
	r, db := newTestRouter(t)
	senderToken := registerAndLogin(t, r, "msg_sender")
	registerAndLogin(t, r, "msg_recipient")

	var sender, recipient models.User
	require.NoError(t, db.Where("username = ?", "msg_sender").First(&sender).Error)
	require.NoError(t, db.Where("username = ?", "msg_recipient").First(&recipient).Error)

	// Self-message: always forbidden, its own code.
	w, body := doJSON(t, r, http.MethodPost, "/api/v1/messages", senderToken,
		gin.H{"recipient_id": sender.ID, "content": "note to self"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, 40321, body["code"])

	// Neither side VIP, no thread: privilege denial with a remediation hint.
	w, body = doJSON(t, r, http.MethodPost, "/api/v1/messages", senderToken,
		gin.H{"recipient_id": recipient.ID, "content": "hello"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, 40320, body["code"])
	assert.NotEmpty(t, body["data"].(map[string]any)["hint"])

	// Unknown recipient.
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/messages", senderToken,
		gin.H{"recipient_id": 9999, "content": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageSendAndThreadWithVip(t *testing.T) {
	r, db := newTestRouter(t)
	senderToken := registerAndLogin(t, r, "vip_sender")
	recipientToken := registerAndLogin(t, r, "vip_recipient")

	var sender, recipient models.User
	require.NoError(t, db.Where("username = ?", "vip_sender").First(&sender).Error)
	require.NoError(t, db.Where("username = ?", "vip_recipient").First(&recipient).Error)
	require.NoError(t, db.Model(&sender).Update("vip_expires_at", timeNowPlusHour()).Error)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/messages", senderToken,
		gin.H{"recipient_id": recipient.ID, "content": "opening"})
	require.Equal(t, http.StatusOK, w.Code)

	// The recipient can reply through the existing thread without VIP.
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/messages", recipientToken,
		gin.H{"recipient_id": sender.ID, "content": "reply"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/api/v1/messages/%d", recipient.ID), senderToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := body["data"].(map[string]any)["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.EqualValues(t, sender.ID, first["sender_id"])
}

func TestNotificationCountDegradesToZero(t *testing.T) {
	// Without a reachable redis the badge endpoint answers zero rather than
	// failing the request.
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "notify_user")

	w, body := doJSON(t, r, http.MethodGet, "/api/v1/notifications/count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["data"].(map[string]any)["unread"])
}

func timeNowPlusHour() time.Time {
	return time.Now().Add(time.Hour)
}

func TestLogoutRevokesToken(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "logout_user")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
