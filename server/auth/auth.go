package auth

import (
	"net/http"
	"time"

	"github.com/Jatinnn-r/Video-Streaming-Platform/pkg/pwdhash"
	"github.com/Jatinnn-r/Video-Streaming-Platform/pkg/rando"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/model"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/www"
	"gorm.io/gorm"
)

type Credentials struct {
	UserID                           int64
	AuthenticatedViaSessionCookie    string // If authenticated via session cookie, this is pwdhash.HashSessionTokenBase64(cookie.Value)
	AuthenticatedViaUsernamePassword bool   // If authenticated via BASIC username/password, this is true
}

type AuthServer struct {
	db                *gorm.DB
	log               logs.Log
	sessionCookieName string
}

func NewAuthServer(db *gorm.DB, log logs.Log, sessionCookieName string) *AuthServer {
	return &AuthServer{
		db:                db,
		log:               log,
		sessionCookieName: sessionCookieName,
	}
}

// If authorization fails, sends a 401 to 'w', and returns nil.
// If authorization succeeds, returns a non-nil Credentials.
func (a *AuthServer) AuthenticateRequest(w http.ResponseWriter, r *http.Request) *Credentials {
	cookie, _ := r.Cookie(a.sessionCookieName)
	if cookie != nil {
		hashedTokenb64 := pwdhash.HashSessionTokenBase64(cookie.Value)
		session := model.AuthSession{}
		a.db.First(&session, "key = ?", hashedTokenb64)
		if session.AuthUserID != 0 && session.ExpiresAt.After(time.Now()) {
			return &Credentials{
				UserID:                        session.AuthUserID,
				AuthenticatedViaSessionCookie: hashedTokenb64,
			}
		}
	}
	if username, password, ok := r.BasicAuth(); ok {
		user := model.AuthUser{}
		a.db.First(&user, "email = ?", username)
		if user.ID != 0 && pwdhash.VerifyHashBase64(password, user.Password) {
			return &Credentials{
				UserID:                           user.ID,
				AuthenticatedViaUsernamePassword: true,
			}
		}
	}

	www.SendError(w, "Unauthorized", http.StatusUnauthorized)
	return nil
}

// Login authenticates the request (BASIC auth on first contact), creates a
// session, and sends the session cookie.
func (a *AuthServer) Login(w http.ResponseWriter, r *http.Request) {
	cred := a.AuthenticateRequest(w, r)
	if cred == nil {
		return
	}
	if cred.AuthenticatedViaSessionCookie != "" {
		// Already logged in
		www.SendOK(w)
		return
	}

	now := time.Now().UTC()
	expiresAt := now.Add(365 * 24 * time.Hour)

	token := rando.StrongRandomAlphaNumChars(20)
	session := model.AuthSession{
		Key:        pwdhash.HashSessionTokenBase64(token),
		AuthUserID: cred.UserID,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}
	if err := a.db.Create(&session).Error; err != nil {
		a.log.Errorf("Error creating session: %v", err)
		www.SendError(w, "Error creating session", http.StatusInternalServerError)
		return
	}
	cookie := &http.Cookie{
		Name:    a.sessionCookieName,
		Value:   token,
		Path:    "/",
		Expires: expiresAt,
	}
	http.SetCookie(w, cookie)
	www.SendOK(w)
}

// Logout erases the calling session (if there is one) and expires the cookie.
func (a *AuthServer) Logout(w http.ResponseWriter, r *http.Request, cred *Credentials) {
	if cred.AuthenticatedViaSessionCookie != "" {
		if err := a.db.Delete(&model.AuthSession{}, "key = ?", cred.AuthenticatedViaSessionCookie).Error; err != nil {
			a.log.Errorf("Error deleting session: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:    a.sessionCookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})
	www.SendOK(w)
}
