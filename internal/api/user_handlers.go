package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"github.com/olugbengaakindele/handyhubclean/internal/constants"
	"github.com/olugbengaakindele/handyhubclean/internal/db"
	"github.com/olugbengaakindele/handyhubclean/internal/models"
	"github.com/olugbengaakindele/handyhubclean/internal/utils"
)

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	AccountType   string `json:"account_type"` // visitor or tradesperson
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PreferredName string `json:"preferred_name"`
	BusinessName  string `json:"business_name"`
	Phone         string `json:"phone"`
	City          string `json:"city"`
	Province      string `json:"province"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SESSION_COOKIE_NAME,
		Value:    token,
		Path:     "/",
		MaxAge:   int(constants.SESSION_TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.AppEnv != "dev",
	})
}

// Register creates an account with its profile in one transaction, so a user
// without a profile cannot exist, then opens a session.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fieldErrors := map[string][]string{}

	email, err := utils.ValidateEmail(req.Email)
	if err != nil {
		fieldErrors["email"] = []string{err.Error()}
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = []string{"password must be at least 8 characters"}
	}
	if req.FirstName == "" {
		fieldErrors["first_name"] = []string{"first name is required"}
	}
	if req.LastName == "" {
		fieldErrors["last_name"] = []string{"last name is required"}
	}

	role := req.AccountType
	if role != constants.ROLE_VISITOR && role != constants.ROLE_TRADESPERSON {
		fieldErrors["account_type"] = []string{"account type must be visitor or tradesperson"}
	}

	phone, err := utils.ValidatePhoneNumber(req.Phone)
	if err != nil {
		fieldErrors["phone"] = []string{err.Error()}
	}

	if len(fieldErrors) > 0 {
		writeChatJSON(w, http.StatusBadRequest, chatResponse{OK: false, Errors: fieldErrors})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("Register: bcrypt failed")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	profile := models.UserProfile{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		PreferredName: req.PreferredName,
		City:          req.City,
		Province:      req.Province,
	}
	if req.BusinessName != "" {
		profile.BusinessName = sql.NullString{String: req.BusinessName, Valid: true}
	}
	if phone != "" {
		profile.Phone = sql.NullString{String: phone, Valid: true}
	}

	user, err := db.CreateUser(email, string(hash), role, profile)
	if err != nil {
		if err == db.ErrEmailTaken {
			writeChatJSON(w, http.StatusBadRequest, chatResponse{OK: false, Errors: map[string][]string{
				"email": {"this email is already registered"},
			}})
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	a.setSessionCookie(w, a.Sessions.Create(user.ID))
	writeJSONSuccess(w, "Account created.", map[string]interface{}{"user_id": user.ID})
}

// Login verifies credentials and opens a session.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email, err := utils.ValidateEmail(req.Email)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	user, err := db.GetUserByEmail(email)
	if err != nil {
		// Same answer for unknown email and wrong password.
		writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	a.setSessionCookie(w, a.Sessions.Create(user.ID))
	writeJSONSuccess(w, "Logged in.", map[string]interface{}{"user_id": user.ID})
}

// Logout destroys the current session.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(constants.SESSION_COOKIE_NAME); err == nil {
		a.Sessions.Destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   constants.SESSION_COOKIE_NAME,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSONSuccess(w, "Logged out.", nil)
}

// GetMe returns the authenticated user and their profile.
func (a *API) GetMe(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)

	profile, err := db.GetUserProfile(user.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("GetMe: profile load failed")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSONSuccess(w, "", map[string]interface{}{
		"user":    user,
		"profile": profile,
	})
}

// GetTradespersonProfile returns a public tradesperson profile.
func (a *API) GetTradespersonProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeNotFound(w)
		return
	}

	user, err := db.GetUserByID(id)
	if err != nil || user.Role != constants.ROLE_TRADESPERSON {
		writeNotFound(w)
		return
	}
	profile, err := db.GetUserProfile(id)
	if err != nil {
		writeNotFound(w)
		return
	}

	writeJSONSuccess(w, "", map[string]interface{}{
		"user_id":       user.ID,
		"display_name":  profile.DisplayName(),
		"business_name": profile.BusinessName.String,
		"summary":       profile.Summary.String,
		"city":          profile.City,
		"province":      profile.Province,
	})
}

// GetTradespersonQR returns a PNG QR code pointing at the tradesperson's
// public profile page, for printed flyers and van decals.
func (a *API) GetTradespersonQR(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeNotFound(w)
		return
	}
	user, err := db.GetUserByID(id)
	if err != nil || user.Role != constants.ROLE_TRADESPERSON {
		writeNotFound(w)
		return
	}

	profileURL := a.Config.SiteURL + "/tradespeople/" + strconv.FormatInt(id, 10) + "/"
	png, err := qrcode.Encode(profileURL, qrcode.Medium, 256)
	if err != nil {
		log.WithError(err).WithField("user_id", id).Error("Failed to encode profile QR code.")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
