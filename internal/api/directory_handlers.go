package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/db"
)

// GetCategories lists service categories with their subcategories.
func (a *API) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := db.ListCategories()
	if err != nil {
		log.WithError(err).Error("Failed to list categories.")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSONSuccess(w, "", categories)
}

// UpdateMyServices replaces the authenticated tradesperson's offered services.
func (a *API) UpdateMyServices(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)

	var req struct {
		SubcategoryIDs []int64 `json:"subcategory_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := db.SetTradespersonServices(user.ID, req.SubcategoryIDs); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to update offered services.")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSONSuccess(w, "Services updated.", nil)
}

// SearchTradespeople filters the directory by subcategory and/or city.
func (a *API) SearchTradespeople(w http.ResponseWriter, r *http.Request) {
	subcategoryID, _ := strconv.ParseInt(r.URL.Query().Get("subcategory"), 10, 64)
	city := r.URL.Query().Get("city")

	listings, err := db.ListTradespeople(subcategoryID, city)
	if err != nil {
		log.WithError(err).Error("Failed to search tradespeople.")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSONSuccess(w, "", listings)
}
