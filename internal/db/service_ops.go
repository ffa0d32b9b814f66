package db

import (
	"database/sql"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// ListCategories returns every service category with its subcategories,
// alphabetically.
func ListCategories() ([]models.ServiceCategory, error) {
	rows, err := DB.Query(`
        SELECT c.id, c.name, c.created_at, s.id, s.name
        FROM service_categories c
        LEFT JOIN service_subcategories s ON s.category_id = c.id
        ORDER BY c.name ASC, s.name ASC`)
	if err != nil {
		log.WithError(err).Error("ListCategories: query failed")
		return nil, err
	}
	defer rows.Close()

	var categories []models.ServiceCategory
	byID := make(map[int64]int)
	for rows.Next() {
		var cat models.ServiceCategory
		var subID sql.NullInt64
		var subName sql.NullString
		if errScan := rows.Scan(&cat.ID, &cat.Name, &cat.CreatedAt, &subID, &subName); errScan != nil {
			log.WithError(errScan).Error("ListCategories: scan failed")
			return nil, errScan
		}
		idx, seen := byID[cat.ID]
		if !seen {
			categories = append(categories, cat)
			idx = len(categories) - 1
			byID[cat.ID] = idx
		}
		if subID.Valid {
			categories[idx].Subcategories = append(categories[idx].Subcategories, models.SubCategory{
				ID:         subID.Int64,
				CategoryID: cat.ID,
				Name:       subName.String,
			})
		}
	}
	return categories, rows.Err()
}

// ListTradespeople searches the directory. Zero subcategoryID and empty city
// mean "no filter". Results are tradesperson accounts only.
func ListTradespeople(subcategoryID int64, city string) ([]models.TradespersonListing, error) {
	rows, err := DB.Query(`
        SELECT u.id, p.first_name, p.last_name, p.preferred_name,
               COALESCE(p.business_name, ''), p.city, p.province,
               COALESCE(array_agg(s.name ORDER BY s.name) FILTER (WHERE s.id IS NOT NULL), '{}')
        FROM users u
        JOIN user_profiles p ON p.user_id = u.id
        LEFT JOIN tradesperson_services ts ON ts.user_id = u.id
        LEFT JOIN service_subcategories s ON s.id = ts.subcategory_id
        WHERE u.role = 'tradesperson'
          AND ($1 = 0 OR EXISTS (
               SELECT 1 FROM tradesperson_services f
               WHERE f.user_id = u.id AND f.subcategory_id = $1))
          AND ($2 = '' OR LOWER(p.city) = LOWER($2))
        GROUP BY u.id, p.first_name, p.last_name, p.preferred_name, p.business_name, p.city, p.province
        ORDER BY p.business_name NULLS LAST, p.last_name, p.first_name`,
		subcategoryID, city)
	if err != nil {
		log.WithError(err).Error("ListTradespeople: query failed")
		return nil, err
	}
	defer rows.Close()

	var listings []models.TradespersonListing
	for rows.Next() {
		var l models.TradespersonListing
		var firstName, lastName, preferredName string
		if errScan := rows.Scan(&l.UserID, &firstName, &lastName, &preferredName,
			&l.BusinessName, &l.City, &l.Province, pq.Array(&l.Services)); errScan != nil {
			log.WithError(errScan).Error("ListTradespeople: scan failed")
			return nil, errScan
		}
		profile := models.UserProfile{FirstName: firstName, LastName: lastName, PreferredName: preferredName}
		l.DisplayName = profile.DisplayName()
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// SetTradespersonServices replaces the set of services a tradesperson offers.
func SetTradespersonServices(userID int64, subcategoryIDs []int64) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM tradesperson_services WHERE user_id = $1`, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("SetTradespersonServices: delete failed")
		return err
	}
	for _, subID := range subcategoryIDs {
		if _, err = tx.Exec(`
            INSERT INTO tradesperson_services (user_id, subcategory_id)
            VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, subID); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("SetTradespersonServices: insert failed")
			return err
		}
	}
	return tx.Commit()
}
