package demoapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/backer/internal/platform"
)

// record is one stored row. The id is always an int64 under "id".
type record map[string]any

func (r record) id() int64 {
	id, _ := r["id"].(int64)
	return id
}

func (r record) clone() record {
	out := make(record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// table is an ordered collection of records of one resource.
type table struct {
	rows   []record
	nextID int64
}

func (t *table) find(id int64) (int, record) {
	for i, r := range t.rows {
		if r.id() == id {
			return i, r
		}
	}
	return -1, nil
}

func (t *table) insert(r record) record {
	t.nextID++
	r["id"] = t.nextID
	t.rows = append(t.rows, r)
	return r
}

var (
	campaignTitles = []string{
		"Solar Roofs", "Clean Water Wells", "Library Books", "Community Garden", "River Cleanup",
		"School Laptops", "Animal Shelter", "Food Bank", "Music Lessons", "Bike Lanes",
		"Coral Restoration", "Youth Soccer", "Winter Coats", "Tree Planting", "Art Supplies",
	}
	organizationNames = []string{
		"Green Future", "Open Hands", "River Keepers", "Bright Minds", "Paws United",
		"Neighbors First", "Ocean Trust", "Kids Play", "Warm Homes", "City Bikes",
		"Book Bridge", "Harvest Share",
	}
	categoryNames = []string{
		"Environment", "Education", "Health", "Animals", "Community", "Arts", "Sports", "Emergency",
	}
	campaignStatuses    = []string{"active", "active", "draft", "completed", "cancelled"}
	transactionStatuses = []string{"completed", "completed", "pending", "failed", "refunded"}
)

// seed fills s with a deterministic dataset sized to exercise pagination.
func (s *Server) seed() {
	base := s.now().UTC().Truncate(time.Hour).Add(-90 * 24 * time.Hour)
	stamp := func(i int) string {
		return base.Add(time.Duration(i) * 7 * time.Hour).Format(time.RFC3339)
	}

	cats := s.tables[platform.Categories]
	for i, name := range categoryNames {
		cats.insert(record{
			"name":      name,
			"slug":      slug(name),
			"is_active": i != len(categoryNames)-1,
		})
	}

	orgs := s.tables[platform.Organizations]
	for i, name := range organizationNames {
		status := "approved"
		switch i % 4 {
		case 1:
			status = "pending"
		case 3:
			if i > 8 {
				status = "rejected"
			}
		}
		orgs.insert(record{
			"name":        name,
			"email":       fmt.Sprintf("contact@%s.org", slug(name)),
			"status":      status,
			"is_verified": status == "approved",
			"created_at":  stamp(i * 3),
		})
	}

	camps := s.tables[platform.Campaigns]
	for i := 0; i < 45; i++ {
		org := orgs.rows[i%len(orgs.rows)]
		title := campaignTitles[i%len(campaignTitles)]
		if i >= len(campaignTitles) {
			title = fmt.Sprintf("%s %d", title, i/len(campaignTitles)+1)
		}
		camps.insert(record{
			"title":         title,
			"organization":  map[string]any{"id": org.id(), "name": org["name"]},
			"category":      categoryNames[i%len(categoryNames)],
			"status":        campaignStatuses[i%len(campaignStatuses)],
			"goal_amount":   float64(5000 + (i%9)*2500),
			"raised_amount": float64((i * 737) % 12000),
			"featured":      i%6 == 0,
			"is_active":     i%5 != 4,
			"created_at":    stamp(i * 2),
		})
	}

	users := s.tables[platform.Users]
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("user%02d", i+1)
		users.insert(record{
			"username":    name,
			"email":       name + "@example.org",
			"role":        rolesForSeed[i%len(rolesForSeed)],
			"is_active":   i%7 != 6,
			"date_joined": stamp(i * 4),
		})
	}

	txs := s.tables[platform.Transactions]
	for i := 0; i < 60; i++ {
		camp := camps.rows[i%len(camps.rows)]
		txs.insert(record{
			"reference":  fmt.Sprintf("TX-%05d", 10000+i*37),
			"campaign":   camp["title"],
			"user":       users.rows[i%len(users.rows)]["username"],
			"amount":     float64(10 + (i*53)%490),
			"status":     transactionStatuses[i%len(transactionStatuses)],
			"flagged":    i%11 == 0,
			"created_at": stamp(i),
		})
	}

	s.favorites = []int64{1, 7, 13, 19, 25, 31, 37}
	s.unread = 3

	s.logAction("verify", platform.Organizations, orgs.rows[0])
	s.logAction("feature", platform.Campaigns, camps.rows[0])
	s.logAction("flag", platform.Transactions, txs.rows[0])
}

var rolesForSeed = []string{"donor", "donor", "donor", "volunteer", "organizer", "admin"}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}
