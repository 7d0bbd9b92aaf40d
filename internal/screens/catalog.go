package screens

import (
	"fmt"

	"github.com/five82/backer/internal/console"
	"github.com/five82/backer/internal/platform"
)

// Screen ids, also accepted as prefs start_screen values.
const (
	CampaignsID     = "campaigns"
	OrganizationsID = "organizations"
	UsersID         = "users"
	FinancesID      = "finances"
	CategoriesID    = "categories"
	ActionLogID     = "actions"
)

// Roles is the cycle order used by the user role change action.
var Roles = []string{"donor", "volunteer", "organizer", "admin"}

// All returns the admin screens in tab order.
func All() []Screen {
	return []Screen{
		campaigns(),
		organizations(),
		users(),
		finances(),
		categories(),
		actionLog(),
	}
}

// ByID returns the screen with id.
func ByID(id string) (Screen, bool) {
	for _, s := range All() {
		if s.ID == id {
			return s, true
		}
	}
	return Screen{}, false
}

func search() FilterSpec {
	return FilterSpec{Key: "search", Label: "Search", Intent: console.IntentTextSearch}
}

func choice(key, label string, options ...string) FilterSpec {
	return FilterSpec{Key: key, Label: label, Intent: console.IntentSelect, Options: options}
}

func ordering(options ...string) FilterSpec {
	return choice(console.OrderingKey, "Order", options...)
}

func flip(field string) func(platform.Item) platform.Item {
	return func(it platform.Item) platform.Item { return it.With(field, !it.Bool(field)) }
}

func set(field string, value any) func(platform.Item) platform.Item {
	return func(it platform.Item) platform.Item { return it.With(field, value) }
}

func fieldIsNot(field string, value string) func(platform.Item) bool {
	return func(it platform.Item) bool { return it.String(field) != value }
}

func campaigns() Screen {
	return Screen{
		ID:         CampaignsID,
		Title:      "Campaigns",
		Resource:   platform.Campaigns,
		PageSize:   console.DefaultPageSize,
		Exportable: true,
		Filters: []FilterSpec{
			search(),
			choice("status", "Status", "active", "draft", "completed", "cancelled"),
			choice("featured", "Featured", "true", "false"),
			ordering("-created_at", "created_at", "-raised_amount", "title"),
		},
		Columns: []Column{
			{Title: "ID", Field: "id", Width: 6},
			{Title: "Title", Field: "title", Width: 28},
			{Title: "Organization", Field: "organization", Width: 18},
			{Title: "Status", Field: "status", Width: 10},
			{Title: "Raised", Field: "raised_amount", Width: 10},
			{Title: "Featured", Field: "featured", Width: 8},
		},
		Actions: []Action{
			{
				Kind:  "feature",
				Key:   "f",
				Label: "Feature",
				Path: func(it platform.Item) string {
					if it.Bool("featured") {
						return "unfeature"
					}
					return "feature"
				},
				Apply: flip("featured"),
				Prompt: func(it platform.Item) string {
					if it.Bool("featured") {
						return fmt.Sprintf("Unfeature %s?", DisplayName(it))
					}
					return fmt.Sprintf("Feature %s?", DisplayName(it))
				},
			},
			{
				Kind:   "activate",
				Key:    "t",
				Label:  "Toggle active",
				Method: MethodPatch,
				Body: func(it platform.Item) any {
					return map[string]any{"is_active": !it.Bool("is_active")}
				},
				Apply: flip("is_active"),
			},
			{
				Kind:   "delete",
				Key:    "D",
				Label:  "Delete",
				Method: MethodDelete,
			},
		},
		Bulk: []BulkSpec{
			{Kind: "bulk_feature", Key: "F", Label: "Feature"},
			{Kind: "bulk_unfeature", Key: "U", Label: "Unfeature"},
		},
	}
}

func organizations() Screen {
	return Screen{
		ID:         OrganizationsID,
		Title:      "Organizations",
		Resource:   platform.Organizations,
		PageSize:   console.DefaultPageSize,
		Exportable: true,
		Filters: []FilterSpec{
			search(),
			choice("is_verified", "Verified", "true", "false"),
			choice("status", "Status", "pending", "approved", "rejected"),
			ordering("-created_at", "name"),
		},
		Columns: []Column{
			{Title: "ID", Field: "id", Width: 6},
			{Title: "Name", Field: "name", Width: 28},
			{Title: "Email", Field: "email", Width: 24},
			{Title: "Status", Field: "status", Width: 10},
			{Title: "Verified", Field: "is_verified", Width: 8},
		},
		Actions: []Action{
			{
				Kind:         "verify",
				Key:          "v",
				Label:        "Verify",
				Apply:        func(it platform.Item) platform.Item { return it.With("is_verified", true).With("status", "approved") },
				Precondition: func(it platform.Item) bool { return !it.Bool("is_verified") },
			},
			{
				Kind:         "reject",
				Key:          "x",
				Label:        "Reject",
				Apply:        set("status", "rejected"),
				Precondition: fieldIsNot("status", "rejected"),
			},
			{
				Kind:   "delete",
				Key:    "D",
				Label:  "Delete",
				Method: MethodDelete,
			},
		},
		Bulk: []BulkSpec{
			{Kind: "bulk_verify", Key: "V", Label: "Verify"},
		},
	}
}

func users() Screen {
	return Screen{
		ID:         UsersID,
		Title:      "Users",
		Resource:   platform.Users,
		PageSize:   console.DefaultPageSize,
		Exportable: true,
		Filters: []FilterSpec{
			search(),
			choice("role", "Role", Roles...),
			choice("is_active", "Active", "true", "false"),
			ordering("-date_joined", "username"),
		},
		Columns: []Column{
			{Title: "ID", Field: "id", Width: 6},
			{Title: "Username", Field: "username", Width: 18},
			{Title: "Email", Field: "email", Width: 26},
			{Title: "Role", Field: "role", Width: 10},
			{Title: "Active", Field: "is_active", Width: 6},
		},
		Actions: []Action{
			{
				Kind:   "role",
				Key:    "r",
				Label:  "Change role",
				Method: MethodPatch,
				Body: func(it platform.Item) any {
					return map[string]any{"role": NextRole(it.String("role"))}
				},
				Apply: func(it platform.Item) platform.Item { return it.With("role", NextRole(it.String("role"))) },
				Prompt: func(it platform.Item) string {
					return fmt.Sprintf("Change %s role to %s?", DisplayName(it), NextRole(it.String("role")))
				},
			},
			{
				Kind:  "suspend",
				Key:   "s",
				Label: "Suspend",
				Path: func(it platform.Item) string {
					if it.Bool("is_active") {
						return "suspend"
					}
					return "activate"
				},
				Apply: flip("is_active"),
				Prompt: func(it platform.Item) string {
					if it.Bool("is_active") {
						return fmt.Sprintf("Suspend %s?", DisplayName(it))
					}
					return fmt.Sprintf("Reactivate %s?", DisplayName(it))
				},
			},
		},
		Bulk: []BulkSpec{
			{Kind: "bulk_activate", Key: "A", Label: "Activate"},
			{Kind: "bulk_suspend", Key: "S", Label: "Suspend"},
		},
	}
}

func finances() Screen {
	return Screen{
		ID:           FinancesID,
		Title:        "Finances",
		Resource:     platform.Transactions,
		PageSize:     console.DefaultPageSize,
		SendPageSize: true,
		Exportable:   true,
		Filters: []FilterSpec{
			search(),
			choice("status", "Status", "completed", "pending", "failed", "refunded", "revoked"),
			choice("flagged", "Flagged", "true", "false"),
			{Key: "created_after", Label: "After", Intent: console.IntentTextSearch},
			ordering("-created_at", "-amount", "amount"),
		},
		Columns: []Column{
			{Title: "ID", Field: "id", Width: 6},
			{Title: "Reference", Field: "reference", Width: 14},
			{Title: "Campaign", Field: "campaign", Width: 22},
			{Title: "Amount", Field: "amount", Width: 10},
			{Title: "Status", Field: "status", Width: 10},
			{Title: "Flagged", Field: "flagged", Width: 7},
		},
		Actions: []Action{
			{
				Kind:         "flag",
				Key:          "g",
				Label:        "Flag",
				Apply:        set("flagged", true),
				Precondition: func(it platform.Item) bool { return !it.Bool("flagged") },
			},
			{
				Kind:         "revoke",
				Key:          "R",
				Label:        "Revoke",
				Apply:        set("status", "revoked"),
				Precondition: fieldIsNot("status", "revoked"),
			},
		},
		Bulk: []BulkSpec{
			{Kind: "bulk_flag", Key: "G", Label: "Flag"},
		},
	}
}

func categories() Screen {
	return Screen{
		ID:       CategoriesID,
		Title:    "Categories",
		Resource: platform.Categories,
		PageSize: console.DefaultPageSize,
		Filters: []FilterSpec{
			search(),
			choice("is_active", "Active", "true", "false"),
		},
		Columns: []Column{
			{Title: "ID", Field: "id", Width: 6},
			{Title: "Name", Field: "name", Width: 24},
			{Title: "Slug", Field: "slug", Width: 18},
			{Title: "Active", Field: "is_active", Width: 6},
		},
		Actions: []Action{
			{
				Kind:   "activate",
				Key:    "t",
				Label:  "Toggle active",
				Method: MethodPatch,
				Body: func(it platform.Item) any {
					return map[string]any{"is_active": !it.Bool("is_active")}
				},
				Apply:     flip("is_active"),
				Reconcile: console.ReconcileBySnapshot,
			},
			{
				Kind:      "delete",
				Key:       "D",
				Label:     "Delete",
				Method:    MethodDelete,
				Reconcile: console.ReconcileBySnapshot,
			},
		},
	}
}

func actionLog() Screen {
	return Screen{
		ID:           ActionLogID,
		Title:        "Admin actions",
		Resource:     platform.AdminActions,
		PageSize:     console.ActionLogSize,
		SendPageSize: true,
		ReadOnly:     true,
		Exportable:   true,
		Filters: []FilterSpec{
			search(),
			choice("action_type", "Type", "verify", "reject", "feature", "unfeature", "suspend", "activate", "flag", "revoke", "delete", "role"),
			{Key: "created_after", Label: "After", Intent: console.IntentTextSearch},
		},
		Columns: []Column{
			{Title: "When", Field: "created_at", Width: 20},
			{Title: "Admin", Field: "admin", Width: 14},
			{Title: "Action", Field: "action_type", Width: 10},
			{Title: "Target", Field: "target", Width: 24},
		},
	}
}

// NextRole returns the role after current in Roles.
func NextRole(current string) string {
	for i, r := range Roles {
		if r == current {
			return Roles[(i+1)%len(Roles)]
		}
	}
	return Roles[0]
}
