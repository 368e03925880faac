package tables

import (
	"context"
	"time"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/rollcall/internal/core"
)

func init() {
	registerUsers()
}

// UsersKey is the roster table key.
const UsersKey = "users"

func registerUsers() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:           UsersKey,
			Group:         "Roster",
			Label:         "Volunteers",
			Description:   "Members with attendance counts and volunteer hours",
			IdentityField: "id",
			DefaultSort:   "name",
			Locale:        language.English,
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Label: "ID", Type: core.FieldText, Sortable: true},
			{Name: "name", Label: "Name", Type: core.FieldText, Searchable: true, Sortable: true},
			{Name: "email", Label: "Email", Type: core.FieldText, Searchable: true, Sortable: true, CaseInsensitive: true},
			{Name: "attendance", Label: "Attendance", Type: core.FieldNumeric, Sortable: true, DefaultZero: true},
			{
				Name:     "hours",
				Label:    "Hours",
				Type:     core.FieldNumeric,
				Range:    true,
				Bounds:   core.NumericRange{Min: 0, Max: 100},
				Sortable: true,
			},
			{
				Name:        "role",
				Label:       "Role",
				Type:        core.FieldEnum,
				Categorical: true,
				Sortable:    true,
				EnumValues:  core.Roles,
			},
			{Name: "join_date", Label: "Join Date", Type: core.FieldDate, Sortable: true},
		},
		Fetch: fetchUsers,
	})
}

func fetchUsers(ctx context.Context, store core.Store, _ time.Time) ([]core.Record, error) {
	members, err := store.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]core.Record, len(members))
	for i, m := range members {
		records[i] = MemberRecord(m)
	}
	return records, nil
}

// MemberRecord flattens a member into a users record.
func MemberRecord(m core.Member) core.Record {
	return core.Record{
		"id":         m.ID.String(),
		"name":       m.Name,
		"email":      m.Email,
		"attendance": m.Attendance,
		"hours":      m.Hours,
		"role":       m.Role,
		"join_date":  m.JoinDate,
	}
}
