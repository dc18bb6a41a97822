package store

import (
	"time"

	"budgeteer/internal/core"
)

// MonthDocument is one row per user per month.
type MonthDocument struct {
	UserID          string     `json:"user_id"`
	Month           string     `json:"month"`
	Data            MonthData  `json:"data"`
	AssignableMoney core.Money `json:"assignable_money"`
	ReadyToAssign   core.Money `json:"ready_to_assign"`
	UpdatedAt       time.Time  `json:"updated_at,omitempty"`
}

// MonthData is the category payload of a month document.
type MonthData struct {
	Categories []CategoryDocument `json:"categories"`
}

// CategoryDocument is one group and its items.
type CategoryDocument struct {
	ID            string         `json:"id,omitempty"`
	Name          string         `json:"name"`
	System        bool           `json:"system,omitempty"`
	CategoryItems []ItemDocument `json:"categoryItems"`
}

// ItemDocument is one item with its assigned and derived values.
type ItemDocument struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	AccountID string     `json:"account_id,omitempty"`
	Assigned  core.Money `json:"assigned"`
	Activity  core.Money `json:"activity"`
	Available core.Money `json:"available"`
	// Absorbs holds the IDs of items deleted onto this one in this month.
	Absorbs []string `json:"absorbs,omitempty"`
}

// AccountRecord is a stored account.
type AccountRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Issuer    string     `json:"issuer,omitempty"`
	Type      string     `json:"type"`
	Balance   core.Money `json:"balance"`
	CreatedAt time.Time  `json:"created_at"`
}

// TransactionRecord is a stored transaction. Both legs of a transfer carry
// the same MirrorID.
type TransactionRecord struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	AccountID     string     `json:"account_id"`
	Date          string     `json:"date"`
	Payee         string     `json:"payee_name"`
	CategoryGroup string     `json:"category_group"`
	CategoryItem  string     `json:"category_item"`
	Amount        core.Money `json:"amount"`
	Kind          string     `json:"kind"`
	MirrorID      string     `json:"mirror_id,omitempty"`
	Memo          string     `json:"memo,omitempty"`
}

// Item returns the item document with the given group and item names.
func (d MonthDocument) Item(group, item string) (ItemDocument, bool) {
	for _, c := range d.Data.Categories {
		if c.Name != group {
			continue
		}
		for _, it := range c.CategoryItems {
			if it.Name == item {
				return it, true
			}
		}
	}
	return ItemDocument{}, false
}

// Clone returns a copy that shares no slices with d.
func (d MonthDocument) Clone() MonthDocument {
	out := d
	out.Data.Categories = make([]CategoryDocument, len(d.Data.Categories))
	for i, c := range d.Data.Categories {
		c.CategoryItems = append([]ItemDocument(nil), c.CategoryItems...)
		out.Data.Categories[i] = c
	}
	if d.Data.Categories == nil {
		out.Data.Categories = nil
	}
	return out
}
