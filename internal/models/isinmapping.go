package models

import "time"

// IsinMapping translates a broker security identifier (ISIN) to the trading
// symbol used for quotes, per user. A mapping with an empty symbol is a
// placeholder awaiting user input; the import path auto-inserts these for
// unknown ISINs.
type IsinMapping struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_user_isin"`
	ISIN      string    `json:"isin" gorm:"size:12;not null;uniqueIndex:idx_user_isin"`
	Symbol    string    `json:"symbol" gorm:"size:32"`
	Name      string    `json:"name" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resolved reports whether the mapping carries a usable trading symbol.
func (m *IsinMapping) Resolved() bool {
	return m.Symbol != ""
}
