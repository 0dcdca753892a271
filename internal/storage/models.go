// Package storage provides database access for the shop's product records.
package storage

import "time"

// Product is a magical item in the shop. Rows are created only by the
// creation pipeline and never updated afterwards.
type Product struct {
	ID          int64
	Name        string    // <= 200 chars
	Description string    // unbounded AI-generated text
	ImagePath   string    // <= 500 chars, web-relative "/images/..." once set
	Price       string    // <= 100 chars, free-form currency string
	Category    string    // <= 100 chars
	Tags        []string  // 2..5 entries on committed rows
	Rarity      string    // <= 50 chars
	CreatedAt   time.Time // listing sort key, newest first
}

// Recommended vocabularies. Extracted metadata is not validated against
// them; the generative backend is trusted to follow its instructions.
var (
	Categories = []string{
		"Weapons", "Potions", "Artifacts", "Armor", "Scrolls",
		"Wands", "Rings", "Amulets", "Books", "Ingredients",
	}
	Rarities = []string{"Legendary", "Epic", "Rare", "Uncommon", "Common"}
)
