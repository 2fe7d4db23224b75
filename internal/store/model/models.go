package model

import (
	"time"

	"gorm.io/datatypes"
)

// DecisionModel is one evaluator verdict on an inbound offer.
type DecisionModel struct {
	ID               string         `gorm:"column:id;primaryKey"`
	OfferID          string         `gorm:"column:offer_id;index"`
	Partner          string         `gorm:"column:partner;index"`
	Action           string         `gorm:"column:action"`
	Reason           string         `gorm:"column:reason"`
	PricelistVersion int64          `gorm:"column:pricelist_version"`
	MetaJSON         datatypes.JSON `gorm:"column:meta_json;type:TEXT"`
	ExchangeJSON     datatypes.JSON `gorm:"column:exchange_json;type:TEXT"`
	DecidedAtUnix    int64          `gorm:"column:decided_at;index"`

	DecidedAt time.Time `gorm:"-"`
}

func (DecisionModel) TableName() string { return "decisions" }

// OfferRecord is the last known state of an offer the bot handled.
type OfferRecord struct {
	ID          string `db:"id" json:"id"`
	Partner     string `db:"partner" json:"partner"`
	State       int    `db:"state" json:"state"`
	Ours        bool   `db:"ours" json:"ours"`
	HandledByUs bool   `db:"handled_by_us" json:"handled_by_us"`
	Summary     string `db:"summary" json:"summary"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	UpdatedAt   int64  `db:"updated_at" json:"updated_at"`
}
