// Package model defines the canonical records written to the six output
// tables. Nullable fields are pointers; nil is stored as NULL.
package model

// Table names.
const (
	TableItems           = "items"
	TableQueries         = "queries"
	TableQueryItemLabels = "query_item_labels"
	TableItemItemPairs   = "item_item_pairs"
	TableEntities        = "entities"
	TableItemEntity      = "item_entity"
)

// Item is a product or offer.
type Item struct {
	ItemID         string
	Dataset        string
	DatasetItemKey string
	Merchant       *string
	Site           *string
	Locale         *string
	Brand          *string
	Title          *string
	Description    *string
	BulletPoints   *string
	Color          *string
	Price          *float64
	Currency       *string
	Category       *string
	ImageURL       *string
	Attrs          *string
	Split          *string
	Variant        *string
	Version        *string
}

// ItemColumns is the physical column order of items.
var ItemColumns = []string{
	"item_id", "dataset", "dataset_item_key", "merchant", "site", "locale",
	"brand", "title", "description", "bullet_points", "color", "price",
	"currency", "category", "image_url", "attrs", "split", "variant", "version",
}

// Values returns the row in ItemColumns order.
func (i Item) Values() []any {
	return []any{
		i.ItemID, i.Dataset, i.DatasetItemKey, i.Merchant, i.Site, i.Locale,
		i.Brand, i.Title, i.Description, i.BulletPoints, i.Color, i.Price,
		i.Currency, i.Category, i.ImageURL, i.Attrs, i.Split, i.Variant, i.Version,
	}
}

// Query is a search or session query.
type Query struct {
	QueryID   string
	Dataset   string
	QueryText *string
	Locale    *string
	QueryType *string
	Source    *string
	SessionID *string
	EventDate *string
}

var QueryColumns = []string{
	"query_id", "dataset", "query_text", "locale", "query_type", "source",
	"session_id", "event_date",
}

func (q Query) Values() []any {
	return []any{
		q.QueryID, q.Dataset, q.QueryText, q.Locale, q.QueryType, q.Source,
		q.SessionID, q.EventDate,
	}
}

// QueryItemLabel links a query to an item. QueryID and ItemID are nil when
// the source row carries no usable reference.
type QueryItemLabel struct {
	QueryID     *string
	ItemID      *string
	LabelFamily string
	Label       string
	Position    *int64
	SessionID   *string
	TimeframeMS *int64
	Split       *string
}

var QueryItemLabelColumns = []string{
	"query_id", "item_id", "label_family", "label", "position", "session_id",
	"timeframe_ms", "split",
}

func (l QueryItemLabel) Values() []any {
	return []any{
		l.QueryID, l.ItemID, l.LabelFamily, l.Label, l.Position, l.SessionID,
		l.TimeframeMS, l.Split,
	}
}

// ItemItemPair is a matching edge. Order is taken from the source.
type ItemItemPair struct {
	LeftItemID  string
	RightItemID string
	Label       string
	PairSource  string
	Split       *string
	Variant     *string
}

var ItemItemPairColumns = []string{
	"left_item_id", "right_item_id", "label", "pair_source", "split", "variant",
}

func (p ItemItemPair) Values() []any {
	return []any{p.LeftItemID, p.RightItemID, p.Label, p.PairSource, p.Split, p.Variant}
}

// Entity is a cluster of offers that refer to one real-world product.
type Entity struct {
	EntityID string
	Dataset  string
	Notes    *string
}

var EntityColumns = []string{"entity_id", "dataset", "notes"}

func (e Entity) Values() []any { return []any{e.EntityID, e.Dataset, e.Notes} }

// ItemEntity assigns an item to an entity.
type ItemEntity struct {
	ItemID   string
	EntityID string
}

var ItemEntityColumns = []string{"item_id", "entity_id"}

func (ie ItemEntity) Values() []any { return []any{ie.ItemID, ie.EntityID} }

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T { return &v }
