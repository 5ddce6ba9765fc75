package adapter

import "retailbench/internal/columns"

// Roles shared by the rule sets.
const (
	RoleID          = "id"
	RoleTitle       = "title"
	RoleDescription = "description"
	RoleBrand       = "brand"
	RolePrice       = "price"
	RoleCurrency    = "currency"
	RoleCategory    = "category"
	RoleLocale      = "locale"
	RoleBullets     = "bullet_points"
	RoleColor       = "color"

	RoleQueryID   = "query_id"
	RoleQueryText = "query_text"
	RoleQueryless = "queryless"
	RoleSession   = "session"
	RoleEventDate = "event_date"
	RoleItem      = "item"
	RoleTimeframe = "timeframe"
	RolePosition  = "position"
	RoleLabel     = "label"
	RoleSplit     = "split"
	RoleSource    = "source"

	RoleLeft   = "left"
	RoleRight  = "right"
	RoleEntity = "entity"
)

var productIDs = []string{"productid", "product_id", "itemid", "item_id", "id"}

// AbtBuyItemRules resolve both Abt-Buy tables when they carry a header.
var AbtBuyItemRules = columns.RuleSet{
	{Role: RoleID, Exact: []string{"id"}},
	{Role: RoleTitle, Exact: []string{"name", "title"}},
	{Role: RoleDescription, Contains: []string{"desc"}},
	{Role: RoleBrand, Exact: []string{"manufacturer", "brand"}},
	{Role: RolePrice, Contains: []string{"price"}},
}

// CIKM16ProductRules resolve products.csv.
var CIKM16ProductRules = columns.RuleSet{
	{Role: RoleID, Exact: productIDs},
	{Role: RoleTitle, Contains: []string{"title", "name"}},
	{Role: RoleDescription, Contains: []string{"desc"}},
	{Role: RoleBrand, Contains: []string{"brand"}},
	{Role: RolePrice, Contains: []string{"price"}},
}

// CIKM16CategoryRules resolve product-categories.csv.
var CIKM16CategoryRules = columns.RuleSet{
	{Role: RoleID, Exact: productIDs},
	{Role: RoleCategory, Contains: []string{"category"}},
}

// CIKM16QueryRules resolve train-queries.csv.
var CIKM16QueryRules = columns.RuleSet{
	{Role: RoleQueryID, Contains: []string{"queryid"}},
	{Role: RoleQueryText, Exact: []string{"query", "query_text", "searchtokens", "search_tokens", "searchstring.tokens"}},
	{Role: RoleQueryless, Contains: []string{"queryless"}},
	{Role: RoleLocale, Contains: []string{"locale"}},
	{Role: RoleSession, Contains: []string{"session"}},
	{Role: RoleEventDate, Contains: []string{"eventdate", "event_date"}},
}

// CIKM16InteractionRules resolve the view, click and purchase logs.
var CIKM16InteractionRules = columns.RuleSet{
	{Role: RoleQueryID, Contains: []string{"queryid"}},
	{Role: RoleSession, Contains: []string{"session"}},
	{Role: RoleItem, Exact: []string{"itemid", "productid", "item_id", "product_id"}},
	{Role: RoleTimeframe, Contains: []string{"timeframe"}},
	{Role: RolePosition, Exact: []string{"position", "rank"}},
}

// ESCIProductRules map the fixed product columns. Every mapped column is
// left out of attrs.
var ESCIProductRules = columns.RuleSet{
	{Role: RoleID, Exact: []string{"product_id"}},
	{Role: RoleLocale, Exact: []string{"product_locale"}},
	{Role: RoleBrand, Exact: []string{"product_brand"}},
	{Role: RoleTitle, Exact: []string{"product_title"}},
	{Role: RoleDescription, Exact: []string{"product_description"}},
	{Role: RoleBullets, Exact: []string{"product_bullet_point"}},
	{Role: RoleColor, Exact: []string{"product_color"}},
}

// ESCIExampleRules map shopping_queries_dataset_examples.
var ESCIExampleRules = columns.RuleSet{
	{Role: RoleQueryID, Exact: []string{"query_id"}},
	{Role: RoleQueryText, Exact: []string{"query"}},
	{Role: RoleItem, Exact: []string{"product_id"}},
	{Role: RoleLocale, Exact: []string{"product_locale"}},
	{Role: RoleLabel, Exact: []string{"esci_label"}},
	{Role: RoleSplit, Exact: []string{"split"}},
}

// ESCISourceRules map shopping_queries_dataset_sources.
var ESCISourceRules = columns.RuleSet{
	{Role: RoleQueryID, Exact: []string{"query_id"}},
	{Role: RoleSource, Exact: []string{"source"}},
}

// WDCOfferColumns must all be present in an offers file.
var WDCOfferColumns = []string{"id", "title", "description", "price", "pricecurrency", "brand"}

// WDCPairColumns must all be present in a pairs file.
var WDCPairColumns = []string{"left_id", "right_id", "label"}

// WDCOfferRules map an offers file. Every mapped column is left out of attrs.
var WDCOfferRules = columns.RuleSet{
	{Role: RoleID, Exact: []string{"id"}},
	{Role: RoleTitle, Exact: []string{"title"}},
	{Role: RoleDescription, Exact: []string{"description"}},
	{Role: RolePrice, Exact: []string{"price"}},
	{Role: RoleCurrency, Exact: []string{"pricecurrency"}},
	{Role: RoleBrand, Exact: []string{"brand"}},
}

// WDCPairRules map a pairs file.
var WDCPairRules = columns.RuleSet{
	{Role: RoleLeft, Exact: []string{"left_id"}},
	{Role: RoleRight, Exact: []string{"right_id"}},
	{Role: RoleLabel, Exact: []string{"label"}},
}

// WDCMultiRules map an offer-to-entity file.
var WDCMultiRules = columns.RuleSet{
	{Role: RoleID, Exact: []string{"offer_id", "id", "item_id"}},
	{Role: RoleEntity, Contains: []string{"entity"}},
}

// RuleSets names every rule set for diagnostics (the sniff command).
var RuleSets = map[string]columns.RuleSet{
	"abt_buy":           AbtBuyItemRules,
	"cikm16.products":   CIKM16ProductRules,
	"cikm16.categories": CIKM16CategoryRules,
	"cikm16.queries":    CIKM16QueryRules,
	"cikm16.logs":       CIKM16InteractionRules,
	"esci.products":     ESCIProductRules,
	"esci.examples":     ESCIExampleRules,
	"esci.sources":      ESCISourceRules,
	"wdc.offers":        WDCOfferRules,
	"wdc.pairs":         WDCPairRules,
	"wdc.multi":         WDCMultiRules,
}
