package model

import "retailbench/internal/storage"

func col(name, typ string) storage.ColumnSpec {
	return storage.ColumnSpec{Name: name, Type: typ}
}

func required(name string) storage.ColumnSpec {
	no := false
	return storage.ColumnSpec{Name: name, Type: storage.TypeText, Nullable: &no}
}

// Tables returns the DDL specs of the canonical tables, in dependency-free
// creation order. Column order matches the *Columns lists.
func Tables() []storage.TableSpec {
	text := storage.TypeText
	return []storage.TableSpec{
		{Name: TableItems, Columns: []storage.ColumnSpec{
			required("item_id"), required("dataset"), required("dataset_item_key"),
			col("merchant", text), col("site", text), col("locale", text),
			col("brand", text), col("title", text), col("description", text),
			col("bullet_points", text), col("color", text), col("price", storage.TypeDouble),
			col("currency", text), col("category", text), col("image_url", text),
			col("attrs", text), col("split", text), col("variant", text), col("version", text),
		}},
		{Name: TableQueries, Columns: []storage.ColumnSpec{
			required("query_id"), required("dataset"),
			col("query_text", text), col("locale", text), col("query_type", text),
			col("source", text), col("session_id", text), col("event_date", text),
		}},
		{Name: TableQueryItemLabels, Columns: []storage.ColumnSpec{
			col("query_id", text), col("item_id", text),
			required("label_family"), required("label"),
			col("position", storage.TypeBigint), col("session_id", text),
			col("timeframe_ms", storage.TypeBigint), col("split", text),
		}},
		{Name: TableItemItemPairs, Columns: []storage.ColumnSpec{
			required("left_item_id"), required("right_item_id"),
			required("label"), required("pair_source"),
			col("split", text), col("variant", text),
		}},
		{Name: TableEntities, Columns: []storage.ColumnSpec{
			required("entity_id"), required("dataset"), col("notes", text),
		}},
		{Name: TableItemEntity, Columns: []storage.ColumnSpec{
			required("item_id"), required("entity_id"),
		}},
	}
}
