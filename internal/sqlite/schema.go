// Package sqlite implements the SQLite backend for the apothecary catalog.
// This file holds the schema DDL, applied idempotently on every Attach.
package sqlite

// Schema DDL for all tables. Junction tables reference both endpoints;
// deletes remove junction rows explicitly before the endpoint row.
const (
	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    category_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    created_at TEXT NOT NULL
);`

	createTags = `CREATE TABLE IF NOT EXISTS tags (
    tag_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    created_at TEXT NOT NULL
);`

	createProperties = `CREATE TABLE IF NOT EXISTS properties (
    property_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    source TEXT,
    created_at TEXT NOT NULL
);`

	createUses = `CREATE TABLE IF NOT EXISTS uses (
    use_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    source TEXT,
    created_at TEXT NOT NULL
);`

	createItems = `CREATE TABLE IF NOT EXISTS items (
    item_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL,
    properties_text TEXT,
    uses_text TEXT,
    potential_side_effects TEXT,
    image_url TEXT,
    category_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (category_id) REFERENCES categories(category_id)
);`

	createItemTags = `CREATE TABLE IF NOT EXISTS item_tags (
    item_id TEXT NOT NULL,
    tag_id TEXT NOT NULL,
    PRIMARY KEY (item_id, tag_id),
    FOREIGN KEY (item_id) REFERENCES items(item_id),
    FOREIGN KEY (tag_id) REFERENCES tags(tag_id)
);`

	createItemProperties = `CREATE TABLE IF NOT EXISTS item_properties (
    item_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    PRIMARY KEY (item_id, property_id),
    FOREIGN KEY (item_id) REFERENCES items(item_id),
    FOREIGN KEY (property_id) REFERENCES properties(property_id)
);`

	createItemUses = `CREATE TABLE IF NOT EXISTS item_uses (
    item_id TEXT NOT NULL,
    use_id TEXT NOT NULL,
    PRIMARY KEY (item_id, use_id),
    FOREIGN KEY (item_id) REFERENCES items(item_id),
    FOREIGN KEY (use_id) REFERENCES uses(use_id)
);`

	createProtocols = `CREATE TABLE IF NOT EXISTS protocols (
    protocol_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createProtocolItems = `CREATE TABLE IF NOT EXISTS protocol_items (
    protocol_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (protocol_id, item_id),
    FOREIGN KEY (protocol_id) REFERENCES protocols(protocol_id),
    FOREIGN KEY (item_id) REFERENCES items(item_id)
);`
)

// Index DDL for the join and filter paths.
const (
	idxItemsCategory          = `CREATE INDEX IF NOT EXISTS idx_items_category ON items(category_id);`
	idxItemTagsTag            = `CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag_id);`
	idxItemPropertiesProperty = `CREATE INDEX IF NOT EXISTS idx_item_properties_property ON item_properties(property_id);`
	idxItemUsesUse            = `CREATE INDEX IF NOT EXISTS idx_item_uses_use ON item_uses(use_id);`
	idxProtocolItemsItem      = `CREATE INDEX IF NOT EXISTS idx_protocol_items_item ON protocol_items(item_id);`
	idxProtocolItemsPosition  = `CREATE INDEX IF NOT EXISTS idx_protocol_items_position ON protocol_items(protocol_id, position);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCategories,
	createTags,
	createProperties,
	createUses,
	createItems,
	createItemTags,
	createItemProperties,
	createItemUses,
	createProtocols,
	createProtocolItems,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxItemsCategory,
	idxItemTagsTag,
	idxItemPropertiesProperty,
	idxItemUsesUse,
	idxProtocolItemsItem,
	idxProtocolItemsPosition,
}
