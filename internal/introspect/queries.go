package introspect

// Catalog queries against the standard information_schema views. Every per-table query filters on
// both schema and table, since constraint names are only unique per table.

const tablesQuery = `
	SELECT table_schema, table_name, table_type
	FROM information_schema.tables
	WHERE table_schema LIKE :schema
	ORDER BY table_schema, table_name`

const tableQuery = `
	SELECT table_schema, table_name, table_type
	FROM information_schema.tables
	WHERE table_schema LIKE :schema AND table_name LIKE :table
	ORDER BY table_schema, table_name`

const columnsQuery = `
	SELECT table_schema, table_name, column_name, ordinal_position, is_nullable, data_type
	FROM information_schema.columns
	WHERE table_schema LIKE :schema AND table_name LIKE :table
	ORDER BY ordinal_position`

const uniquesQuery = `
	SELECT tc.table_schema, tc.table_name, tc.constraint_name, kcu.column_name, kcu.ordinal_position
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON kcu.constraint_schema = tc.constraint_schema
	 AND kcu.constraint_name = tc.constraint_name
	 AND kcu.table_schema = tc.table_schema
	 AND kcu.table_name = tc.table_name
	WHERE tc.constraint_type = 'UNIQUE'
	  AND tc.table_schema LIKE :schema AND tc.table_name LIKE :table
	ORDER BY tc.constraint_name, kcu.ordinal_position`

// Target columns pair with source columns by ordinal_position, which assumes the foreign key lists
// the referenced columns in the order of the referenced key.
const foreignKeysQuery = `
	SELECT s.table_schema, s.table_name, s.constraint_name, s.column_name, s.ordinal_position,
	       t.table_schema, t.table_name, t.column_name
	FROM information_schema.referential_constraints rc
	JOIN information_schema.key_column_usage s
	  ON s.constraint_schema = rc.constraint_schema
	 AND s.constraint_name = rc.constraint_name
	JOIN information_schema.key_column_usage t
	  ON t.constraint_schema = rc.unique_constraint_schema
	 AND t.constraint_name = rc.unique_constraint_name
	 AND t.ordinal_position = s.ordinal_position
	WHERE s.table_schema LIKE :schema AND s.table_name LIKE :table
	ORDER BY s.constraint_name, s.ordinal_position`
