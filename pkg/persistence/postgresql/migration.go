package postgresql

// migrations returns the schema migrations keyed by version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS container_definitions (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				container JSONB NOT NULL,
				children JSONB NOT NULL,
				variables JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS execution_records (
				id TEXT PRIMARY KEY,
				container_id TEXT NOT NULL,
				execution_id TEXT NOT NULL,
				workflow_id TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				success BOOLEAN NOT NULL,
				output JSONB,
				errors JSONB,
				iterations INTEGER NOT NULL DEFAULT 0,
				metrics JSONB NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_execution_records_container_id
				ON execution_records (container_id, started_at DESC);
		`,
	}
}
