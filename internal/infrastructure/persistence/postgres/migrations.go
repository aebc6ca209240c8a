package postgres

// GetMigrations returns all schema migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_accounts",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					handle TEXT NOT NULL UNIQUE,
					display_name TEXT NOT NULL DEFAULT '',
					xp INTEGER NOT NULL DEFAULT 0,
					level INTEGER NOT NULL DEFAULT 1,
					pending_level_up BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);
			`,
			DownSQL: `DROP TABLE IF EXISTS accounts;`,
		},
		{
			Version: 2,
			Name:    "create_streaks",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS streaks (
					account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					kind TEXT NOT NULL,
					current INTEGER NOT NULL DEFAULT 1,
					longest INTEGER NOT NULL DEFAULT 1,
					last_activity_date DATE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					PRIMARY KEY (account_id, kind)
				);
			`,
			DownSQL: `DROP TABLE IF EXISTS streaks;`,
		},
		{
			Version: 3,
			Name:    "create_xp_ledger",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS xp_ledger (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					source TEXT NOT NULL,
					amount INTEGER NOT NULL,
					metadata JSONB NOT NULL DEFAULT '{}',
					-- Reference-zone calendar date of the award; daily caps
					-- count on this, not on created_at.
					day DATE NOT NULL,
					notified BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_xp_ledger_account_source_day
					ON xp_ledger (account_id, source, day);

				CREATE INDEX IF NOT EXISTS idx_xp_ledger_unnotified
					ON xp_ledger (account_id, created_at)
					WHERE notified = FALSE;
			`,
			DownSQL: `DROP TABLE IF EXISTS xp_ledger;`,
		},
		{
			Version: 4,
			Name:    "create_goals",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS goals (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					kind TEXT NOT NULL,
					label TEXT NOT NULL,
					target INTEGER NOT NULL DEFAULT 1,
					current INTEGER NOT NULL DEFAULT 0,
					difficulty INTEGER NOT NULL DEFAULT 1,
					active BOOLEAN NOT NULL DEFAULT TRUE,
					goal_date DATE,
					completed BOOLEAN NOT NULL DEFAULT FALSE,
					completed_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				-- One instance of each daily quest per account per day.
				CREATE UNIQUE INDEX IF NOT EXISTS idx_goals_daily_unique
					ON goals (account_id, kind, goal_date)
					WHERE goal_date IS NOT NULL;

				CREATE INDEX IF NOT EXISTS idx_goals_account_active
					ON goals (account_id)
					WHERE active = TRUE;
			`,
			DownSQL: `DROP TABLE IF EXISTS goals;`,
		},
		{
			Version: 5,
			Name:    "create_webhook_deliveries",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS webhook_deliveries (
					delivery_id TEXT PRIMARY KEY,
					received_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);
			`,
			DownSQL: `DROP TABLE IF EXISTS webhook_deliveries;`,
		},
	}
}
