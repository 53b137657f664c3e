package postgres

const migration001Up = `
CREATE TABLE IF NOT EXISTS runners (
    id UUID PRIMARY KEY,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    preferred_pace_seconds INTEGER,
    preferred_distance VARCHAR(20),
    location VARCHAR(255) NOT NULL DEFAULT '',
    preferred_running_times TEXT[] NOT NULL DEFAULT '{}',
    is_online BOOLEAN NOT NULL DEFAULT FALSE,
    last_seen_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_pace CHECK (preferred_pace_seconds IS NULL OR preferred_pace_seconds > 0),
    CONSTRAINT valid_distance CHECK (
        preferred_distance IS NULL
        OR preferred_distance IN ('5k', '10k', 'half-marathon', 'marathon', 'ultra')
    )
);

-- The candidate feed reads online runners in id order.
CREATE INDEX IF NOT EXISTS idx_runners_online ON runners(id) WHERE is_online = TRUE;
CREATE INDEX IF NOT EXISTS idx_runners_last_seen_at ON runners(last_seen_at);
`

const migration001Down = `
DROP TABLE IF EXISTS runners CASCADE;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS matches (
    id UUID PRIMARY KEY,
    user_low UUID NOT NULL REFERENCES runners(id) ON DELETE CASCADE,
    user_high UUID NOT NULL REFERENCES runners(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    matched_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_match_status CHECK (status IN ('active', 'unmatched', 'blocked')),
    CONSTRAINT ordered_pair CHECK (user_low < user_high)
);

-- One active match per pair. Rows are stored with the lexicographically
-- smaller id in user_low, so (A,B) and (B,A) land on the same row and
-- concurrent inserts race on this index instead of creating duplicates.
-- Ended matches keep their rows, which is why the index is partial.
CREATE UNIQUE INDEX IF NOT EXISTS idx_matches_active_pair
    ON matches(user_low, user_high) WHERE status = 'active';

CREATE INDEX IF NOT EXISTS idx_matches_user_low ON matches(user_low);
CREATE INDEX IF NOT EXISTS idx_matches_user_high ON matches(user_high);
CREATE INDEX IF NOT EXISTS idx_matches_matched_at ON matches(matched_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS matches CASCADE;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS messages (
    id UUID PRIMARY KEY,
    match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    sender_id UUID,
    content TEXT NOT NULL,
    message_type VARCHAR(20) NOT NULL DEFAULT 'text',
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- System messages have no sender.
    CONSTRAINT valid_message_type CHECK (message_type IN ('text', 'system')),
    CONSTRAINT sender_or_system CHECK (sender_id IS NOT NULL OR message_type = 'system'),
    CONSTRAINT content_length CHECK (char_length(content) BETWEEN 1 AND 2000)
);

CREATE INDEX IF NOT EXISTS idx_messages_match_created ON messages(match_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(match_id) WHERE is_read = FALSE;
`

const migration003Down = `
DROP TABLE IF EXISTS messages CASCADE;
`
